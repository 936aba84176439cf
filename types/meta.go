// Package types provides core type definitions used throughout the Aviary framework.
package types

import json "github.com/goccy/go-json"

// Meta is a key-value bag of request metadata that travels with a query or
// function call. Handlers echo it back on responses so callers can correlate
// replies, and skills can declare a Meta parameter to receive it at
// invocation time without it appearing in their public parameter schema.
//
// Common use cases include:
//   - Correlating a response with the user and query that produced it
//   - Passing tenant or session information to skill functions
//   - Carrying routing hints between agents
//
// Example usage:
//
//	meta := types.Meta{
//	    "user_id":  "user_123",
//	    "query_id": "query_0001",
//	}
//
// A skill function receives it by declaring the type:
//
//	func SearchWeb(query string, meta types.Meta) (string, error) {
//	    ...
//	}
//
// Thread Safety:
// Meta is a map type and is not safe for concurrent modification. Callers
// that mutate it across goroutines must synchronize access themselves.
type Meta map[string]any

// String returns a JSON string representation of the Meta bag.
// If marshaling fails, it returns an empty string.
func (m Meta) String() string {
	jsonData, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(jsonData)
}
