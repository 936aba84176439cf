// Package responder provides the strategies the query handler uses to turn
// a user query into a response string.
//
// Two implementations ship with aviary:
//
//   - Keyword: a deterministic, dependency-free responder that matches the
//     query against a fixed set of keyword categories (weather, data
//     analysis, coding, system status) and falls back to a generic
//     acknowledgement. It never returns an error, which makes it the
//     default for handlers that must always produce a terminal response.
//
//   - OpenAI: answers each query with a single chat completion round trip.
//     Model, client and system instructions are configurable through
//     options.
//
// Both satisfy the handler.Responder interface:
//
//	Respond(ctx context.Context, query string) (string, error)
//
// Custom strategies only need to implement that method. Responders must be
// safe for concurrent use, the handler invokes them from one goroutine per
// in-flight query.
package responder
