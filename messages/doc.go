// Package messages defines the typed envelopes that travel between agents,
// the query handler, and the broker, together with their JSON codecs.
//
// Design decisions:
//   - Type safety: Message[T] is generic over a sealed Payload union, so a
//     subscriber can match on the concrete payload at compile time
//   - Rich routing: every envelope carries ids, sender/recipient, a timestamp,
//     and optional opaque metadata that is preserved verbatim
//   - Efficient JSON: custom marshaling with pre-allocated type markers
//   - Error context: Error is both an envelope and a Go error, so failures
//     can cross the broker without losing their query context
//
// Envelope hierarchy:
//   - Envelope: base interface for everything a topic carries
//     ├── Message[UserQuery]: a query submitted on behalf of a user
//     ├── Message[QueryResponse]: the terminal answer for a query
//     ├── Message[AgentStatus]: lifecycle announcements from components
//     ├── Message[FunctionCall]: a function invocation request for an agent
//     ├── Message[FunctionResponse]: the structured result of an invocation
//     └── Error: a failure with preserved query context
//
// Every payload kind maps to a "type" discriminator on the wire, so peers in
// other languages can route on a single well-known key.
//
// Example usage:
//
//	query := messages.Message[messages.UserQuery]{
//	    ID:        uuidx.New(),
//	    Sender:    "api",
//	    Timestamp: strfmt.DateTime(time.Now()),
//	    Payload: messages.UserQuery{
//	        QueryID: "query_0001",
//	        UserID:  "user_123",
//	        Text:    "What is the weather like?",
//	    },
//	}
//
//	data, err := messages.ToJSON(query)
//	// ...
//	decoded, err := messages.FromJSON(data)
//	switch msg := decoded.(type) {
//	case messages.Message[messages.UserQuery]:
//	    // handle the query
//	case messages.Error:
//	    // handle the failure
//	}
package messages
