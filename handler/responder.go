package handler

import "context"

// Responder turns a user query into a response string. Implementations must
// be safe for concurrent use, the handler calls Respond from one goroutine
// per in-flight query. A returned error becomes an error-status response for
// that query, it does not affect other queries or the handler itself.
type Responder interface {
	Respond(ctx context.Context, query string) (string, error)
}

// ResponderFunc adapts a plain function to the Responder interface.
type ResponderFunc func(context.Context, string) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}
