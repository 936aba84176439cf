// Package handler implements the query handler, the central consumer of the
// user_query topic.
//
// A Handler owns a simple lifecycle: stopped → running → stopped. Start
// subscribes it to the query topic; every accepted query is processed on its
// own goroutine and always produces exactly one terminal response on the
// response topic, with status "completed" when the responder succeeds and
// "error" when it fails or panics. Stop unsubscribes first, so no new work
// can arrive, then waits for the in-flight tasks to drain.
//
// The response text comes from a pluggable Responder. The default is the
// keyword responder, which never fails; swap it with WithResponder:
//
//	h := handler.New(b,
//	    handler.WithResponder(responder.NewOpenAI()),
//	    handler.WithAgentName("concierge"),
//	)
//	if err := h.Start(ctx); err != nil {
//	    return err
//	}
//	defer h.Stop(context.Background())
//
// Stop's context bounds the drain: context.Background() waits for every task
// to finish, a cancelled context aborts the in-flight responders while still
// letting each task publish its terminal error response.
package handler
