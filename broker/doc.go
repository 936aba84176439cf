// Package broker implements a pub/sub message broker for distributing typed
// envelopes between agents, the query handler, and other components. It
// provides a clean, minimal interface for topic-based distribution with
// context awareness.
//
// Design decisions:
//   - Context-first: All operations accept context.Context for cancellation/timeout
//   - Topic-based: Envelopes are distributed through named topics for logical separation
//   - Fire-and-forget: Publish hands an envelope to every subscriber without
//     awaiting its processing
//   - Fault isolation: a panicking subscriber is recovered and logged, never
//     taking down delivery to the others
//   - Subscription management: Explicit subscription lifecycle with idempotent cleanup
//   - Thread safety: Safe for concurrent publishing and subscribing
//
// Interface hierarchy:
//   - Broker: Top-level interface for accessing topics and activity counters
//     └── Topic: Interface for publishing/subscribing to envelopes
//     └── Subscription: Interface for managing subscriptions
//
// Two implementations share the interfaces: Local keeps everything in-process,
// NATS distributes the same envelopes across processes.
//
// Example usage:
//
//	// Create a broker and get a topic
//	b := broker.Local()
//	topic := b.Topic(ctx, messages.TopicUserQuery)
//
//	// Create a subscription with a hook
//	hook := &MyQueryHandler{}
//	sub, err := topic.Subscribe(ctx, hook)
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe() // Ensure cleanup
//
//	// Publish envelopes to the topic
//	event := messages.Message[messages.UserQuery]{
//	    ID: uuidx.New(),
//	    Payload: messages.UserQuery{
//	        QueryID: "query_0001",
//	        UserID:  "user_123",
//	        Text:    "What is the weather like?",
//	    },
//	}
//	if err := topic.Publish(ctx, event); err != nil {
//	    return err
//	}
package broker
