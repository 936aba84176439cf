package broker

import (
	"context"

	"github.com/casualjim/aviary/messages"
)

// Broker provides named topics for asynchronous envelope exchange.
type Broker interface {
	Topic(context.Context, string) Topic
	Stats() Stats
}

// Topic fans published envelopes out to every current subscriber.
type Topic interface {
	Publish(context.Context, messages.Envelope) error
	Subscribe(context.Context, Hook) (Subscription, error)
}

// Subscription is the handle for cancelling a topic subscription.
// Unsubscribe is idempotent.
type Subscription interface {
	ID() string
	Unsubscribe()
}

// Stats is a snapshot of broker activity counters. Delivered counts
// per-subscriber handoffs, so a single publish to N subscribers adds N.
// Dropped counts envelopes abandoned because a subscriber was evicted as
// slow or its context had ended.
type Stats struct {
	Published uint64 `json:"published"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Topics    uint64 `json:"topics"`
}
