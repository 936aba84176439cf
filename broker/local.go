package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/aviary/messages"
	"github.com/casualjim/aviary/pkg/uuidx"
	"github.com/fogfish/opts"
)

const (
	defaultSlowSubscriberTimeout = 100 * time.Millisecond
	defaultBufferSize            = 50
)

var (
	// WithSlowSubscriberTimeout configures how long a publish waits on a full
	// subscription channel before evicting the subscriber.
	WithSlowSubscriberTimeout = opts.ForName[localBroker, time.Duration]("slowSubscriberTimeout")
	// WithBufferSize configures the per-subscription channel buffer.
	WithBufferSize = opts.ForName[localBroker, int]("bufferSize")
)

type counters struct {
	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

type localBroker struct {
	topics                *haxmap.Map[string, *topic]
	slowSubscriberTimeout time.Duration
	bufferSize            int
	counters              counters
}

// Local creates an in-process broker. Topics are materialized lazily on
// first access and live for the life of the broker.
func Local(options ...opts.Option[localBroker]) Broker {
	broker := &localBroker{
		topics:                haxmap.New[string, *topic](),
		slowSubscriberTimeout: defaultSlowSubscriberTimeout,
		bufferSize:            defaultBufferSize,
	}
	if err := opts.Apply(broker, options); err != nil {
		panic(err)
	}
	return broker
}

func (b *localBroker) Topic(ctx context.Context, id string) Topic {
	topic, _ := b.topics.GetOrCompute(id, func() *topic {
		return &topic{
			ID:                    id,
			subscriptions:         haxmap.New[string, *subscription](),
			slowSubscriberTimeout: b.slowSubscriberTimeout,
			bufferSize:            b.bufferSize,
			counters:              &b.counters,
		}
	})
	return topic
}

func (b *localBroker) Stats() Stats {
	return Stats{
		Published: b.counters.published.Load(),
		Delivered: b.counters.delivered.Load(),
		Dropped:   b.counters.dropped.Load(),
		Topics:    uint64(b.topics.Len()),
	}
}

type topic struct {
	ID                    string
	subscriptions         *haxmap.Map[string, *subscription]
	slowSubscriberTimeout time.Duration
	bufferSize            int
	counters              *counters
}

func (t *topic) Publish(ctx context.Context, event messages.Envelope) error {
	t.counters.published.Add(1)

	if t.subscriptions.Len() == 0 {
		slog.DebugContext(ctx, "publishing to topic without subscribers", slog.String("topic", t.ID))
		return nil
	}

	t.subscriptions.ForEach(func(id string, sub *subscription) bool {
		if sub == nil {
			return true
		}

		// Check if subscription is still active
		select {
		case <-ctx.Done():
			return false
		case <-sub.ctx.Done():
			sub.Unsubscribe()
			t.counters.dropped.Add(1)
			return true
		default:
		}

		// Try to send the event
		select {
		case <-ctx.Done():
			return false
		case <-sub.ctx.Done():
			sub.Unsubscribe()
			t.counters.dropped.Add(1)
		case sub.channel <- event:
			t.counters.delivered.Add(1)
		case <-time.After(t.slowSubscriberTimeout):
			// Channel is full after timeout, unsubscribe
			sub.Unsubscribe()
			t.counters.dropped.Add(1)
		}
		return true
	})
	return nil
}

func (t *topic) Subscribe(ctx context.Context, hook Hook) (Subscription, error) {
	if hook == nil {
		return nil, fmt.Errorf("hook is required")
	}
	sub := t.newSubscription(ctx, hook)
	return sub, nil
}

func (t *topic) newSubscription(ctx context.Context, hook Hook) *subscription {
	id := uuidx.NewString()
	// The subscription owns a context derived from the subscriber's, so an
	// explicit Unsubscribe and a subscriber ctx cancellation converge on the
	// same shutdown path without ever closing the channel under a publisher.
	sctx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		id:        id, // Use the same ID for both the subscription and map key
		ctx:       sctx,
		cancel:    cancel,
		channel:   make(chan messages.Envelope, t.bufferSize),
		closeOnce: sync.Once{},
		onClose:   func() { t.subscriptions.Del(id) },
	}
	t.subscriptions.Set(id, sub)
	go forwardToHook(sctx, sub.channel, hook)
	return sub
}

type subscription struct {
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	channel   chan messages.Envelope
	closeOnce sync.Once
	onClose   func()
}

func (s *subscription) ID() string {
	return s.id
}

func (s *subscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
		s.cancel()
	})
}
