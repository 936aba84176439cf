package broker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/casualjim/aviary/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBrokerStats(t *testing.T) {
	broker := Local()
	ctx := context.Background()
	topic := broker.Topic(ctx, "stats")

	var wg sync.WaitGroup
	recorder := newRecordingHook()
	recorder.wg = &wg
	sub, err := topic.Subscribe(ctx, recorder)
	require.NoError(t, err)
	defer sub.Unsubscribe()
	recorder.signalReady()

	wg.Add(2)
	require.NoError(t, topic.Publish(ctx, userQueryEvent("one")))
	require.NoError(t, topic.Publish(ctx, userQueryEvent("two")))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for messages to be processed")
	}

	stats := broker.Stats()
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(2), stats.Delivered)
	assert.Equal(t, uint64(0), stats.Dropped)
	assert.Equal(t, uint64(1), stats.Topics)
}

func TestLocalBrokerPublishWithoutSubscribers(t *testing.T) {
	broker := Local()
	topic := broker.Topic(context.Background(), "empty")

	require.NoError(t, topic.Publish(context.Background(), userQueryEvent("nobody home")))

	stats := broker.Stats()
	assert.Equal(t, uint64(1), stats.Published)
	assert.Equal(t, uint64(0), stats.Delivered)
}

func TestLocalBrokerPublisherContextCancelled(t *testing.T) {
	broker := Local()
	topic := broker.Topic(context.Background(), "cancelled")

	recorder := newRecordingHook()
	sub, err := topic.Subscribe(context.Background(), recorder)
	require.NoError(t, err)
	defer sub.Unsubscribe()
	recorder.signalReady()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, topic.Publish(ctx, userQueryEvent("never")))

	time.Sleep(50 * time.Millisecond)
	recorder.mu.Lock()
	assert.Empty(t, recorder.userQueries)
	recorder.mu.Unlock()
}

type blockingHook struct {
	*recordingHook
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (h *blockingHook) OnUserQuery(ctx context.Context, msg messages.Message[messages.UserQuery]) {
	h.once.Do(func() { close(h.entered) })
	<-h.release
	h.recordingHook.OnUserQuery(ctx, msg)
}

func TestLocalBrokerSlowSubscriberEviction(t *testing.T) {
	broker := Local(WithBufferSize(1), WithSlowSubscriberTimeout(10*time.Millisecond))
	ctx := context.Background()
	topic := broker.Topic(ctx, "evict")

	hook := &blockingHook{
		recordingHook: newRecordingHook(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	defer close(hook.release)
	sub, err := topic.Subscribe(ctx, hook)
	require.NoError(t, err)
	defer sub.Unsubscribe()
	hook.signalReady()

	// The first event is picked up by the forward loop and blocks the hook.
	require.NoError(t, topic.Publish(ctx, userQueryEvent("one")))
	select {
	case <-hook.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for hook to start processing")
	}

	// The second fills the buffer, the third overflows it and evicts.
	require.NoError(t, topic.Publish(ctx, userQueryEvent("two")))
	require.NoError(t, topic.Publish(ctx, userQueryEvent("three")))

	stats := broker.Stats()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(2), stats.Delivered)
	assert.Equal(t, uint64(1), stats.Dropped)

	// The evicted subscription is gone, later publishes see no subscribers.
	require.NoError(t, topic.Publish(ctx, userQueryEvent("four")))
	stats = broker.Stats()
	assert.Equal(t, uint64(4), stats.Published)
	assert.Equal(t, uint64(2), stats.Delivered)
	assert.Equal(t, uint64(1), stats.Dropped)
}
