package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/casualjim/aviary/messages"
	"github.com/casualjim/aviary/pkg/jsonx"
	"github.com/casualjim/aviary/pkg/slogx"
)

// Hook defines the interface for handling every envelope kind a topic can
// carry. This interface is deliberately designed without a base "no-op"
// implementation to ensure consumers make explicit decisions about handling
// each envelope kind.
//
// Design decisions:
//  1. All methods must be implemented: This is a conscious choice to ensure
//     compile-time safety. When new envelope kinds are added, all
//     implementations will need to be updated.
//  2. No provided no-op implementation: While it might be convenient to
//     provide a NoOpHook, doing so would undermine the interface's primary
//     benefit of forcing conscious decisions about envelope handling.
//  3. Complete coverage: The interface covers all envelope kinds so none can
//     be accidentally missed in implementations.
//
// Implementation guidelines:
//   - Implement all methods explicitly, even if some kinds don't require handling
//   - Consider logging or monitoring for kinds that aren't actively handled
//   - Be prepared for new methods to be added as the system evolves
type Hook interface {
	OnUserQuery(context.Context, messages.Message[messages.UserQuery])

	OnQueryResponse(context.Context, messages.Message[messages.QueryResponse])

	OnAgentStatus(context.Context, messages.Message[messages.AgentStatus])

	OnFunctionCall(context.Context, messages.Message[messages.FunctionCall])

	OnFunctionResponse(context.Context, messages.Message[messages.FunctionResponse])

	OnError(context.Context, error)
}

func LoggingHook() Hook {
	return &loggingHook{}
}

type loggingHook struct{}

func mustJSON(v any) map[string]any {
	m, err := jsonx.ToDynamicJSON(v)
	if err != nil {
		panic(err)
	}
	return m
}

func (loggingHook) OnUserQuery(ctx context.Context, msg messages.Message[messages.UserQuery]) {
	slog.InfoContext(ctx, "User query", slog.Any("message", mustJSON(msg)))
}

func (loggingHook) OnQueryResponse(ctx context.Context, msg messages.Message[messages.QueryResponse]) {
	slog.InfoContext(ctx, "Query response", slog.Any("message", mustJSON(msg)))
}

func (loggingHook) OnAgentStatus(ctx context.Context, msg messages.Message[messages.AgentStatus]) {
	slog.InfoContext(ctx, "Agent status", slog.Any("message", mustJSON(msg)))
}

func (loggingHook) OnFunctionCall(ctx context.Context, msg messages.Message[messages.FunctionCall]) {
	slog.InfoContext(ctx, "Function call", slog.Any("message", mustJSON(msg)))
}

func (loggingHook) OnFunctionResponse(ctx context.Context, msg messages.Message[messages.FunctionResponse]) {
	slog.InfoContext(ctx, "Function response", slog.Any("message", mustJSON(msg)))
}

func (loggingHook) OnError(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "broker error", slogx.Error(err))
}

func NewCompositeHook(hooks ...Hook) Hook {
	return CompositeHook(hooks)
}

// CompositeHook allows combining multiple hooks into a single hook implementation.
// Note: This is provided as a utility for combining hooks, not as a way to avoid
// implementing the full interface.
type CompositeHook []Hook

func (c CompositeHook) OnUserQuery(ctx context.Context, msg messages.Message[messages.UserQuery]) {
	for h := range slices.Values(c) {
		h.OnUserQuery(ctx, msg)
	}
}

func (c CompositeHook) OnQueryResponse(ctx context.Context, msg messages.Message[messages.QueryResponse]) {
	for h := range slices.Values(c) {
		h.OnQueryResponse(ctx, msg)
	}
}

func (c CompositeHook) OnAgentStatus(ctx context.Context, msg messages.Message[messages.AgentStatus]) {
	for h := range slices.Values(c) {
		h.OnAgentStatus(ctx, msg)
	}
}

func (c CompositeHook) OnFunctionCall(ctx context.Context, msg messages.Message[messages.FunctionCall]) {
	for h := range slices.Values(c) {
		h.OnFunctionCall(ctx, msg)
	}
}

func (c CompositeHook) OnFunctionResponse(ctx context.Context, msg messages.Message[messages.FunctionResponse]) {
	for h := range slices.Values(c) {
		h.OnFunctionResponse(ctx, msg)
	}
}

func (c CompositeHook) OnError(ctx context.Context, err error) {
	for h := range slices.Values(c) {
		h.OnError(ctx, err)
	}
}

// Channel returns a hook that republishes every envelope onto the returned
// channel, for consumers that prefer pulling over implementing Hook. Sends
// are dropped once ctx ends; the channel itself is never closed, so readers
// should select on their own context.
func Channel(ctx context.Context, buffer int) (Hook, <-chan messages.Envelope) {
	ch := make(chan messages.Envelope, buffer)
	return &channelHook{ctx: ctx, ch: ch}, ch
}

type channelHook struct {
	ctx context.Context
	ch  chan messages.Envelope
}

func (c *channelHook) send(ctx context.Context, event messages.Envelope) {
	select {
	case <-ctx.Done():
	case <-c.ctx.Done():
	case c.ch <- event:
	}
}

func (c *channelHook) OnUserQuery(ctx context.Context, msg messages.Message[messages.UserQuery]) {
	c.send(ctx, msg)
}

func (c *channelHook) OnQueryResponse(ctx context.Context, msg messages.Message[messages.QueryResponse]) {
	c.send(ctx, msg)
}

func (c *channelHook) OnAgentStatus(ctx context.Context, msg messages.Message[messages.AgentStatus]) {
	c.send(ctx, msg)
}

func (c *channelHook) OnFunctionCall(ctx context.Context, msg messages.Message[messages.FunctionCall]) {
	c.send(ctx, msg)
}

func (c *channelHook) OnFunctionResponse(ctx context.Context, msg messages.Message[messages.FunctionResponse]) {
	c.send(ctx, msg)
}

func (c *channelHook) OnError(ctx context.Context, err error) {
	var evt messages.Error
	if !errors.As(err, &evt) {
		evt = messages.Error{Err: err}
	}
	c.send(ctx, evt)
}

// forwardToHook drains a subscription channel onto hook methods until the
// channel closes or ctx ends. Each dispatch recovers panics so one faulty
// subscriber cannot take down its own delivery loop.
func forwardToHook(ctx context.Context, ch <-chan messages.Envelope, hook Hook) {
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			dispatch(ctx, hook, event)
		case <-ctx.Done():
			return
		}
	}
}

func dispatch(ctx context.Context, hook Hook, event messages.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "subscriber hook panicked",
				slog.Any("panic", r),
				slog.String("event", fmt.Sprintf("%T", event)),
			)
		}
	}()

	switch event := event.(type) {
	case messages.Message[messages.UserQuery]:
		hook.OnUserQuery(ctx, event)
	case messages.Message[messages.QueryResponse]:
		hook.OnQueryResponse(ctx, event)
	case messages.Message[messages.AgentStatus]:
		hook.OnAgentStatus(ctx, event)
	case messages.Message[messages.FunctionCall]:
		hook.OnFunctionCall(ctx, event)
	case messages.Message[messages.FunctionResponse]:
		hook.OnFunctionResponse(ctx, event)
	case messages.Error:
		hook.OnError(ctx, event)
	default:
		panic(fmt.Sprintf("unknown event type: %T", event))
	}
}
