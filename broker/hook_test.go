package broker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/casualjim/aviary/messages"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agentStatusEvent(agent, state string) messages.Message[messages.AgentStatus] {
	return messages.Message[messages.AgentStatus]{
		ID:      uuid.New(),
		Sender:  agent,
		Payload: messages.AgentStatus{Agent: agent, State: state},
	}
}

func functionCallEvent(name, args string) messages.Message[messages.FunctionCall] {
	return messages.Message[messages.FunctionCall]{
		ID:      uuid.New(),
		Sender:  "test",
		Payload: messages.FunctionCall{Name: name, Arguments: args},
	}
}

func functionResponseEvent(name string, result messages.Content) messages.Message[messages.FunctionResponse] {
	return messages.Message[messages.FunctionResponse]{
		ID:      uuid.New(),
		Sender:  "test",
		Payload: messages.FunctionResponse{Name: name, Result: result},
	}
}

func TestCompositeHook(t *testing.T) {
	first := newRecordingHook()
	second := newRecordingHook()
	hook := NewCompositeHook(first, second)

	ctx := context.Background()
	hook.OnUserQuery(ctx, userQueryEvent("fan out"))
	hook.OnQueryResponse(ctx, queryResponseEvent("query_0001", "done"))
	hook.OnAgentStatus(ctx, agentStatusEvent("query_handler", "running"))
	hook.OnFunctionCall(ctx, functionCallEvent("search_web", `{"query":"go"}`))
	hook.OnFunctionResponse(ctx, functionResponseEvent("search_web", messages.Text("ok")))
	hook.OnError(ctx, errors.New("boom"))

	for i, recorder := range []*recordingHook{first, second} {
		recorder.mu.Lock()
		assert.Len(t, recorder.userQueries, 1, "hook %d", i)
		assert.Len(t, recorder.queryResponses, 1, "hook %d", i)
		assert.Len(t, recorder.agentStatuses, 1, "hook %d", i)
		assert.Len(t, recorder.functionCalls, 1, "hook %d", i)
		assert.Len(t, recorder.functionResponses, 1, "hook %d", i)
		assert.Len(t, recorder.errors, 1, "hook %d", i)
		recorder.mu.Unlock()
	}
}

func TestChannelHookDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hook, ch := Channel(ctx, 2)

	query := userQueryEvent("pull me")
	hook.OnUserQuery(ctx, query)

	select {
	case event := <-ch:
		msg, ok := event.(messages.Message[messages.UserQuery])
		require.True(t, ok, "expected a user query, got %T", event)
		assert.Equal(t, query.ID, msg.ID)
		assert.Equal(t, "pull me", msg.Payload.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for envelope")
	}

	// Wrapped errors surface as their original Error envelope.
	hook.OnError(ctx, fmt.Errorf("handler failed: %w", messages.Error{
		QueryID: "query_0001",
		Err:     errors.New("boom"),
	}))

	select {
	case event := <-ch:
		evt, ok := event.(messages.Error)
		require.True(t, ok, "expected an error envelope, got %T", event)
		assert.Equal(t, "query_0001", evt.QueryID)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error envelope")
	}
}

func TestChannelHookDropsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	hook, ch := Channel(ctx, 1)

	// Fill the buffer, then cancel before anyone reads.
	hook.OnUserQuery(context.Background(), userQueryEvent("buffered"))
	cancel()

	done := make(chan struct{})
	go func() {
		hook.OnUserQuery(context.Background(), userQueryEvent("dropped"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("send should not block once the hook context ends")
	}

	event := <-ch
	msg, ok := event.(messages.Message[messages.UserQuery])
	require.True(t, ok)
	assert.Equal(t, "buffered", msg.Payload.Text)

	select {
	case event := <-ch:
		t.Fatalf("unexpected extra envelope: %T", event)
	default:
	}
}

func TestLoggingHook(t *testing.T) {
	hook := LoggingHook()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		hook.OnUserQuery(ctx, userQueryEvent("log me"))
		hook.OnQueryResponse(ctx, queryResponseEvent("query_0001", "done"))
		hook.OnAgentStatus(ctx, agentStatusEvent("query_handler", "running"))
		hook.OnFunctionCall(ctx, functionCallEvent("search_web", `{"query":"go"}`))
		hook.OnFunctionResponse(ctx, functionResponseEvent("search_web", messages.Text("ok")))
		hook.OnError(ctx, errors.New("boom"))
	})
}

func TestDispatchRoutesEnvelopes(t *testing.T) {
	recorder := newRecordingHook()
	ctx := context.Background()

	dispatch(ctx, recorder, userQueryEvent("route"))
	dispatch(ctx, recorder, queryResponseEvent("query_0001", "done"))
	dispatch(ctx, recorder, agentStatusEvent("query_handler", "running"))
	dispatch(ctx, recorder, functionCallEvent("search_web", `{"query":"go"}`))
	dispatch(ctx, recorder, functionResponseEvent("search_web", messages.Text("ok")))
	dispatch(ctx, recorder, messages.Error{QueryID: "query_0001", Err: errors.New("boom")})

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Len(t, recorder.userQueries, 1)
	assert.Len(t, recorder.queryResponses, 1)
	assert.Len(t, recorder.agentStatuses, 1)
	assert.Len(t, recorder.functionCalls, 1)
	assert.Len(t, recorder.functionResponses, 1)
	require.Len(t, recorder.errors, 1)

	var evt messages.Error
	require.ErrorAs(t, recorder.errors[0], &evt)
	assert.Equal(t, "query_0001", evt.QueryID)
}

func TestDispatchRecoversPanics(t *testing.T) {
	victim := &panickyHook{recordingHook: newRecordingHook()}

	assert.NotPanics(t, func() {
		dispatch(context.Background(), victim, userQueryEvent("boom"))
	})
}
