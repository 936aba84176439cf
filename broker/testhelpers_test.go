package broker

import (
	"context"
	"sync"

	"github.com/casualjim/aviary/messages"
)

type recordingHook struct {
	mu                sync.Mutex
	wg                *sync.WaitGroup
	ready             chan struct{} // signals when hook is ready to receive events
	userQueries       []messages.Message[messages.UserQuery]
	queryResponses    []messages.Message[messages.QueryResponse]
	agentStatuses     []messages.Message[messages.AgentStatus]
	functionCalls     []messages.Message[messages.FunctionCall]
	functionResponses []messages.Message[messages.FunctionResponse]
	errors            []error
}

func newRecordingHook() *recordingHook {
	return &recordingHook{
		ready: make(chan struct{}),
	}
}

func (r *recordingHook) signalReady() {
	close(r.ready)
}

func (r *recordingHook) OnUserQuery(ctx context.Context, msg messages.Message[messages.UserQuery]) {
	r.mu.Lock()
	r.userQueries = append(r.userQueries, msg)
	r.mu.Unlock()
	if r.wg != nil {
		r.wg.Done()
	}
}

func (r *recordingHook) OnQueryResponse(ctx context.Context, msg messages.Message[messages.QueryResponse]) {
	r.mu.Lock()
	r.queryResponses = append(r.queryResponses, msg)
	r.mu.Unlock()
	if r.wg != nil {
		r.wg.Done()
	}
}

func (r *recordingHook) OnAgentStatus(ctx context.Context, msg messages.Message[messages.AgentStatus]) {
	r.mu.Lock()
	r.agentStatuses = append(r.agentStatuses, msg)
	r.mu.Unlock()
	if r.wg != nil {
		r.wg.Done()
	}
}

func (r *recordingHook) OnFunctionCall(ctx context.Context, msg messages.Message[messages.FunctionCall]) {
	r.mu.Lock()
	r.functionCalls = append(r.functionCalls, msg)
	r.mu.Unlock()
	if r.wg != nil {
		r.wg.Done()
	}
}

func (r *recordingHook) OnFunctionResponse(ctx context.Context, msg messages.Message[messages.FunctionResponse]) {
	r.mu.Lock()
	r.functionResponses = append(r.functionResponses, msg)
	r.mu.Unlock()
	if r.wg != nil {
		r.wg.Done()
	}
}

func (r *recordingHook) OnError(ctx context.Context, err error) {
	r.mu.Lock()
	r.errors = append(r.errors, err)
	r.mu.Unlock()
	if r.wg != nil {
		r.wg.Done()
	}
}
