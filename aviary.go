package aviary

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/aviary/agent"
	"github.com/casualjim/aviary/broker"
	"github.com/casualjim/aviary/handler"
	"github.com/casualjim/aviary/messages"
	"github.com/casualjim/aviary/pkg/slogx"
	"github.com/casualjim/aviary/pkg/uuidx"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
)

// QueryHandler is the lifecycle contract the aviary drives. Both
// handler.Handler and handler.Durable satisfy it.
type QueryHandler interface {
	Start(context.Context) error
	Stop(context.Context) error
	Running() bool
}

// Aviary assembles a broker, a query handler and a set of agents into one
// runnable unit. Build one with New, submit queries with SubmitQuery and
// route function calls to registered agents with Call.
type Aviary struct {
	name    string
	broker  broker.Broker
	handler QueryHandler
	agents  *haxmap.Map[string, agent.Agent]
}

// New builds an aviary. Without options it runs an in-process broker and a
// keyword-responder handler over it.
func New(options ...opts.Option[Aviary]) *Aviary {
	a := &Aviary{
		name:   "orchestrator",
		agents: haxmap.New[string, agent.Agent](),
	}
	if err := opts.Apply(a, options); err != nil {
		panic(err)
	}
	if a.broker == nil {
		a.broker = broker.Local()
	}
	if a.handler == nil {
		a.handler = handler.New(a.broker)
	}
	return a
}

// Broker returns the broker this aviary publishes to, for consumers that
// want to attach their own subscriptions.
func (a *Aviary) Broker() broker.Broker {
	return a.broker
}

// Agent looks up a registered agent by name.
func (a *Aviary) Agent(name string) (agent.Agent, bool) {
	return a.agents.Get(name)
}

// Running reports whether the query handler currently accepts queries.
func (a *Aviary) Running() bool {
	return a.handler.Running()
}

// Start brings the query handler online and announces the transition on the
// status topic. Starting a running aviary is a no-op.
func (a *Aviary) Start(ctx context.Context) error {
	if a.handler.Running() {
		return nil
	}
	if err := a.handler.Start(ctx); err != nil {
		return err
	}
	a.publishStatus(ctx, "running")
	return nil
}

// Stop shuts the query handler down, waiting for in-flight queries the way
// handler.Stop does, then announces the transition on the status topic.
// Stopping a stopped aviary is a no-op.
func (a *Aviary) Stop(ctx context.Context) error {
	if !a.handler.Running() {
		return nil
	}
	err := a.handler.Stop(ctx)
	a.publishStatus(ctx, "stopped")
	return err
}

// SubmitQuery publishes a user query under a fresh query id and returns that
// id together with a future that resolves to the query's terminal response.
// Submission failures resolve the future with the error, so callers have a
// single place to wait:
//
//	queryID, fut := av.SubmitQuery(ctx, "user_123", "what's the weather?")
//	resp, err := fut.Get(ctx)
func (a *Aviary) SubmitQuery(ctx context.Context, userID, text string) (string, Future[messages.Message[messages.QueryResponse]]) {
	queryID := uuidx.NewString()

	fut := NewFuture[messages.Message[messages.QueryResponse]]()
	aw := &responseAwaiter{queryID: queryID, promise: fut}

	// The awaiter subscribes before the query goes out so the response
	// cannot slip past it.
	sub, err := a.broker.Topic(ctx, messages.TopicQueryResponse).Subscribe(ctx, aw)
	if err != nil {
		fut.Error(fmt.Errorf("failed to subscribe for responses: %w", err))
		return queryID, fut
	}
	aw.arm(sub)

	query := messages.Message[messages.UserQuery]{
		ID:        uuidx.New(),
		Sender:    a.name,
		Timestamp: strfmt.DateTime(time.Now()),
		Payload: messages.UserQuery{
			QueryID: queryID,
			UserID:  userID,
			Text:    text,
		},
	}
	if err := a.broker.Topic(ctx, messages.TopicUserQuery).Publish(ctx, query); err != nil {
		aw.close()
		fut.Error(fmt.Errorf("failed to publish user query: %w", err))
	}
	return queryID, fut
}

// Call routes a function call to the named registered agent and returns its
// response. An unknown recipient produces the same structured error response
// an agent returns for an unknown function, with the request's routing
// metadata echoed.
func (a *Aviary) Call(ctx context.Context, recipient string, call messages.Message[messages.FunctionCall]) messages.Message[messages.FunctionResponse] {
	target, found := a.agents.Get(recipient)
	if !found {
		return messages.Message[messages.FunctionResponse]{
			ID:             uuidx.New(),
			ConversationID: call.ConversationID,
			ParentID:       call.ID,
			Sender:         a.name,
			Recipient:      call.Sender,
			Timestamp:      strfmt.DateTime(time.Now()),
			Meta:           call.Meta,
			Payload: messages.FunctionResponse{
				Name:   call.Payload.Name,
				Result: messages.Errorf("unknown agent %s", recipient),
			},
		}
	}
	return target.Invoke(ctx, call)
}

// publishStatus announces a lifecycle transition. It never inherits
// cancellation: the stopped announcement still goes out when Stop's ctx has
// expired mid-drain.
func (a *Aviary) publishStatus(ctx context.Context, state string) {
	pctx := context.WithoutCancel(ctx)

	msg := messages.Message[messages.AgentStatus]{
		ID:        uuidx.New(),
		Sender:    a.name,
		Timestamp: strfmt.DateTime(time.Now()),
		Payload: messages.AgentStatus{
			Agent: a.name,
			State: state,
		},
	}
	if err := a.broker.Topic(pctx, messages.TopicAgentStatus).Publish(pctx, msg); err != nil {
		slog.ErrorContext(pctx, "failed to publish agent status",
			slog.String("state", state),
			slogx.Error(err),
		)
	}
}

// responseAwaiter completes a promise with the first terminal response
// matching its query id, then tears down its own subscription.
type responseAwaiter struct {
	queryID string
	promise CompletableFuture[messages.Message[messages.QueryResponse]]

	mu   sync.Mutex
	sub  broker.Subscription
	done bool
}

// arm hands the awaiter its subscription. When the response already arrived
// the subscription is released immediately.
func (w *responseAwaiter) arm(sub broker.Subscription) {
	w.mu.Lock()
	if w.done {
		w.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	w.sub = sub
	w.mu.Unlock()
}

func (w *responseAwaiter) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = true
	if w.sub != nil {
		w.sub.Unsubscribe()
		w.sub = nil
	}
}

func (w *responseAwaiter) OnQueryResponse(ctx context.Context, msg messages.Message[messages.QueryResponse]) {
	if msg.Payload.QueryID != w.queryID {
		return
	}
	w.promise.Complete(msg)
	w.close()
}

func (w *responseAwaiter) OnUserQuery(context.Context, messages.Message[messages.UserQuery]) {}

func (w *responseAwaiter) OnAgentStatus(context.Context, messages.Message[messages.AgentStatus]) {}

func (w *responseAwaiter) OnFunctionCall(context.Context, messages.Message[messages.FunctionCall]) {}

func (w *responseAwaiter) OnFunctionResponse(context.Context, messages.Message[messages.FunctionResponse]) {
}

func (w *responseAwaiter) OnError(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "broker delivered an error event", slogx.Error(err))
}
