package handler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/casualjim/aviary/broker"
	"github.com/casualjim/aviary/internal/registry"
	"github.com/casualjim/aviary/messages"
	"github.com/casualjim/aviary/pkg/slogx"
	"github.com/casualjim/aviary/pkg/uuidx"
	"github.com/casualjim/aviary/responder"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
)

var (
	// WithResponder replaces the strategy that turns query text into a
	// response. The default keyword responder never fails.
	WithResponder = opts.ForName[Handler, Responder]("responder")
	// WithAgentName sets the identity stamped on outgoing responses.
	WithAgentName = opts.ForName[Handler, string]("agentName")
	// WithLatency adds a simulated processing delay before the responder
	// runs. Zero by default.
	WithLatency = opts.ForName[Handler, time.Duration]("latency")
	// WithQueryTopic overrides the topic the handler subscribes to.
	WithQueryTopic = opts.ForName[Handler, string]("queryTopic")
	// WithResponseTopic overrides the topic terminal responses go to.
	WithResponseTopic = opts.ForName[Handler, string]("responseTopic")
)

// task is the in-flight record captured when a query is accepted.
type task struct {
	QueryID  string
	UserID   string
	Text     string
	Accepted strfmt.DateTime
}

// Stats reports the handler's processing counters.
type Stats struct {
	Accepted  uint64
	Completed uint64
	Failed    uint64
}

// Handler consumes user queries from a broker topic and publishes exactly one
// terminal response per accepted query. The zero value is not usable, build
// one with New.
type Handler struct {
	broker        broker.Broker
	responder     Responder
	agentName     string
	latency       time.Duration
	queryTopic    string
	responseTopic string

	mu      sync.Mutex
	running bool
	sub     broker.Subscription
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	inflight registry.Registry[*task]

	accepted  atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
}

func New(b broker.Broker, options ...opts.Option[Handler]) *Handler {
	h := &Handler{
		broker:        b,
		responder:     responder.Keyword{},
		agentName:     "query_handler",
		queryTopic:    messages.TopicUserQuery,
		responseTopic: messages.TopicQueryResponse,
		inflight:      registry.New[*task](),
	}
	if err := opts.Apply(h, options); err != nil {
		panic(err)
	}
	return h
}

// Start subscribes the handler to the query topic. Starting a running
// handler is a no-op, there is never more than one live subscription.
func (h *Handler) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	// The subscription and the per-query tasks outlive the Start call, so
	// their base context only inherits values, not cancellation.
	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub, err := h.broker.Topic(ctx, h.queryTopic).Subscribe(base, h)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to %s: %w", h.queryTopic, err)
	}

	h.baseCtx = base
	h.cancel = cancel
	h.sub = sub
	h.running = true

	slog.InfoContext(ctx, "query handler started", slog.String("topic", h.queryTopic))
	return nil
}

// Stop unsubscribes from the query topic and drains the in-flight tasks.
// New queries are rejected as soon as Stop begins. With a background context
// it waits for every task to finish. If ctx ends mid-drain the in-flight
// responders are aborted, each task still publishes its terminal error
// response, and Stop returns ctx.Err(). Stopping a stopped handler is a
// no-op.
func (h *Handler) Stop(ctx context.Context) error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	sub := h.sub
	cancel := h.cancel
	h.sub = nil
	h.mu.Unlock()

	sub.Unsubscribe()

	if n := h.inflight.Len(); n > 0 {
		slog.InfoContext(ctx, "waiting for processing tasks to complete", slog.Int("tasks", n))
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		cancel()
		<-done
		err = ctx.Err()
	}
	cancel()

	slog.InfoContext(ctx, "query handler stopped")
	return err
}

// Running reports whether the handler currently accepts queries.
func (h *Handler) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// InFlight returns the number of accepted queries that have not yet produced
// their terminal response.
func (h *Handler) InFlight() int {
	return h.inflight.Len()
}

func (h *Handler) Stats() Stats {
	return Stats{
		Accepted:  h.accepted.Load(),
		Completed: h.completed.Load(),
		Failed:    h.failed.Load(),
	}
}

// OnUserQuery accepts a query and spawns its processing task. The running
// check, the WaitGroup add and the registry insert happen under one lock so
// a concurrent Stop either waits for this task or the task is never
// accepted.
func (h *Handler) OnUserQuery(ctx context.Context, msg messages.Message[messages.UserQuery]) {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		slog.WarnContext(ctx, "query rejected, handler is stopped",
			slog.String("query_id", msg.Payload.QueryID),
		)
		return
	}
	h.wg.Add(1)
	id := uuidx.NewString()
	h.inflight.Add(id, &task{
		QueryID:  msg.Payload.QueryID,
		UserID:   msg.Payload.UserID,
		Text:     msg.Payload.Text,
		Accepted: strfmt.DateTime(time.Now()),
	})
	taskCtx := h.baseCtx
	h.mu.Unlock()

	h.accepted.Add(1)
	slog.InfoContext(ctx, "processing query",
		slog.String("query_id", msg.Payload.QueryID),
		slog.String("user_id", msg.Payload.UserID),
		slog.String("text", msg.Payload.Text),
	)

	go h.process(taskCtx, id, msg.Payload)
}

func (h *Handler) OnQueryResponse(context.Context, messages.Message[messages.QueryResponse]) {
	// The handler produces these, consuming them is someone else's job.
}

func (h *Handler) OnAgentStatus(ctx context.Context, msg messages.Message[messages.AgentStatus]) {
	slog.DebugContext(ctx, "agent status",
		slog.String("agent", msg.Payload.Agent),
		slog.String("state", msg.Payload.State),
	)
}

func (h *Handler) OnFunctionCall(context.Context, messages.Message[messages.FunctionCall]) {
	// Function calls are addressed to agents, not to the query handler.
}

func (h *Handler) OnFunctionResponse(context.Context, messages.Message[messages.FunctionResponse]) {
	// See OnFunctionCall.
}

func (h *Handler) OnError(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "broker delivered an error event", slogx.Error(err))
}

// process is the per-query unit of work. It has a single exit path: the
// in-flight record is removed after the terminal publish, then the WaitGroup
// is released.
func (h *Handler) process(ctx context.Context, id string, query messages.UserQuery) {
	defer h.wg.Done()
	defer h.inflight.Del(id)

	response, err := h.respond(ctx, query.Text)

	status := messages.StatusCompleted
	if err != nil {
		status = messages.StatusError
		response = fmt.Sprintf("Error processing query: %v", err)
		h.failed.Add(1)
		slog.ErrorContext(ctx, "error processing query",
			slog.String("query_id", query.QueryID),
			slogx.Error(err),
		)
	} else {
		h.completed.Add(1)
	}

	publishTerminal(ctx, h.broker, h.responseTopic, h.agentName, query, response, status)

	if err == nil {
		slog.InfoContext(ctx, "completed processing query", slog.String("query_id", query.QueryID))
	}
}

// respond runs the optional simulated latency and the responder, converting
// panics into errors so a faulty responder only fails its own query.
func (h *Handler) respond(ctx context.Context, text string) (response string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("responder panicked: %v", r)
		}
	}()

	if h.latency > 0 {
		timer := time.NewTimer(h.latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		}
	}

	return h.responder.Respond(ctx, text)
}

// publishTerminal emits the terminal response for an accepted query. It
// never inherits cancellation: a forced stop must not lose the response.
func publishTerminal(ctx context.Context, b broker.Broker, topic, agent string, query messages.UserQuery, response string, status messages.Status) {
	pctx := context.WithoutCancel(ctx)

	msg := queryResponse(agent, query, response, status)
	if err := b.Topic(pctx, topic).Publish(pctx, msg); err != nil {
		slog.ErrorContext(pctx, "failed to publish query response",
			slog.String("query_id", query.QueryID),
			slogx.Error(err),
		)
	}
}

func queryResponse(agent string, query messages.UserQuery, response string, status messages.Status) messages.Message[messages.QueryResponse] {
	return messages.Message[messages.QueryResponse]{
		ID:        uuidx.New(),
		Sender:    agent,
		Timestamp: strfmt.DateTime(time.Now()),
		Payload: messages.QueryResponse{
			QueryID:         query.QueryID,
			UserID:          query.UserID,
			Response:        response,
			Status:          status,
			Timestamp:       strfmt.DateTime(time.Now()),
			ProcessingAgent: agent,
		},
	}
}
