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
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// DefaultTaskQueue is the task queue query workflows run on unless
// WithTaskQueue says otherwise.
const DefaultTaskQueue = "aviary-queries"

const queryWorkflowName = "ProcessQuery"

// WithTaskQueue sets the task queue the durable handler starts query
// workflows on. Workers must listen on the same queue.
var WithTaskQueue = opts.ForName[Durable, string]("taskQueue")

// queryParams is the serializable workflow input for one accepted query.
type queryParams struct {
	QueryID string `json:"query_id"`
	UserID  string `json:"user_id"`
	Text    string `json:"text_content"`
}

func (p queryParams) userQuery() messages.UserQuery {
	return messages.UserQuery{QueryID: p.QueryID, UserID: p.UserID, Text: p.Text}
}

// Activities is the worker-side half of the durable handler: the query
// workflow plus the activities it schedules.
type Activities struct {
	broker        broker.Broker
	responder     Responder
	agentName     string
	responseTopic string
}

// NewActivities builds the worker-side dependencies of the durable handler.
// A nil responder falls back to the keyword responder.
func NewActivities(b broker.Broker, r Responder) *Activities {
	if r == nil {
		r = responder.Keyword{}
	}
	return &Activities{
		broker:        b,
		responder:     r,
		agentName:     "query_handler",
		responseTopic: messages.TopicQueryResponse,
	}
}

// RegisterWorker wires the query workflow and its activities onto w.
func (a *Activities) RegisterWorker(w worker.Worker) {
	w.RegisterWorkflowWithOptions(a.ProcessQuery, workflow.RegisterOptions{Name: queryWorkflowName})
	w.RegisterActivity(a.ComputeResponse)
	w.RegisterActivity(a.PublishResponse)
}

// ProcessQuery is the durable unit of work for one accepted query: compute
// the response, then publish it. A failed compute still publishes the
// error-status response, so the one-terminal-response-per-query contract
// holds across worker restarts.
func (a *Activities) ProcessQuery(ctx workflow.Context, params queryParams) error {
	log := workflow.GetLogger(ctx)
	log.Info("processing query", "query_id", params.QueryID)

	cctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout:    5 * time.Minute,
		ScheduleToStartTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	})

	status := messages.StatusCompleted
	var response string
	if err := workflow.ExecuteActivity(cctx, a.ComputeResponse, params).Get(ctx, &response); err != nil {
		status = messages.StatusError
		response = fmt.Sprintf("Error processing query: %v", err)
	}

	pctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout:    10 * time.Second,
		ScheduleToStartTimeout: 5 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    100 * time.Millisecond,
			MaximumInterval:    1 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    5,
		},
	})
	return workflow.ExecuteActivity(pctx, a.PublishResponse, params, response, status).Get(ctx, nil)
}

// ComputeResponse runs the responder for one query.
func (a *Activities) ComputeResponse(ctx context.Context, params queryParams) (string, error) {
	log := activity.GetLogger(ctx)
	log.Info("computing response", "query_id", params.QueryID, "user_id", params.UserID)
	return a.responder.Respond(ctx, params.Text)
}

// PublishResponse emits the terminal response onto the response topic. The
// error return feeds the retry policy, publishing is at-least-once.
func (a *Activities) PublishResponse(ctx context.Context, params queryParams, response string, status messages.Status) error {
	msg := queryResponse(a.agentName, params.userQuery(), response, status)
	if err := a.broker.Topic(ctx, a.responseTopic).Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish query response: %w", err)
	}
	return nil
}

// Durable is the client-side half: it accepts queries the same way Handler
// does, but runs each one as a Temporal workflow instead of a bare
// goroutine. Responses survive process crashes, a restarted worker resumes
// the publish.
type Durable struct {
	client        client.Client
	broker        broker.Broker
	taskQueue     string
	queryTopic    string
	responseTopic string
	agentName     string

	mu      sync.Mutex
	running bool
	sub     broker.Subscription
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	inflight registry.Registry[*task]
	accepted atomic.Uint64
}

func NewDurable(c client.Client, b broker.Broker, options ...opts.Option[Durable]) *Durable {
	d := &Durable{
		client:        c,
		broker:        b,
		taskQueue:     DefaultTaskQueue,
		queryTopic:    messages.TopicUserQuery,
		responseTopic: messages.TopicQueryResponse,
		agentName:     "query_handler",
		inflight:      registry.New[*task](),
	}
	if err := opts.Apply(d, options); err != nil {
		panic(err)
	}
	return d
}

// Start subscribes the durable handler to the query topic. A no-op when
// already running.
func (d *Durable) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return nil
	}

	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub, err := d.broker.Topic(ctx, d.queryTopic).Subscribe(base, d)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to %s: %w", d.queryTopic, err)
	}

	d.baseCtx = base
	d.cancel = cancel
	d.sub = sub
	d.running = true

	slog.InfoContext(ctx, "durable query handler started",
		slog.String("topic", d.queryTopic),
		slog.String("task_queue", d.taskQueue),
	)
	return nil
}

// Stop unsubscribes and waits for the workflow futures in flight. If ctx
// ends mid-drain the waits are abandoned and Stop returns ctx.Err(); the
// workflows keep running on the Temporal server and still publish their
// responses.
func (d *Durable) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	sub := d.sub
	cancel := d.cancel
	d.sub = nil
	d.mu.Unlock()

	sub.Unsubscribe()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
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

	slog.InfoContext(ctx, "durable query handler stopped")
	return err
}

// Running reports whether the durable handler currently accepts queries.
func (d *Durable) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// InFlight returns the number of accepted queries whose workflow has not
// finished yet.
func (d *Durable) InFlight() int {
	return d.inflight.Len()
}

// OnUserQuery accepts a query and starts its workflow. Same accept
// accounting as Handler.OnUserQuery.
func (d *Durable) OnUserQuery(ctx context.Context, msg messages.Message[messages.UserQuery]) {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		slog.WarnContext(ctx, "query rejected, durable handler is stopped",
			slog.String("query_id", msg.Payload.QueryID),
		)
		return
	}
	d.wg.Add(1)
	id := uuidx.NewString()
	d.inflight.Add(id, &task{
		QueryID:  msg.Payload.QueryID,
		UserID:   msg.Payload.UserID,
		Text:     msg.Payload.Text,
		Accepted: strfmt.DateTime(time.Now()),
	})
	taskCtx := d.baseCtx
	d.mu.Unlock()

	d.accepted.Add(1)
	go d.execute(taskCtx, id, msg.Payload)
}

func (d *Durable) OnQueryResponse(context.Context, messages.Message[messages.QueryResponse]) {}

func (d *Durable) OnAgentStatus(context.Context, messages.Message[messages.AgentStatus]) {}

func (d *Durable) OnFunctionCall(context.Context, messages.Message[messages.FunctionCall]) {}

func (d *Durable) OnFunctionResponse(context.Context, messages.Message[messages.FunctionResponse]) {
}

func (d *Durable) OnError(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "broker delivered an error event", slogx.Error(err))
}

func (d *Durable) execute(ctx context.Context, id string, query messages.UserQuery) {
	defer d.wg.Done()
	defer d.inflight.Del(id)

	fut, err := d.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("query-%s-%s", query.QueryID, id),
		TaskQueue: d.taskQueue,
	}, queryWorkflowName, queryParams{
		QueryID: query.QueryID,
		UserID:  query.UserID,
		Text:    query.Text,
	})
	if err != nil {
		// The workflow never started, nobody else will answer this query.
		slog.ErrorContext(ctx, "failed to start query workflow",
			slog.String("query_id", query.QueryID),
			slogx.Error(err),
		)
		publishTerminal(ctx, d.broker, d.responseTopic, d.agentName, query,
			fmt.Sprintf("Error processing query: %v", err), messages.StatusError)
		return
	}

	if err := fut.Get(ctx, nil); err != nil {
		// The workflow owns the terminal publish, this wait is drain
		// bookkeeping only.
		slog.ErrorContext(ctx, "query workflow did not complete",
			slog.String("query_id", query.QueryID),
			slogx.Error(err),
		)
	}
}
