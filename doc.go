/*
Package aviary is the orchestration core of a multi-agent system: an
asynchronous message broker, a query handler that turns user queries into
exactly one terminal response each, and an adapter pattern that exposes
agent capabilities as validated function calls.

The package wires three independently usable layers:

  - Broker: named topics with fan-out delivery and fault isolation (broker)
  - Query handling: lifecycle-managed consumers with pluggable response
    strategies (handler, responder)
  - Agents: function-call adapters over collaborator clients (agent, skill,
    websearch)

# Basic Usage

Assemble the pieces, start the aviary and submit queries:

	av := aviary.New(
		aviary.Agents(websearch.New(nil)),
	)

	if err := av.Start(ctx); err != nil {
		// handle error
	}
	defer av.Stop(ctx)

	queryID, fut := av.SubmitQuery(ctx, "user_123", "what's the weather today?")
	resp, err := fut.Get(ctx)
	if err != nil {
		// handle error
	}
	fmt.Println(queryID, resp.Payload.Response)

Every accepted query produces exactly one response on the query_response
topic, carrying status "completed" or "error". Failures inside the handler
or a responder never escape as panics or lost queries, they become error
responses.

# Architecture

1. Assembly (aviary.go)
  - Owns the broker, the query handler and the registered agents
  - Start/Stop announce lifecycle transitions on the status topic
  - SubmitQuery correlates a query with its terminal response

2. Promises (promise.go)
  - Future and CompletableFuture resolve a query's terminal response
  - First completion wins, every reader observes the same outcome

3. Options (opts.go)
  - fogfish/opts configuration for the assembly

Agent function calls do not travel over broker topics. They are routed
directly with Call, and unknown recipients, unknown functions, missing
parameters, collaborator failures and panics all come back as structured
error responses that echo the request's routing metadata.

# Integration

Aviary integrates with several backend systems:

  - NATS for brokering across processes (broker.NATS)
  - Temporal for durable query processing (handler.Durable)
  - OpenAI for LLM-backed responders (responder.OpenAI)

All of them are optional, the defaults run entirely in-process.

# Examples

The examples directory contains runnable patterns:

  - basic/minimal: local broker, keyword responder, one query end to end
  - basic/websearch: invoking an agent's skills directly
  - basic/chat: an interactive loop over a running aviary
  - temporal/minimal: durable processing with a Temporal worker

# Thread Safety

An Aviary is safe for concurrent use. Queries can be submitted from any
goroutine, the handler drains in-flight work on Stop, and agents are safe to
share as long as their collaborators are.
*/
package aviary
