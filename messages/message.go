package messages

import (
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Topic names for the well-known channels of the orchestration core.
const (
	TopicUserQuery     = "user_query"
	TopicQueryResponse = "query_response"
	TopicAgentStatus   = "agent_status"
)

// Wire discriminators, stored under the "type" key of every envelope.
const (
	KindUserQuery        = "user_query"
	KindQueryResponse    = "query_response"
	KindAgentStatus      = "agent_status"
	KindFunctionCall     = "function_call"
	KindFunctionResponse = "function_response"
	KindError            = "error"
)

// Status is the terminal outcome of a query.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Envelope is the sealed set of messages a broker topic carries.
type Envelope interface {
	envelope()
}

// Payload is the sealed set of bodies a Message can carry.
type Payload interface {
	kind() string
}

// Message is the envelope for a payload of type T. The envelope owns routing
// and correlation; the payload owns the domain data.
type Message[T Payload] struct {
	ID             uuid.UUID       `json:"id"`
	ConversationID uuid.UUID       `json:"conversation_id,omitempty"`
	ParentID       uuid.UUID       `json:"parent_id,omitempty"`
	Sender         string          `json:"sender,omitempty"`
	Recipient      string          `json:"recipient,omitempty"`
	Timestamp      strfmt.DateTime `json:"timestamp,omitempty"`
	Meta           gjson.Result    `json:"meta,omitempty"`
	Payload        T               `json:"payload"`
}

func (Message[T]) envelope() {}

// UserQuery asks the handler to answer on behalf of a user.
type UserQuery struct {
	QueryID string `json:"query_id"`
	UserID  string `json:"user_id"`
	Text    string `json:"text_content"`
}

func (UserQuery) kind() string { return KindUserQuery }

// QueryResponse is the terminal answer for a query. Exactly one is published
// per accepted query, with Status reporting how processing ended.
//
// The payload timestamp serializes as unix seconds (a JSON number) for
// compatibility with non-Go peers; the envelope timestamp stays RFC3339.
type QueryResponse struct {
	QueryID         string          `json:"query_id"`
	UserID          string          `json:"user_id"`
	Response        string          `json:"response"`
	Status          Status          `json:"status"`
	Timestamp       strfmt.DateTime `json:"timestamp"`
	ProcessingAgent string          `json:"processing_agent"`
}

func (QueryResponse) kind() string { return KindQueryResponse }

// AgentStatus announces a component lifecycle transition.
type AgentStatus struct {
	Agent  string `json:"agent"`
	State  string `json:"state"`
	Detail string `json:"detail,omitempty"`
}

func (AgentStatus) kind() string { return KindAgentStatus }

// FunctionCall requests that an agent invoke one of its functions.
// Arguments holds the raw JSON object text of the named parameters.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func (FunctionCall) kind() string { return KindFunctionCall }

// FunctionResponse is the structured result of a function invocation.
// Result is TextContent on success and ErrorContent on any failure.
type FunctionResponse struct {
	Name   string  `json:"name"`
	Result Content `json:"result"`
}

func (FunctionResponse) kind() string { return KindFunctionResponse }

// Content is the sealed result union for function responses.
type Content interface {
	content()
}

// Text creates a TextContent with the given text.
func Text(text string) TextContent {
	return TextContent{Text: text}
}

// TextContent carries the successful result of a function invocation.
type TextContent struct {
	Text string   `json:"text"`
	_    struct{} // require keyed usage
}

func (TextContent) content() {}

// Errorf creates an ErrorContent with a formatted detail message.
func Errorf(format string, args ...any) ErrorContent {
	return ErrorContent{Detail: fmt.Sprintf(format, args...)}
}

// ErrorContent carries the failure detail of a function invocation.
type ErrorContent struct {
	Detail string   `json:"error"`
	_      struct{} // require keyed usage
}

func (ErrorContent) content() {}
