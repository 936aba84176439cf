package messages

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	userQueryJSON        = []byte(`{"type":"user_query"}`)
	queryResponseJSON    = []byte(`{"type":"query_response"}`)
	agentStatusJSON      = []byte(`{"type":"agent_status"}`)
	functionCallJSON     = []byte(`{"type":"function_call"}`)
	functionResponseJSON = []byte(`{"type":"function_response"}`)
	errorJSON            = []byte(`{"type":"error"}`)
	objectJSON           = []byte(`{}`)
)

func markerFor(kind string) []byte {
	switch kind {
	case KindUserQuery:
		return userQueryJSON
	case KindQueryResponse:
		return queryResponseJSON
	case KindAgentStatus:
		return agentStatusJSON
	case KindFunctionCall:
		return functionCallJSON
	case KindFunctionResponse:
		return functionResponseJSON
	case KindError:
		return errorJSON
	default:
		panic(fmt.Sprintf("unknown payload kind: %q", kind))
	}
}

// ToJSON encodes an envelope for transport.
func ToJSON(event Envelope) ([]byte, error) {
	switch msg := event.(type) {
	case Message[UserQuery]:
		return msg.MarshalJSON()
	case Message[QueryResponse]:
		return msg.MarshalJSON()
	case Message[AgentStatus]:
		return msg.MarshalJSON()
	case Message[FunctionCall]:
		return msg.MarshalJSON()
	case Message[FunctionResponse]:
		return msg.MarshalJSON()
	case Error:
		return msg.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown message type: %T", event)
	}
}

// FromJSON decodes a transport payload into its concrete envelope, routing on
// the "type" discriminator.
func FromJSON(data []byte) (Envelope, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	switch kind := gjson.GetBytes(data, "type").String(); kind {
	case KindUserQuery:
		var msg Message[UserQuery]
		if err := msg.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return msg, nil
	case KindQueryResponse:
		var msg Message[QueryResponse]
		if err := msg.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return msg, nil
	case KindAgentStatus:
		var msg Message[AgentStatus]
		if err := msg.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return msg, nil
	case KindFunctionCall:
		var msg Message[FunctionCall]
		if err := msg.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return msg, nil
	case KindFunctionResponse:
		var msg Message[FunctionResponse]
		if err := msg.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return msg, nil
	case KindError:
		var msg Error
		if err := msg.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", kind)
	}
}

// MarshalJSON implements custom JSON marshaling for Message[T]
func (m Message[T]) MarshalJSON() ([]byte, error) {
	result := markerFor(m.Payload.kind())

	var err error
	result, err = sjson.SetBytes(result, "id", m.ID.String())
	if err != nil {
		return nil, err
	}

	if m.ConversationID != uuid.Nil {
		result, err = sjson.SetBytes(result, "conversation_id", m.ConversationID.String())
		if err != nil {
			return nil, err
		}
	}

	if m.ParentID != uuid.Nil {
		result, err = sjson.SetBytes(result, "parent_id", m.ParentID.String())
		if err != nil {
			return nil, err
		}
	}

	payloadBytes, err := json.Marshal(m.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "payload", payloadBytes)
	if err != nil {
		return nil, err
	}

	if m.Sender != "" {
		result, err = sjson.SetBytes(result, "sender", m.Sender)
		if err != nil {
			return nil, err
		}
	}

	if m.Recipient != "" {
		result, err = sjson.SetBytes(result, "recipient", m.Recipient)
		if err != nil {
			return nil, err
		}
	}

	if !m.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", m.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	if m.Meta.Exists() {
		result, err = sjson.SetRawBytes(result, "meta", []byte(m.Meta.Raw))
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Message[T]
func (m *Message[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	var zero T
	kind := zero.kind()
	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != kind {
		return fmt.Errorf("missing or invalid type, expected %q", kind)
	}

	id := gjson.GetBytes(data, "id")
	if !id.Exists() {
		return fmt.Errorf("missing required field 'id'")
	}
	if err := m.ID.UnmarshalText([]byte(id.String())); err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}

	if convID := gjson.GetBytes(data, "conversation_id"); convID.Exists() {
		if err := m.ConversationID.UnmarshalText([]byte(convID.String())); err != nil {
			return fmt.Errorf("invalid conversation_id: %w", err)
		}
	}

	if parentID := gjson.GetBytes(data, "parent_id"); parentID.Exists() {
		if err := m.ParentID.UnmarshalText([]byte(parentID.String())); err != nil {
			return fmt.Errorf("invalid parent_id: %w", err)
		}
	}

	payload := gjson.GetBytes(data, "payload")
	if !payload.Exists() {
		return fmt.Errorf("missing required field 'payload'")
	}
	if err := json.Unmarshal([]byte(payload.Raw), &m.Payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	if sender := gjson.GetBytes(data, "sender"); sender.Exists() {
		m.Sender = sender.String()
	}

	if recipient := gjson.GetBytes(data, "recipient"); recipient.Exists() {
		m.Recipient = recipient.String()
	}

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := m.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	if meta := gjson.GetBytes(data, "meta"); meta.Exists() {
		m.Meta = meta
	}

	return nil
}

func unixSeconds(dt strfmt.DateTime) float64 {
	t := time.Time(dt)
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnixSeconds(secs float64) strfmt.DateTime {
	sec, frac := math.Modf(secs)
	return strfmt.DateTime(time.Unix(int64(sec), int64(math.Round(frac*float64(time.Second)))).UTC())
}

// MarshalJSON implements custom JSON marshaling for QueryResponse. The
// timestamp is written as unix seconds, matching the wire schema of peers
// that do not speak RFC3339.
func (q QueryResponse) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(objectJSON, "query_id", q.QueryID)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "user_id", q.UserID)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "response", q.Response)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "status", string(q.Status))
	if err != nil {
		return nil, err
	}

	if !q.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", unixSeconds(q.Timestamp))
		if err != nil {
			return nil, err
		}
	}

	result, err = sjson.SetBytes(result, "processing_agent", q.ProcessingAgent)
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for QueryResponse
func (q *QueryResponse) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	queryID := gjson.GetBytes(data, "query_id")
	if !queryID.Exists() {
		return fmt.Errorf("missing required field 'query_id'")
	}
	q.QueryID = queryID.String()

	userID := gjson.GetBytes(data, "user_id")
	if !userID.Exists() {
		return fmt.Errorf("missing required field 'user_id'")
	}
	q.UserID = userID.String()

	response := gjson.GetBytes(data, "response")
	if !response.Exists() {
		return fmt.Errorf("missing required field 'response'")
	}
	q.Response = response.String()

	status := gjson.GetBytes(data, "status")
	if !status.Exists() {
		return fmt.Errorf("missing required field 'status'")
	}
	q.Status = Status(status.String())

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		q.Timestamp = fromUnixSeconds(timestamp.Float())
	}

	if agent := gjson.GetBytes(data, "processing_agent"); agent.Exists() {
		q.ProcessingAgent = agent.String()
	}

	return nil
}

// UnmarshalJSON implements custom JSON unmarshaling for FunctionResponse.
// The result union is routed on its "type" key.
func (f *FunctionResponse) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	name := gjson.GetBytes(data, "name")
	if !name.Exists() {
		return fmt.Errorf("missing required field 'name'")
	}
	f.Name = name.String()

	result := gjson.GetBytes(data, "result")
	if !result.Exists() || result.Type == gjson.Null {
		f.Result = nil
		return nil
	}

	switch tpe := result.Get("type").String(); tpe {
	case "text":
		var content TextContent
		if err := content.UnmarshalJSON([]byte(result.Raw)); err != nil {
			return fmt.Errorf("invalid text result: %w", err)
		}
		f.Result = content
	case "error":
		var content ErrorContent
		if err := content.UnmarshalJSON([]byte(result.Raw)); err != nil {
			return fmt.Errorf("invalid error result: %w", err)
		}
		f.Result = content
	default:
		return fmt.Errorf("function result has an unknown type %q", tpe)
	}

	return nil
}

var tcJSON = []byte(`{"type":"text"}`)

// MarshalJSON implements json.Marshaler for TextContent.
// Serializes the text with a "type":"text" field.
func (t TextContent) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(tcJSON, "text", t.Text)
}

// UnmarshalJSON implements json.Unmarshaler for TextContent.
// Validates and extracts the required 'text' field from the JSON input.
func (t *TextContent) UnmarshalJSON(input []byte) error {
	text := gjson.GetBytes(input, "text")
	if !text.Exists() {
		return errors.New("missing required field 'text'")
	}
	t.Text = text.String()
	return nil
}

var ecJSON = []byte(`{"type":"error"}`)

// MarshalJSON implements json.Marshaler for ErrorContent.
// Serializes the detail with a "type":"error" field.
func (e ErrorContent) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(ecJSON, "error", e.Detail)
}

// UnmarshalJSON implements json.Unmarshaler for ErrorContent.
// Validates and extracts the required 'error' field from the JSON input.
func (e *ErrorContent) UnmarshalJSON(input []byte) error {
	detail := gjson.GetBytes(input, "error")
	if !detail.Exists() {
		return errors.New("missing required field 'error'")
	}
	e.Detail = detail.String()
	return nil
}

// MarshalJSON implements custom JSON marshaling for Error
func (e Error) MarshalJSON() ([]byte, error) {
	result := errorJSON

	var err error
	if e.QueryID != "" {
		result, err = sjson.SetBytes(result, "query_id", e.QueryID)
		if err != nil {
			return nil, err
		}
	}

	if e.Err != nil {
		result, err = sjson.SetBytes(result, "error", e.Err.Error())
		if err != nil {
			return nil, err
		}
	}

	if e.Sender != "" {
		result, err = sjson.SetBytes(result, "sender", e.Sender)
		if err != nil {
			return nil, err
		}
	}

	if !e.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", e.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Error
func (e *Error) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != KindError {
		return fmt.Errorf("missing or invalid type, expected %q", KindError)
	}

	errMsg := gjson.GetBytes(data, "error")
	if !errMsg.Exists() {
		return errors.New("missing required field 'error'")
	}
	e.Err = errors.New(errMsg.String())

	if queryID := gjson.GetBytes(data, "query_id"); queryID.Exists() {
		e.QueryID = queryID.String()
	}

	if sender := gjson.GetBytes(data, "sender"); sender.Exists() {
		e.Sender = sender.String()
	}

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := e.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}
