package messages

import (
	"fmt"

	"github.com/go-openapi/strfmt"
)

// Error is a failure that crosses the broker without losing its query
// context. It is both an Envelope and a Go error.
type Error struct {
	QueryID   string          `json:"query_id,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	Err       error           `json:"error"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Error) envelope() {}

func (e Error) Error() string {
	errStr := "<nil>"
	if e.Err != nil {
		errStr = e.Err.Error()
	}
	if e.QueryID == "" {
		return errStr
	}
	return fmt.Sprintf("%s query_id=%s", errStr, e.QueryID)
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e Error) Unwrap() error {
	return e.Err
}
