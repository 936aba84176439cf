package uuidx

import "github.com/google/uuid"

// New returns a fresh version 7 UUID. V7 ids are time-ordered, which keeps
// query ids and subscription ids roughly sortable by creation time.
// It panics when the random source fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns a fresh version 7 UUID formatted as a string.
func NewString() string {
	return New().String()
}
