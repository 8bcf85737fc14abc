// Package audit records what the import pipeline did: which batches were
// analyzed or committed and with what outcome. Events are ops-grade
// observability, not a compliance trail; losing one never fails the
// business operation.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action identifies what happened.
type Action string

const (
	ActionImportAnalyzed  Action = "import_analyzed"
	ActionImportCommitted Action = "import_committed"
)

// Event is one recorded import operation. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Action    Action    `json:"action"`
	Entity    string    `json:"entity"` // "clients" or "products"
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Analyze outcome counts; zero for commit events.
	Received    int `json:"received,omitempty"`
	New         int `json:"new,omitempty"`
	Current     int `json:"current,omitempty"`
	Conflicting int `json:"conflicting,omitempty"`
	Invalid     int `json:"invalid,omitempty"`

	// Commit outcome counts; zero for analyze events.
	Created  int `json:"created,omitempty"`
	Rejected int `json:"rejected,omitempty"`
}

// Store persists events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
