package status

import (
	"context"
	"time"
)

// Status is a notification lifecycle state.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusProcessing Status = "PROCESSING"
	StatusSent       Status = "SENT"
	StatusError      Status = "ERROR"
)

// transitions encodes the lifecycle state machine. QUEUED is implicit: it is
// carried on the queue payload and only materialized in the store on the
// first worker touch, so a store record may begin life at PROCESSING.
var transitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing},
	StatusProcessing: {StatusSent, StatusError},
}

// CanTransition reports whether moving from one status to another follows the
// lifecycle order. The store itself never enforces this: writes are
// conditionless and last-writer-wins, so concurrent redeliveries of the same
// notification can legally produce out-of-order writes. The helper exists for
// tests and metrics that want to observe ordering within a single attempt.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Key identifies a status record. Both parts are assigned at ingestion and
// immutable afterwards.
type Key struct {
	ID        string
	Timestamp string
}

// Record is the persisted shape of a notification's delivery state.
type Record struct {
	ID           string    `json:"id" bson:"id"`
	Timestamp    string    `json:"timestamp" bson:"timestamp"`
	Status       Status    `json:"status" bson:"status"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
	MessageID    string    `json:"messageId,omitempty" bson:"messageId,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
}

// Update is a conditionless set of attributes to write. MessageID and
// ErrorMessage are only written when non-nil; UpdatedAt is always refreshed
// by the store.
type Update struct {
	Status       Status
	MessageID    *string
	ErrorMessage *string
}

// Store persists notification delivery state keyed by (id, timestamp).
//
// Update performs no read-before-write and no existence check: an update on
// an unknown key creates the record, and concurrent writers resolve to
// whichever write lands last.
type Store interface {
	Update(ctx context.Context, key Key, upd Update) error
}
