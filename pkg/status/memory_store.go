package status

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development. Besides
// the plain records it keeps the full sequence of statuses written per key so
// tests can assert lifecycle ordering.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Key]Record
	history map[Key][]Status

	// failNext, when set, makes the next Update calls return the error.
	failNext error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[Key]Record),
		history: make(map[Key][]Status),
	}
}

// Update implements Store with upsert, last-writer-wins semantics.
func (ms *MemoryStore) Update(ctx context.Context, key Key, upd Update) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.failNext != nil {
		return ms.failNext
	}

	rec, ok := ms.records[key]
	if !ok {
		rec = Record{ID: key.ID, Timestamp: key.Timestamp}
	}

	rec.Status = upd.Status
	rec.UpdatedAt = time.Now().UTC()
	if upd.MessageID != nil {
		rec.MessageID = *upd.MessageID
	}
	if upd.ErrorMessage != nil {
		rec.ErrorMessage = *upd.ErrorMessage
	}

	ms.records[key] = rec
	ms.history[key] = append(ms.history[key], upd.Status)
	return nil
}

// Get returns the current record for a key.
func (ms *MemoryStore) Get(key Key) (Record, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	rec, ok := ms.records[key]
	return rec, ok
}

// History returns every status written for a key, in write order.
func (ms *MemoryStore) History(key Key) []Status {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make([]Status, len(ms.history[key]))
	copy(out, ms.history[key])
	return out
}

// FailWith makes subsequent Update calls return err. Pass nil to restore
// normal behavior.
func (ms *MemoryStore) FailWith(err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.failNext = err
}
