package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue is an in-memory Queue for tests and local development. It
// implements the full delivery contract: visibility timeouts, receive-count
// tracking, retention-based expiry and dead-lettering into a second
// MemoryQueue acting as the DLQ.
type MemoryQueue struct {
	mu       sync.Mutex
	messages map[string]*memoryMessage
	order    []string

	cfg settings
	dlq *MemoryQueue
}

type memoryMessage struct {
	id           string
	body         []byte
	receiveCount int
	visibleAt    time.Time
	enqueuedAt   time.Time
}

// NewMemoryQueue creates an in-memory queue. Attach a DLQ with WithDLQ; a
// queue without one silently drops messages that exceed the receive ceiling.
func NewMemoryQueue(opts ...Option) *MemoryQueue {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryQueue{
		messages: make(map[string]*memoryMessage),
		cfg:      cfg,
		dlq:      cfg.dlq,
	}
}

// WithDLQ routes messages exceeding the receive ceiling into dlq. Only the
// in-memory backend honors it; SQS and Postgres manage their own DLQs.
func WithDLQ(dlq *MemoryQueue) Option {
	if dlq == nil {
		panic("WithDLQ: nil queue")
	}
	return func(s *settings) { s.dlq = dlq }
}

// Publish implements Queue.
func (q *MemoryQueue) Publish(ctx context.Context, body []byte) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := uuid.New().String()
	bodyCopy := make([]byte, len(body))
	copy(bodyCopy, body)

	now := time.Now()
	q.messages[id] = &memoryMessage{
		id:         id,
		body:       bodyCopy,
		visibleAt:  now,
		enqueuedAt: now,
	}
	q.order = append(q.order, id)
	return id, nil
}

// Receive implements Queue. With a zero wait it returns whatever is visible
// right now; otherwise it keeps gathering until the batch is full or the
// window lapses.
func (q *MemoryQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	deadline := time.Now().Add(wait)

	var batch []Message
	for {
		batch = append(batch, q.claim(max-len(batch))...)
		if len(batch) >= max || !time.Now().Before(deadline) {
			return batch, nil
		}

		select {
		case <-ctx.Done():
			return batch, ctx.Err()
		case <-time.After(q.cfg.pollInterval):
		}
	}
}

// claim pulls up to limit visible messages, incrementing receive counts and
// hiding claimed messages for the visibility window. Messages whose delivery
// would exceed the receive ceiling are moved to the DLQ instead of returned.
func (q *MemoryQueue) claim(limit int) []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	var batch []Message
	var keep []string

	for _, id := range q.order {
		msg, ok := q.messages[id]
		if !ok {
			continue
		}

		// Retention expiry drops the message silently.
		if now.Sub(msg.enqueuedAt) > q.cfg.retention {
			delete(q.messages, id)
			continue
		}

		if len(batch) >= limit || msg.visibleAt.After(now) {
			keep = append(keep, id)
			continue
		}

		msg.receiveCount++
		if msg.receiveCount > q.cfg.maxReceiveCount {
			if q.dlq != nil {
				q.dlq.redrive(msg)
			}
			delete(q.messages, id)
			continue
		}

		msg.visibleAt = now.Add(q.cfg.visibilityTimeout)
		keep = append(keep, id)
		batch = append(batch, Message{
			ID:            msg.id,
			ReceiptHandle: msg.id,
			Body:          msg.body,
			ReceiveCount:  msg.receiveCount,
		})
	}

	q.order = keep
	return batch
}

// redrive places a dead message into this queue, preserving its id and body.
// Dead-lettered messages are never redelivered from here automatically.
func (q *MemoryQueue) redrive(msg *memoryMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.messages[msg.id] = &memoryMessage{
		id:         msg.id,
		body:       msg.body,
		visibleAt:  time.Now(),
		enqueuedAt: time.Now(),
	}
	q.order = append(q.order, msg.id)
}

// Delete implements Queue.
func (q *MemoryQueue) Delete(ctx context.Context, msg Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.messages[msg.ReceiptHandle]; !ok {
		return ErrMessageNotFound
	}
	delete(q.messages, msg.ReceiptHandle)
	return nil
}

// Depth returns the number of messages currently held, visible or not. This
// is the queue-depth metric surface for external monitoring.
func (q *MemoryQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}
