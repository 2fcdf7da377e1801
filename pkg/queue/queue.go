package queue

import (
	"context"
	"time"
)

// Message is the transport envelope for one queued notification. It is owned
// by the queue: consumers borrow it for a single processing attempt and must
// either Delete it or let the visibility window lapse for redelivery.
type Message struct {
	// ID is the transport-assigned message identifier, used as the item
	// identifier when reporting partial batch failures.
	ID string

	// ReceiptHandle acknowledges this specific delivery. Equal to ID on
	// backends without separate receipts.
	ReceiptHandle string

	// Body is the serialized notification payload.
	Body []byte

	// ReceiveCount is how many times this message has been delivered,
	// including the current attempt.
	ReceiveCount int
}

// Queue is an at-least-once, unordered message transport with
// visibility-timeout redelivery and a bounded receive count.
//
// Receive hides returned messages from other consumers for the configured
// visibility window. A message whose delivery would exceed the maximum
// receive count is routed to the dead-letter queue instead of being returned.
// Ordering across messages is not guaranteed.
type Queue interface {
	// Publish enqueues a payload and returns the transport message id.
	Publish(ctx context.Context, body []byte) (string, error)

	// Receive returns up to max messages, waiting up to the given window
	// for the batch to fill. It may return fewer messages, or none.
	Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error)

	// Delete acknowledges a received message, removing it permanently.
	Delete(ctx context.Context, msg Message) error
}

// Config holds the delivery-contract knobs shared by queue backends.
// Defaults mirror the production topology: 5 minute visibility, three
// deliveries before dead-lettering, 4 day retention and 14 day DLQ retention.
type Config struct {
	Driver            string        `env:"QUEUE_DRIVER" envDefault:"memory"`           // Driver selects the backend: memory, sqs or postgres.
	VisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT" envDefault:"300s"` // VisibilityTimeout hides received messages pending acknowledgment.
	MaxReceiveCount   int           `env:"QUEUE_MAX_RECEIVE_COUNT" envDefault:"3"`     // MaxReceiveCount is the delivery ceiling before dead-lettering.
	Retention         time.Duration `env:"QUEUE_RETENTION" envDefault:"96h"`           // Retention drops unprocessed messages after this period.
	DLQRetention      time.Duration `env:"QUEUE_DLQ_RETENTION" envDefault:"336h"`      // DLQRetention keeps dead-lettered messages longer for manual recovery.
}

// settings are the per-backend delivery parameters, populated from Config
// via options.
type settings struct {
	visibilityTimeout time.Duration
	maxReceiveCount   int
	retention         time.Duration
	dlqRetention      time.Duration
	pollInterval      time.Duration
	dlq               *MemoryQueue
}

func defaultSettings() settings {
	return settings{
		visibilityTimeout: 300 * time.Second,
		maxReceiveCount:   3,
		retention:         96 * time.Hour,
		dlqRetention:      336 * time.Hour,
		pollInterval:      time.Second,
	}
}

// Option configures a queue backend.
type Option func(*settings)

// WithVisibilityTimeout sets the window during which a received message is
// hidden from other consumers.
func WithVisibilityTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithVisibilityTimeout: duration must be > 0")
	}
	return func(s *settings) { s.visibilityTimeout = d }
}

// WithMaxReceiveCount sets the delivery ceiling after which messages are
// dead-lettered.
func WithMaxReceiveCount(n int) Option {
	if n <= 0 {
		panic("WithMaxReceiveCount: count must be > 0")
	}
	return func(s *settings) { s.maxReceiveCount = n }
}

// WithRetention sets how long unprocessed messages are kept.
func WithRetention(d time.Duration) Option {
	if d <= 0 {
		panic("WithRetention: duration must be > 0")
	}
	return func(s *settings) { s.retention = d }
}

// WithDLQRetention sets how long dead-lettered messages are kept.
func WithDLQRetention(d time.Duration) Option {
	if d <= 0 {
		panic("WithDLQRetention: duration must be > 0")
	}
	return func(s *settings) { s.dlqRetention = d }
}

// WithPollInterval sets how often polling backends re-check for visible
// messages while gathering a batch.
func WithPollInterval(d time.Duration) Option {
	if d <= 0 {
		panic("WithPollInterval: duration must be > 0")
	}
	return func(s *settings) { s.pollInterval = d }
}

// FromConfig expands a Config into the equivalent options.
func FromConfig(cfg Config) []Option {
	return []Option{
		WithVisibilityTimeout(cfg.VisibilityTimeout),
		WithMaxReceiveCount(cfg.MaxReceiveCount),
		WithRetention(cfg.Retention),
		WithDLQRetention(cfg.DLQRetention),
	}
}
