package queue

import "errors"

var (
	// ErrPublishFailed is returned when a payload cannot be enqueued.
	ErrPublishFailed = errors.New("queue: publish failed")

	// ErrReceiveFailed is returned when a batch receive fails at the
	// transport level. The whole batch is retried by the caller's loop.
	ErrReceiveFailed = errors.New("queue: receive failed")

	// ErrDeleteFailed is returned when a message acknowledgment fails.
	ErrDeleteFailed = errors.New("queue: delete failed")

	// ErrMessageNotFound is returned when deleting a message that is no
	// longer in the queue.
	ErrMessageNotFound = errors.New("queue: message not found")

	// ErrInvalidConfig is returned when a backend is constructed with
	// incomplete configuration.
	ErrInvalidConfig = errors.New("queue: invalid configuration")

	// ErrFailedToConnect is returned when the backing store for a queue is
	// unreachable during construction.
	ErrFailedToConnect = errors.New("queue: failed to connect")

	// ErrMigrationFailed is returned when applying queue schema migrations
	// fails.
	ErrMigrationFailed = errors.New("queue: migration failed")
)
