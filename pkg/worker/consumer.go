package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/edulor/notifier/pkg/mailer"
	"github.com/edulor/notifier/pkg/notification"
	"github.com/edulor/notifier/pkg/queue"
	"github.com/edulor/notifier/pkg/render"
	"github.com/edulor/notifier/pkg/status"
)

// Config holds the batch consumption knobs. Defaults mirror the production
// event source: batches of 5 gathered within a 30 second window.
type Config struct {
	BatchSize int           `env:"WORKER_BATCH_SIZE" envDefault:"5"`   // BatchSize is the maximum messages per batch.
	BatchWait time.Duration `env:"WORKER_BATCH_WAIT" envDefault:"30s"` // BatchWait bounds how long a batch gathers before processing.
}

// Consumer drains the notification queue in batches, delivering each message
// independently so one bad message never fails its batch. It performs no
// retries of its own: a failed message is simply left unacknowledged and the
// queue's visibility timeout brings it back.
type Consumer struct {
	queue  queue.Queue
	store  status.Store
	sender mailer.Sender

	batchSize   int
	batchWait   time.Duration
	defaultFrom string
	logger      *slog.Logger
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithBatchSize sets the maximum number of messages per batch.
func WithBatchSize(n int) Option {
	if n <= 0 {
		panic("WithBatchSize: size must be > 0")
	}
	return func(c *Consumer) { c.batchSize = n }
}

// WithBatchWait sets the window a batch gathers within.
func WithBatchWait(d time.Duration) Option {
	if d < 0 {
		panic("WithBatchWait: duration must be >= 0")
	}
	return func(c *Consumer) { c.batchWait = d }
}

// WithDefaultSender sets the from address used when a notification carries
// none.
func WithDefaultSender(addr string) Option {
	return func(c *Consumer) { c.defaultFrom = addr }
}

// WithLogger supplies the consumer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConsumer creates a Consumer over the given queue, status store and
// delivery provider.
func NewConsumer(q queue.Queue, store status.Store, sender mailer.Sender, opts ...Option) (*Consumer, error) {
	if q == nil {
		return nil, ErrQueueNil
	}
	if store == nil {
		return nil, ErrStoreNil
	}
	if sender == nil {
		return nil, ErrSenderNil
	}

	c := &Consumer{
		queue:     q,
		store:     store,
		sender:    sender,
		batchSize: 5,
		batchWait: 30 * time.Second,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run consumes batches until the context is canceled. A transport-level
// receive failure retries the whole batch receive after logging; nothing was
// consumed, so nothing is lost.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msgs, err := c.queue.Receive(ctx, c.batchSize, c.batchWait)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to receive batch", slog.String("error", err.Error()))
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(msgs) == 0 {
			continue
		}

		result := c.ProcessBatch(ctx, msgs)

		// Acknowledge everything that succeeded; failed messages stay on
		// the queue and become visible again for redelivery.
		for _, msg := range msgs {
			if result.Failed(msg.ID) {
				continue
			}
			if err := c.queue.Delete(ctx, msg); err != nil {
				c.logger.Error("failed to acknowledge message",
					slog.String("message_id", msg.ID),
					slog.String("error", err.Error()))
			}
		}
	}
}

// ProcessBatch delivers every message in the batch independently and reports
// which ones failed. Messages absent from the result were processed
// successfully and may be acknowledged.
func (c *Consumer) ProcessBatch(ctx context.Context, msgs []queue.Message) BatchResult {
	var result BatchResult
	for _, msg := range msgs {
		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("failed to process message",
				slog.String("message_id", msg.ID),
				slog.Int("receive_count", msg.ReceiveCount),
				slog.String("error", err.Error()))
			result.Failures = append(result.Failures, ItemFailure{ItemIdentifier: msg.ID})
			continue
		}
		c.logger.Info("notification delivered",
			slog.String("message_id", msg.ID))
	}
	return result
}

// processMessage runs the per-message pipeline: parse, mark PROCESSING,
// render, send, mark SENT. Each stage returns early on failure so the error
// stays attributable to where it happened.
func (c *Consumer) processMessage(ctx context.Context, msg queue.Message) error {
	n, err := notification.ParsePayload(msg.Body)
	if err != nil {
		// The key may be unrecoverable from a malformed payload, so no
		// status write is attempted.
		return err
	}
	key := n.Key()

	if err := c.store.Update(ctx, key, status.Update{Status: status.StatusProcessing}); err != nil {
		return c.recordError(ctx, key, errors.Join(ErrStatusWrite, err))
	}

	rendered := render.Render(render.Params{
		Subject:    n.Subject,
		Message:    n.Message,
		ButtonText: n.ButtonText,
	})

	from := c.defaultFrom
	if n.From != nil && *n.From != "" {
		from = *n.From
	}

	messageID, err := c.sender.Send(ctx, mailer.Email{
		From:    from,
		To:      n.To,
		Subject: n.Subject,
		Text:    rendered.Text,
		HTML:    rendered.HTML,
	})
	if err != nil {
		return c.recordError(ctx, key, errors.Join(ErrDelivery, err))
	}

	if err := c.store.Update(ctx, key, status.Update{
		Status:    status.StatusSent,
		MessageID: &messageID,
	}); err != nil {
		// The email went out but the confirmation write failed; the
		// message stays failed and redelivery may resend. At-least-once
		// delivery accepts this.
		return c.recordError(ctx, key, errors.Join(ErrStatusWrite, err))
	}

	return nil
}

// recordError writes the ERROR status with the failure detail. Status
// persistence is best-effort on the failure path: a second failure while
// recording the first is logged and swallowed, and the original cause is
// returned either way so the message is marked failed.
func (c *Consumer) recordError(ctx context.Context, key status.Key, cause error) error {
	detail := cause.Error()
	if err := c.store.Update(ctx, key, status.Update{
		Status:       status.StatusError,
		ErrorMessage: &detail,
	}); err != nil {
		c.logger.Error("failed to record delivery error",
			slog.String("notification_id", key.ID),
			slog.String("error", err.Error()))
	}
	return cause
}
