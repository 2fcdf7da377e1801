package worker

import "errors"

var (
	// ErrQueueNil is returned when the consumer is created without a queue.
	ErrQueueNil = errors.New("queue cannot be nil")
	// ErrStoreNil is returned when the consumer is created without a status store.
	ErrStoreNil = errors.New("status store cannot be nil")
	// ErrSenderNil is returned when the consumer is created without a sender.
	ErrSenderNil = errors.New("sender cannot be nil")
	// ErrStatusWrite indicates a status store write failed during processing.
	ErrStatusWrite = errors.New("failed to update notification status")
	// ErrDelivery indicates the email provider rejected or failed the send.
	ErrDelivery = errors.New("failed to deliver email")
)
