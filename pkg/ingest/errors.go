package ingest

import "errors"

// ErrQueueNil is returned when the handler is created without a queue.
var ErrQueueNil = errors.New("queue cannot be nil")
