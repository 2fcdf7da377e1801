package status

import "errors"

var (
	// ErrUpdateFailed is returned when a status write does not reach the
	// backing store.
	ErrUpdateFailed = errors.New("status: update failed")

	// ErrFailedToConnect is returned when the store backend is unreachable
	// during construction.
	ErrFailedToConnect = errors.New("status: failed to connect to store")
)
