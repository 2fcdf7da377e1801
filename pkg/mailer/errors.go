package mailer

import "errors"

var (
	// ErrInvalidConfig is returned when a sender is constructed with
	// incomplete configuration.
	ErrInvalidConfig = errors.New("mailer: invalid configuration")

	// ErrInvalidEmail is returned when an email fails pre-send validation.
	ErrInvalidEmail = errors.New("mailer: invalid email")

	// ErrSendFailed is returned when the delivery provider rejects or fails
	// the send.
	ErrSendFailed = errors.New("mailer: send failed")
)
