// Package mailer abstracts the email delivery provider behind the Sender
// interface so the delivery pipeline can swap providers without code
// changes: Postmark for transactional sending, Amazon SES, or a development
// sender that writes emails to disk.
//
// Send returns the provider-assigned message id, which the pipeline records
// on the notification's status record as the delivery confirmation.
package mailer
