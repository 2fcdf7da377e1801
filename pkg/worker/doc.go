// Package worker consumes queued notifications in batches and delivers them
// as email.
//
// Each message flows through the same pipeline: parse the payload, mark the
// notification PROCESSING, render the email, hand it to the provider, then
// mark it SENT with the provider's message id. Messages fail independently;
// the batch result lists only the failed ones so the rest can be
// acknowledged. Failed messages return to the queue after the visibility
// timeout and are retried until the queue dead-letters them.
package worker
