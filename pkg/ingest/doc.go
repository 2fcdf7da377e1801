// Package ingest exposes the HTTP API that accepts email notification
// requests.
//
// POST /notify/email validates the request, assigns it an id and timestamp,
// and publishes it to the delivery queue. The response confirms queueing
// only; actual delivery happens asynchronously and is tracked in the status
// store by the worker.
package ingest
