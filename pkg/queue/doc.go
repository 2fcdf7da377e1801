// Package queue provides the durable transport for the notification
// pipeline: at-least-once, unordered delivery with visibility-timeout
// redelivery and a bounded receive count, beyond which messages are routed
// to a dead-letter queue for manual recovery.
//
// Three backends implement the same Queue interface:
//
//   - MemoryQueue: in-process, for tests and local development. Enforces
//     the full contract itself, including dead-lettering into a second
//     MemoryQueue.
//   - SQSQueue: Amazon SQS. The receive ceiling, dead-lettering and
//     retention are enforced broker-side via the queue's redrive policy.
//   - PostgresQueue: a Postgres table claimed with FOR UPDATE SKIP LOCKED,
//     with dead-lettering into a companion table. Schema is managed by
//     embedded goose migrations.
//
// The visibility timeout is a lease, not a lock: a consumer that outlives
// its window races the redelivery, and the status store's last-writer-wins
// semantics absorb the resulting duplicate processing.
package queue
