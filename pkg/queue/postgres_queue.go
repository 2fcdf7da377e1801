package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig contains connection settings for the Postgres backend.
type PostgresConfig struct {
	ConnectionString string        `env:"QUEUE_PG_URL"`                            // ConnectionString is the connection string to the database.
	MaxOpenConns     int32         `env:"QUEUE_PG_MAX_OPEN_CONNS" envDefault:"10"` // MaxOpenConns is the maximum number of open connections.
	MinConns         int32         `env:"QUEUE_PG_MIN_CONNS" envDefault:"2"`       // MinConns is the minimum number of pooled connections.
	RetryAttempts    int           `env:"QUEUE_PG_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of connection attempts at startup.
	RetryInterval    time.Duration `env:"QUEUE_PG_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval is the wait between connection attempts.
}

// PostgresQueue implements Queue on a Postgres table. Claims use
// FOR UPDATE SKIP LOCKED so concurrent consumers never double-claim within a
// visibility window; dead-lettering moves exhausted messages to a separate
// table that is never read by Receive.
type PostgresQueue struct {
	pool *pgxpool.Pool
	cfg  settings
}

// ConnectPostgres establishes a connection pool with startup retries so the
// service tolerates the database coming up after it.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	if cfg.ConnectionString == "" {
		return nil, ErrInvalidConfig
	}

	connConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	connConfig.MaxConns = cfg.MaxOpenConns
	connConfig.MinConns = cfg.MinConns

	for i := 0; i < cfg.RetryAttempts; i++ {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
	}
	return nil, ErrFailedToConnect
}

// NewPostgresQueue wraps a connection pool. Run MigratePostgres first to
// create the queue tables.
func NewPostgresQueue(pool *pgxpool.Pool, opts ...Option) *PostgresQueue {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &PostgresQueue{pool: pool, cfg: cfg}
}

// Publish implements Queue.
func (q *PostgresQueue) Publish(ctx context.Context, body []byte) (string, error) {
	id := uuid.New().String()
	_, err := q.pool.Exec(ctx,
		`INSERT INTO queue_messages (id, body, receive_count, enqueued_at, visible_at)
		 VALUES ($1, $2, 0, now(), now())`,
		id, body)
	if err != nil {
		return "", errors.Join(ErrPublishFailed, err)
	}
	return id, nil
}

// Receive implements Queue, polling until the batch fills or the wait window
// lapses.
func (q *PostgresQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	deadline := time.Now().Add(wait)

	var batch []Message
	for {
		msgs, err := q.claim(ctx, max-len(batch))
		if err != nil {
			return nil, errors.Join(ErrReceiveFailed, err)
		}
		batch = append(batch, msgs...)
		if len(batch) >= max || !time.Now().Before(deadline) {
			return batch, nil
		}

		select {
		case <-ctx.Done():
			return batch, ctx.Err()
		case <-time.After(q.cfg.pollInterval):
		}
	}
}

// claim atomically claims up to limit visible messages inside one
// transaction: expired messages are purged, claims increment the receive
// count and push the visibility horizon, and claims that exceed the receive
// ceiling are moved to the DLQ table instead of being returned.
func (q *PostgresQueue) claim(ctx context.Context, limit int) ([]Message, error) {
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx,
		`DELETE FROM queue_messages WHERE enqueued_at < now() - make_interval(secs => $1)`,
		q.cfg.retention.Seconds()); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM queue_dlq WHERE failed_at < now() - make_interval(secs => $1)`,
		q.cfg.dlqRetention.Seconds()); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx,
		`WITH next AS (
			SELECT id FROM queue_messages
			WHERE visible_at <= now()
			ORDER BY enqueued_at
			FOR UPDATE SKIP LOCKED
			LIMIT $1
		)
		UPDATE queue_messages m
		SET receive_count = m.receive_count + 1,
		    visible_at = now() + make_interval(secs => $2)
		FROM next
		WHERE m.id = next.id
		RETURNING m.id, m.body, m.receive_count`,
		limit, q.cfg.visibilityTimeout.Seconds())
	if err != nil {
		return nil, err
	}

	var batch []Message
	var dead []string
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.Body, &msg.ReceiveCount); err != nil {
			rows.Close()
			return nil, err
		}
		msg.ReceiptHandle = msg.ID

		if msg.ReceiveCount > q.cfg.maxReceiveCount {
			dead = append(dead, msg.ID)
			continue
		}
		batch = append(batch, msg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(dead) > 0 {
		if _, err := tx.Exec(ctx,
			`WITH moved AS (
				DELETE FROM queue_messages WHERE id = ANY($1)
				RETURNING id, body, receive_count, enqueued_at
			)
			INSERT INTO queue_dlq (id, body, receive_count, enqueued_at, failed_at)
			SELECT id, body, receive_count, enqueued_at, now() FROM moved`,
			dead); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return batch, nil
}

// Delete implements Queue.
func (q *PostgresQueue) Delete(ctx context.Context, msg Message) error {
	tag, err := q.pool.Exec(ctx,
		`DELETE FROM queue_messages WHERE id = $1`, msg.ReceiptHandle)
	if err != nil {
		return errors.Join(ErrDeleteFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Depth returns the number of messages in the main queue.
func (q *PostgresQueue) Depth(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT count(*) FROM queue_messages`)
}

// DLQDepth returns the number of dead-lettered messages.
func (q *PostgresQueue) DLQDepth(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT count(*) FROM queue_dlq`)
}

func (q *PostgresQueue) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := q.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
