package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulor/notifier/pkg/queue"
)

func TestMemoryQueue_PublishReceiveDelete(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	ctx := context.Background()

	id, err := q.Publish(ctx, []byte(`{"id":"n-1"}`))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs, err := q.Receive(ctx, 5, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)
	assert.Equal(t, []byte(`{"id":"n-1"}`), msgs[0].Body)
	assert.Equal(t, 1, msgs[0].ReceiveCount)

	require.NoError(t, q.Delete(ctx, msgs[0]))
	assert.Equal(t, 0, q.Depth())

	assert.ErrorIs(t, q.Delete(ctx, msgs[0]), queue.ErrMessageNotFound)
}

func TestMemoryQueue_VisibilityTimeout(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue(
		queue.WithVisibilityTimeout(40*time.Millisecond),
		queue.WithPollInterval(5*time.Millisecond),
	)
	ctx := context.Background()

	_, err := q.Publish(ctx, []byte("payload"))
	require.NoError(t, err)

	first, err := q.Receive(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Within the window the message is invisible.
	hidden, err := q.Receive(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, hidden)

	// After the window lapses without an ack it is redelivered with a
	// bumped receive count.
	time.Sleep(60 * time.Millisecond)
	second, err := q.Receive(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 2, second[0].ReceiveCount)
}

func TestMemoryQueue_DeadLetterAfterMaxReceives(t *testing.T) {
	t.Parallel()

	dlq := queue.NewMemoryQueue()
	q := queue.NewMemoryQueue(
		queue.WithVisibilityTimeout(10*time.Millisecond),
		queue.WithMaxReceiveCount(3),
		queue.WithDLQ(dlq),
	)
	ctx := context.Background()

	id, err := q.Publish(ctx, []byte("poison"))
	require.NoError(t, err)

	// Three deliveries, none acknowledged.
	for attempt := 1; attempt <= 3; attempt++ {
		msgs, err := q.Receive(ctx, 1, 0)
		require.NoError(t, err)
		require.Len(t, msgs, 1, "attempt %d should deliver", attempt)
		assert.Equal(t, attempt, msgs[0].ReceiveCount)
		time.Sleep(20 * time.Millisecond)
	}

	// The fourth attempt must not deliver; the message is dead-lettered.
	msgs, err := q.Receive(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, 0, q.Depth())
	require.Equal(t, 1, dlq.Depth())

	dead, err := dlq.Receive(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, id, dead[0].ID)
	assert.Equal(t, []byte("poison"), dead[0].Body)
}

func TestMemoryQueue_BatchGathering(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue(queue.WithPollInterval(5 * time.Millisecond))
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := q.Publish(ctx, []byte("x"))
		require.NoError(t, err)
	}

	batch, err := q.Receive(ctx, 5, 0)
	require.NoError(t, err)
	assert.Len(t, batch, 5, "batch is capped at max")

	rest, err := q.Receive(ctx, 5, 0)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestMemoryQueue_ReceiveWaitsForWindow(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue(queue.WithPollInterval(5 * time.Millisecond))
	ctx := context.Background()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = q.Publish(context.Background(), []byte("late"))
	}()

	start := time.Now()
	msgs, err := q.Receive(ctx, 1, 200*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Less(t, time.Since(start), 200*time.Millisecond,
		"receive returns as soon as the batch fills")
}

func TestMemoryQueue_RetentionDropsStaleMessages(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue(queue.WithRetention(20 * time.Millisecond))
	ctx := context.Background()

	_, err := q.Publish(ctx, []byte("stale"))
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)

	msgs, err := q.Receive(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, 0, q.Depth())
}
