package ingest_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulor/notifier/pkg/ingest"
	"github.com/edulor/notifier/pkg/mailer"
	"github.com/edulor/notifier/pkg/queue"
	"github.com/edulor/notifier/pkg/status"
	"github.com/edulor/notifier/pkg/worker"
)

// capturingSender records sent emails for assertions.
type capturingSender struct {
	mu     sync.Mutex
	emails []mailer.Email
}

func (c *capturingSender) Send(ctx context.Context, email mailer.Email) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emails = append(c.emails, email)
	return "provider-msg-1", nil
}

func (c *capturingSender) sent() []mailer.Email {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]mailer.Email, len(c.emails))
	copy(out, c.emails)
	return out
}

// End-to-end over in-memory backends: a request posted to the API flows
// through the queue and the worker, ends up SENT with the provider message
// id, and the link in the message body becomes a single CTA button.
func TestPipeline_IngestToDelivery(t *testing.T) {
	t.Parallel()

	ingestedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	q := queue.NewMemoryQueue(queue.WithPollInterval(5 * time.Millisecond))
	store := status.NewMemoryStore()
	sender := &capturingSender{}
	srv := newServer(t, q,
		ingest.WithClock(func() time.Time { return ingestedAt }),
		ingest.WithIDGenerator(func() string { return "notif-e2e" }))

	consumer, err := worker.NewConsumer(q, store, sender,
		worker.WithDefaultSender("noreply@edulor.fr"),
		worker.WithBatchWait(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	resp, body := postJSON(t, srv, `{"to":"user@example.com","subject":"Welcome","message":"Your course is ready.\nVisit https://edulor.fr/courses/42 to start."}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "notif-e2e", body["notificationId"])

	key := status.Key{ID: "notif-e2e", Timestamp: ingestedAt.Format(time.RFC3339)}
	require.Eventually(t, func() bool {
		rec, ok := store.Get(key)
		return ok && rec.Status == status.StatusSent && len(sender.sent()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec, _ := store.Get(key)
	assert.Equal(t, "provider-msg-1", rec.MessageID)
	assert.Equal(t, []status.Status{status.StatusProcessing, status.StatusSent}, store.History(key))

	email := sender.sent()[0]
	assert.Equal(t, "noreply@edulor.fr", email.From)
	assert.Equal(t, "user@example.com", email.To)
	assert.Equal(t, 1, strings.Count(email.HTML, "Click here"))
	assert.Contains(t, email.HTML, `href="https://edulor.fr/courses/42"`)
	assert.NotContains(t, email.HTML, "Visit https://edulor.fr/courses/42")

	require.Eventually(t, func() bool {
		return q.Depth() == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
