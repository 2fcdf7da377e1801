package ingest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulor/notifier/pkg/ingest"
	"github.com/edulor/notifier/pkg/notification"
	"github.com/edulor/notifier/pkg/queue"
	"github.com/edulor/notifier/pkg/status"
)

type failingQueue struct {
	err error
}

func (f *failingQueue) Publish(ctx context.Context, body []byte) (string, error) {
	return "", f.err
}

func (f *failingQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]queue.Message, error) {
	return nil, nil
}

func (f *failingQueue) Delete(ctx context.Context, msg queue.Message) error {
	return nil
}

func newServer(t *testing.T, q queue.Queue, opts ...ingest.Option) *httptest.Server {
	t.Helper()
	h, err := ingest.NewHandler(q, opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/notify/email", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHandler_NotifyEmail(t *testing.T) {
	t.Parallel()

	t.Run("queues valid request", func(t *testing.T) {
		t.Parallel()

		q := queue.NewMemoryQueue()
		srv := newServer(t, q)

		resp, body := postJSON(t, srv, `{"to":"user@example.com","subject":"Welcome","message":"Hello there"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Notification queued successfully", body["message"])
		assert.NotEmpty(t, body["notificationId"])
		assert.NotEmpty(t, body["messageId"])

		msgs, err := q.Receive(context.Background(), 1, 0)
		require.NoError(t, err)
		require.Len(t, msgs, 1)

		n, err := notification.ParsePayload(msgs[0].Body)
		require.NoError(t, err)
		assert.Equal(t, body["notificationId"], n.ID)
		assert.Equal(t, notification.TypeEmail, n.Type)
		assert.Equal(t, "user@example.com", n.To)
		assert.Equal(t, "Welcome", n.Subject)
		assert.Equal(t, "Hello there", n.Message)
		assert.Nil(t, n.From)
		assert.Equal(t, status.StatusQueued, n.Status)

		_, err = time.Parse(time.RFC3339, n.Timestamp)
		assert.NoError(t, err)
	})

	t.Run("carries optional from and buttonText", func(t *testing.T) {
		t.Parallel()

		q := queue.NewMemoryQueue()
		srv := newServer(t, q)

		resp, _ := postJSON(t, srv, `{"to":"user@example.com","subject":"Welcome","message":"Hello","from":"support@edulor.fr","buttonText":"Open course"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		msgs, err := q.Receive(context.Background(), 1, 0)
		require.NoError(t, err)
		require.Len(t, msgs, 1)

		n, err := notification.ParsePayload(msgs[0].Body)
		require.NoError(t, err)
		require.NotNil(t, n.From)
		assert.Equal(t, "support@edulor.fr", *n.From)
		assert.Equal(t, "Open course", n.ButtonText)
	})

	t.Run("missing body", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, queue.NewMemoryQueue())
		resp, body := postJSON(t, srv, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Missing request body", body["message"])
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, queue.NewMemoryQueue())
		resp, body := postJSON(t, srv, `{"to": "user@example.com",`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid JSON in request body", body["message"])
	})

	t.Run("missing fields listed in order", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, queue.NewMemoryQueue())
		resp, body := postJSON(t, srv, `{"subject":"Welcome"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Missing required fields: to, message", body["message"])
	})

	t.Run("empty string still counts as provided", func(t *testing.T) {
		t.Parallel()

		q := queue.NewMemoryQueue()
		srv := newServer(t, q)

		resp, _ := postJSON(t, srv, `{"to":"","subject":"Welcome","message":"Hello"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("publish failure", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &failingQueue{err: queue.ErrPublishFailed})
		resp, body := postJSON(t, srv, `{"to":"user@example.com","subject":"Welcome","message":"Hello"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, body["message"], "Error processing notification request:")
	})
}

func TestHandler_UniqueIdentityPerRequest(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	srv := newServer(t, q)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		resp, body := postJSON(t, srv, `{"to":"user@example.com","subject":"Welcome","message":"Hello"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		id := body["notificationId"].(string)
		assert.False(t, seen[id], "notification ids must be unique")
		seen[id] = true
	}
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	srv := newServer(t, queue.NewMemoryQueue())
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
