package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/edulor/notifier/pkg/notification"
	"github.com/edulor/notifier/pkg/queue"
	"github.com/edulor/notifier/pkg/status"
)

// Handler accepts email notification requests, validates them and enqueues
// them for asynchronous delivery. Enqueueing is its only side effect; the
// status record is created downstream by the worker.
type Handler struct {
	queue  queue.Queue
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger supplies the handler's logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClock overrides the timestamp source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithIDGenerator overrides the notification id source. Used in tests.
func WithIDGenerator(gen func() string) Option {
	return func(h *Handler) { h.newID = gen }
}

// NewHandler creates an ingestion handler publishing to q.
func NewHandler(q queue.Queue, opts ...Option) (*Handler, error) {
	if q == nil {
		return nil, ErrQueueNil
	}

	h := &Handler{
		queue:  q,
		logger: slog.Default(),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Router returns the ingestion API router.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/notify/email", h.handleNotifyEmail)
	r.Get("/health", h.handleHealth)
	return r
}

type emailRequest struct {
	To         string  `json:"to"`
	Subject    string  `json:"subject"`
	Message    string  `json:"message"`
	From       *string `json:"from"`
	ButtonText string  `json:"buttonText"`
}

type queuedResponse struct {
	Message        string `json:"message"`
	NotificationID string `json:"notificationId"`
	MessageID      string `json:"messageId"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleNotifyEmail(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		respondJSON(w, http.StatusBadRequest, errorResponse{Message: "Missing request body"})
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON in request body"})
		return
	}

	if missing := notification.MissingRequestFields(raw); len(missing) > 0 {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Message: "Missing required fields: " + strings.Join(missing, ", "),
		})
		return
	}

	var req emailRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON in request body"})
		return
	}

	n := notification.Notification{
		ID:         h.newID(),
		Timestamp:  h.now().UTC().Format(time.RFC3339),
		Type:       notification.TypeEmail,
		To:         req.To,
		Subject:    req.Subject,
		Message:    req.Message,
		From:       req.From,
		Status:     status.StatusQueued,
		ButtonText: req.ButtonText,
	}

	payload, err := json.Marshal(n)
	if err != nil {
		h.respondProcessingError(w, n.ID, err)
		return
	}

	messageID, err := h.queue.Publish(r.Context(), payload)
	if err != nil {
		h.respondProcessingError(w, n.ID, err)
		return
	}

	h.logger.Info("notification queued",
		slog.String("notification_id", n.ID),
		slog.String("message_id", messageID))

	respondJSON(w, http.StatusOK, queuedResponse{
		Message:        "Notification queued successfully",
		NotificationID: n.ID,
		MessageID:      messageID,
	})
}

func (h *Handler) respondProcessingError(w http.ResponseWriter, notificationID string, err error) {
	h.logger.Error("failed to queue notification",
		slog.String("notification_id", notificationID),
		slog.String("error", err.Error()))
	respondJSON(w, http.StatusInternalServerError, errorResponse{
		Message: fmt.Sprintf("Error processing notification request: %v", err),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
