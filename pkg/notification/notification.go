package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/edulor/notifier/pkg/status"
)

// TypeEmail is the only notification type the pipeline currently carries.
const TypeEmail = "email"

// ErrMalformedPayload is returned when a queue payload cannot be decoded or
// is missing fields required for delivery.
var ErrMalformedPayload = errors.New("malformed notification payload")

// Notification is the unit of work flowing through the queue. The (ID,
// Timestamp) pair is the immutable identity under which delivery status is
// persisted.
type Notification struct {
	ID         string        `json:"id"`
	Timestamp  string        `json:"timestamp"`
	Type       string        `json:"type"`
	To         string        `json:"to"`
	Subject    string        `json:"subject"`
	Message    string        `json:"message"`
	From       *string       `json:"from"`
	Status     status.Status `json:"status"`
	ButtonText string        `json:"buttonText,omitempty"`
}

// Key returns the status-store key for this notification.
func (n Notification) Key() status.Key {
	return status.Key{ID: n.ID, Timestamp: n.Timestamp}
}

// requestRequired lists the fields an ingestion request must carry, in the
// order they are reported back to the caller.
var requestRequired = []string{"to", "subject", "message"}

// MissingRequestFields returns the required ingestion fields absent from a
// decoded request body, in their canonical order. Presence is judged on JSON
// keys, so an explicitly empty value still counts as provided.
func MissingRequestFields(raw map[string]json.RawMessage) []string {
	return missingKeys(raw, requestRequired)
}

// payloadRequired lists the fields a queue payload must carry before a
// delivery attempt makes sense. Order matters: error messages enumerate
// missing fields in this order.
var payloadRequired = []string{"id", "timestamp", "to", "subject", "message"}

// ParsePayload decodes a queue payload and verifies it carries every field
// required for delivery. Both decode failures and missing fields wrap
// ErrMalformedPayload so the consumer can treat them uniformly.
func ParsePayload(body []byte) (Notification, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if missing := missingKeys(raw, payloadRequired); len(missing) > 0 {
		return Notification{}, fmt.Errorf("%w: missing required fields: %s",
			ErrMalformedPayload, strings.Join(missing, ", "))
	}

	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return n, nil
}

// missingKeys returns the subset of required keys absent from raw, preserving
// the required order. A key that is present but null still counts as present,
// matching JSON key-existence semantics rather than emptiness checks.
func missingKeys(raw map[string]json.RawMessage, required []string) []string {
	var missing []string
	for _, field := range required {
		if _, ok := raw[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}
