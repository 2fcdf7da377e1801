package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DevSender implements Sender for local development. Instead of delivering,
// it saves each email as an HTML file plus a JSON metadata file in the
// configured directory, and returns a generated message id.
type DevSender struct {
	dir string
}

// NewDevSender creates a development sender that writes emails to dir. The
// directory is created on the first send if it does not exist.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

type devMetadata struct {
	MessageID string `json:"messageId"`
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
}

// Send implements Sender.
func (d *DevSender) Send(ctx context.Context, email Email) (string, error) {
	if err := email.Validate(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create directory: %v", ErrSendFailed, err)
	}

	messageID := uuid.New().String()
	now := time.Now()
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(email.Subject))

	htmlPath := filepath.Join(d.dir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(email.HTML), 0644); err != nil {
		return "", fmt.Errorf("%w: failed to write HTML file: %v", ErrSendFailed, err)
	}

	meta, err := json.MarshalIndent(devMetadata{
		MessageID: messageID,
		Timestamp: now.Format(time.RFC3339),
		From:      email.From,
		To:        email.To,
		Subject:   email.Subject,
		Text:      email.Text,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal metadata: %v", ErrSendFailed, err)
	}

	jsonPath := filepath.Join(d.dir, base+".json")
	if err := os.WriteFile(jsonPath, meta, 0644); err != nil {
		return "", fmt.Errorf("%w: failed to write JSON file: %v", ErrSendFailed, err)
	}

	return messageID, nil
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeFilename converts a subject into a safe, bounded filename.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
