package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkSender delivers email through Postmark's transactional API.
type PostmarkSender struct {
	client *postmark.Client
}

// NewPostmarkSender creates a Postmark-backed sender. Both tokens are
// required so misconfiguration fails at startup instead of on the first
// delivery attempt.
func NewPostmarkSender(cfg Config) (*PostmarkSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	return &PostmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
	}, nil
}

// Send implements Sender. Open tracking is enabled; link tracking covers the
// HTML part only, where the call-to-action buttons live.
func (s *PostmarkSender) Send(ctx context.Context, email Email) (string, error) {
	if err := email.Validate(); err != nil {
		return "", err
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       email.From,
		To:         email.To,
		Subject:    email.Subject,
		TextBody:   email.Text,
		HTMLBody:   email.HTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return "", errors.Join(ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return resp.MessageID, nil
}
