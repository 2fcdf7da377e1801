package mailer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Email is a fully rendered message ready for a delivery provider.
type Email struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender hands a rendered email to a delivery provider and returns the
// provider-assigned message id confirming the send. Implementations perform
// no internal retries; a failed send surfaces immediately so the queue's
// redelivery can take over.
type Sender interface {
	Send(ctx context.Context, email Email) (string, error)
}

// emailRegex is a pragmatic address check, not full RFC 5322.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks that the email has everything a provider needs.
func (e Email) Validate() error {
	if e.From == "" || !emailRegex.MatchString(e.From) {
		return fmt.Errorf("%w: invalid sender address %q", ErrInvalidEmail, e.From)
	}
	if e.To == "" || !emailRegex.MatchString(e.To) {
		return fmt.Errorf("%w: invalid recipient address %q", ErrInvalidEmail, e.To)
	}
	if e.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidEmail)
	}
	if e.Text == "" && e.HTML == "" {
		return fmt.Errorf("%w: empty body", ErrInvalidEmail)
	}
	return nil
}

// Config holds delivery provider configuration. The default sender address
// is applied to notifications published without an explicit "from"; it is
// config-driven rather than compiled in so deployments can override it.
type Config struct {
	Driver        string `env:"MAIL_DRIVER" envDefault:"dev"`                     // Driver selects the provider: dev, postmark or ses.
	DefaultSender string `env:"SENDER_EMAIL" envDefault:"noreply@edulor.fr"`      // DefaultSender is used when a notification carries no from address.
	DevOutputDir  string `env:"MAIL_DEV_DIR" envDefault:"./outbox"`               // DevOutputDir is where the dev sender writes emails.

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`  // PostmarkServerToken authenticates send API calls.
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"` // PostmarkAccountToken authenticates account-level calls.

	SESRegion      string `env:"AWS_REGION" envDefault:"eu-west-1"` // SESRegion is the region of the SES identity.
	SESAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`                 // Optional static credentials; default chain is used when empty.
	SESSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`             // Optional static credentials; default chain is used when empty.
}

// New builds the Sender named by cfg.Driver.
func New(ctx context.Context, cfg Config) (Sender, error) {
	switch cfg.Driver {
	case "postmark":
		return NewPostmarkSender(cfg)
	case "ses":
		return NewSESSender(ctx, cfg)
	case "dev", "":
		return NewDevSender(cfg.DevOutputDir), nil
	default:
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("unknown mail driver %q", cfg.Driver))
	}
}
