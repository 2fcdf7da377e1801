package mailer

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESClient is the subset of the SES API the sender uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender delivers email through Amazon SES. The sender identity must be
// verified in the configured region.
type SESSender struct {
	client SESClient
}

// NewSESSender creates an SES-backed sender, loading AWS credentials from
// the default chain unless static credentials are provided.
func NewSESSender(ctx context.Context, cfg Config) (*SESSender, error) {
	if cfg.SESRegion == "" {
		return nil, ErrInvalidConfig
	}

	awsOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SESRegion),
	}
	if cfg.SESAccessKeyID != "" && cfg.SESSecretKey != "" {
		awsOptions = append(awsOptions,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.SESAccessKeyID,
				cfg.SESSecretKey,
				"",
			)),
		)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	return &SESSender{client: ses.NewFromConfig(awsCfg)}, nil
}

// NewSESSenderWithClient wraps a pre-configured client. Useful for tests.
func NewSESSenderWithClient(client SESClient) *SESSender {
	return &SESSender{client: client}
}

// Send implements Sender.
func (s *SESSender) Send(ctx context.Context, email Email) (string, error) {
	if err := email.Validate(); err != nil {
		return "", err
	}

	body := &types.Body{}
	if email.Text != "" {
		body.Text = &types.Content{Data: aws.String(email.Text)}
	}
	if email.HTML != "" {
		body.Html = &types.Content{Data: aws.String(email.HTML)}
	}

	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(email.From),
		Destination: &types.Destination{
			ToAddresses: []string{email.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(email.Subject)},
			Body:    body,
		},
	})
	if err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}
	return aws.ToString(out.MessageId), nil
}
