package queue

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// notificationTypeAttribute tags every published message so downstream
// consumers can filter by channel.
const notificationTypeAttribute = "NotificationType"

// sqsMaxWait is the longest long-poll SQS accepts; larger batch windows are
// clamped and covered by the consumer's receive loop.
const sqsMaxWait = 20 * time.Second

// SQSClient is the subset of the SQS API the queue uses. Narrowing the
// dependency keeps the adapter mockable in tests.
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSConfig contains connection settings for the SQS backend.
type SQSConfig struct {
	QueueURL    string `env:"SQS_QUEUE_URL"`                      // QueueURL is the full URL of the notification queue.
	Region      string `env:"AWS_REGION" envDefault:"eu-west-1"`  // Region the queue lives in.
	AccessKeyID string `env:"AWS_ACCESS_KEY_ID"`                  // Optional static credentials; default chain is used when empty.
	SecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`              // Optional static credentials; default chain is used when empty.
	Endpoint    string `env:"SQS_ENDPOINT"`                       // Optional custom endpoint for SQS-compatible services.
}

// SQSQueue adapts an SQS queue to the Queue interface.
//
// The receive-count ceiling and dead-letter routing are enforced broker-side
// through the queue's redrive policy, as are retention periods; this adapter
// only reads the approximate receive count for observability and sets the
// per-receive visibility timeout.
type SQSQueue struct {
	client     SQSClient
	queueURL   string
	visibility time.Duration
}

// NewSQSQueue builds an SQS-backed queue from configuration, loading AWS
// credentials from the default chain unless static credentials are provided.
func NewSQSQueue(ctx context.Context, cfg SQSConfig, opts ...Option) (*SQSQueue, error) {
	if cfg.QueueURL == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	awsOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		awsOptions = append(awsOptions,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretKey,
				"",
			)),
		)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewSQSQueueWithClient(client, cfg.QueueURL, opts...), nil
}

// NewSQSQueueWithClient wraps a pre-configured client. Useful for tests.
func NewSQSQueueWithClient(client SQSClient, queueURL string, opts ...Option) *SQSQueue {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SQSQueue{
		client:     client,
		queueURL:   queueURL,
		visibility: cfg.visibilityTimeout,
	}
}

// Publish implements Queue.
func (q *SQSQueue) Publish(ctx context.Context, body []byte) (string, error) {
	out, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			notificationTypeAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String("email"),
			},
		},
	})
	if err != nil {
		return "", errors.Join(ErrPublishFailed, err)
	}
	return aws.ToString(out.MessageId), nil
}

// Receive implements Queue via SQS long polling. SQS caps batches at 10
// messages and long polls at 20 seconds; both are clamped here.
func (q *SQSQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	if max < 1 {
		max = 1
	}
	if max > 10 {
		max = 10
	}
	if wait > sqsMaxWait {
		wait = sqsMaxWait
	}

	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: int32(max),
		WaitTimeSeconds:     int32(wait / time.Second),
		VisibilityTimeout:   int32(q.visibility / time.Second),
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
	})
	if err != nil {
		return nil, errors.Join(ErrReceiveFailed, err)
	}

	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		receiveCount, _ := strconv.Atoi(
			m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])

		msgs = append(msgs, Message{
			ID:            aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          []byte(aws.ToString(m.Body)),
			ReceiveCount:  receiveCount,
		})
	}
	return msgs, nil
}

// Delete implements Queue.
func (q *SQSQueue) Delete(ctx context.Context, msg Message) error {
	if _, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(msg.ReceiptHandle),
	}); err != nil {
		return errors.Join(ErrDeleteFailed, err)
	}
	return nil
}
