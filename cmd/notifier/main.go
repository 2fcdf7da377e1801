package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/edulor/notifier/pkg/config"
	"github.com/edulor/notifier/pkg/httpserver"
	"github.com/edulor/notifier/pkg/ingest"
	"github.com/edulor/notifier/pkg/logger"
	"github.com/edulor/notifier/pkg/mailer"
	"github.com/edulor/notifier/pkg/queue"
	"github.com/edulor/notifier/pkg/status"
	"github.com/edulor/notifier/pkg/worker"
)

type appConfig struct {
	ServiceName  string `env:"SERVICE_NAME" envDefault:"notifier"`
	StatusDriver string `env:"STATUS_DRIVER" envDefault:"memory"` // StatusDriver selects the status store: memory or mongodb.
}

func main() {
	if err := run(); err != nil {
		slog.Error("service exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		appCfg    appConfig
		logCfg    logger.Config
		httpCfg   httpserver.Config
		queueCfg  queue.Config
		mailCfg   mailer.Config
		workerCfg worker.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&logCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&queueCfg)
	config.MustLoad(&mailCfg)
	config.MustLoad(&workerCfg)

	log := logger.New(append(
		logger.FromConfig(logCfg),
		logger.WithService(appCfg.ServiceName),
	)...)
	logger.SetAsDefault(log)

	q, err := buildQueue(ctx, queueCfg, log)
	if err != nil {
		return fmt.Errorf("failed to build queue: %w", err)
	}

	store, err := buildStatusStore(ctx, appCfg.StatusDriver)
	if err != nil {
		return fmt.Errorf("failed to build status store: %w", err)
	}

	sender, err := mailer.New(ctx, mailCfg)
	if err != nil {
		return fmt.Errorf("failed to build mail sender: %w", err)
	}

	handler, err := ingest.NewHandler(q, ingest.WithLogger(log))
	if err != nil {
		return err
	}

	consumer, err := worker.NewConsumer(q, store, sender,
		worker.WithBatchSize(workerCfg.BatchSize),
		worker.WithBatchWait(workerCfg.BatchWait),
		worker.WithDefaultSender(mailCfg.DefaultSender),
		worker.WithLogger(log),
	)
	if err != nil {
		return err
	}

	srv := httpserver.New(append(
		httpserver.FromConfig(httpCfg),
		httpserver.WithLogger(log),
	)...)

	log.Info("starting notifier",
		slog.String("queue_driver", queueCfg.Driver),
		slog.String("status_driver", appCfg.StatusDriver),
		slog.String("mail_driver", mailCfg.Driver))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Run(runCtx, handler.Router()) }()
	go func() { errCh <- consumer.Run(runCtx) }()

	// The first component to stop takes the other down with it.
	err = <-errCh
	cancel()
	if second := <-errCh; second != nil && !errors.Is(second, context.Canceled) {
		err = errors.Join(err, second)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildQueue(ctx context.Context, cfg queue.Config, log *slog.Logger) (queue.Queue, error) {
	opts := queue.FromConfig(cfg)

	switch cfg.Driver {
	case "memory", "":
		return queue.NewMemoryQueue(append(opts, queue.WithDLQ(queue.NewMemoryQueue()))...), nil

	case "sqs":
		var sqsCfg queue.SQSConfig
		config.MustLoad(&sqsCfg)
		return queue.NewSQSQueue(ctx, sqsCfg, opts...)

	case "postgres":
		var pgCfg queue.PostgresConfig
		config.MustLoad(&pgCfg)
		pool, err := queue.ConnectPostgres(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		if err := queue.MigratePostgres(ctx, pool, log); err != nil {
			return nil, err
		}
		return queue.NewPostgresQueue(pool, opts...), nil

	default:
		return nil, fmt.Errorf("%w: unknown queue driver %q", queue.ErrInvalidConfig, cfg.Driver)
	}
}

func buildStatusStore(ctx context.Context, driver string) (status.Store, error) {
	switch driver {
	case "memory", "":
		return status.NewMemoryStore(), nil

	case "mongodb":
		var mongoCfg status.Config
		config.MustLoad(&mongoCfg)
		return status.NewMongoStore(ctx, mongoCfg)

	default:
		return nil, fmt.Errorf("unknown status driver %q", driver)
	}
}
