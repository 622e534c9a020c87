package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/daisydays/daisydays-backend/internal/notifications"
	"github.com/daisydays/daisydays-backend/internal/orders"
	"github.com/daisydays/daisydays-backend/internal/receipts"
	"github.com/daisydays/daisydays-backend/internal/users"
	"github.com/daisydays/daisydays-backend/pkg/config"
	"github.com/daisydays/daisydays-backend/pkg/db"
	"github.com/daisydays/daisydays-backend/pkg/env"
	"github.com/daisydays/daisydays-backend/pkg/instance"
	"github.com/daisydays/daisydays-backend/pkg/kafka"
	"github.com/daisydays/daisydays-backend/pkg/logger"
	"github.com/daisydays/daisydays-backend/pkg/mailer"
	"github.com/daisydays/daisydays-backend/pkg/metrics"
	"github.com/daisydays/daisydays-backend/pkg/outbox/idempotency"
	"github.com/daisydays/daisydays-backend/pkg/pubsub"
	"github.com/daisydays/daisydays-backend/pkg/redis"
)

const serviceName = "notification-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	renderer := receipts.NewRenderer(cfg.App.StoreName)
	svc, err := notifications.NewService(notifications.ServiceParams{
		Users:     users.NewRepository(dbClient.DB()),
		Orders:    orders.NewRepository(dbClient.DB()),
		Receipts:  renderer,
		Mailer:    mailer.New(cfg.Sendgrid, logg),
		StoreName: cfg.App.StoreName,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to build notification service", err)
		os.Exit(1)
	}

	guard, err := idempotency.NewManager(redisClient, cfg.Eventing.ConsumerIdempotencyTTL)
	if err != nil {
		logg.Error(ctx, "failed to build idempotency manager", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	consumer, err := notifications.NewConsumer(svc, guard, metrics.NewEventMetrics(reg, "notification_consume"), logg)
	if err != nil {
		logg.Error(ctx, "failed to build notification consumer", err)
		os.Exit(1)
	}

	tr, closeTransport, err := newTransport(ctx, cfg, logg, consumer)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap event transport", err)
		os.Exit(1)
	}
	defer closeTransport()

	workerID := instance.GetID()
	service, err := NewService(ServiceParams{
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		Transport: tr,
		WorkerID:  workerID,
	})
	if err != nil {
		logg.Error(ctx, "failed to create worker service", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"worker_id": workerID,
		"broker":    tr.Name(),
	})

	metricsSrv := &http.Server{
		Addr:              env.Get("DAISYDAYS_METRICS_ADDR", ":9103"),
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	logg.Info(ctx, "starting notification worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker exited with error", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

func newTransport(ctx context.Context, cfg *config.Config, logg *logger.Logger, consumer *notifications.Consumer) (transport, func(), error) {
	if cfg.Events.UsesKafka() {
		source, err := kafka.NewConsumer(cfg.Kafka, logg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := source.Close(); err != nil {
				logg.Error(context.Background(), "error closing kafka consumer", err)
			}
		}
		return &kafkaTransport{source: source, consumer: consumer}, closeFn, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}
	return &pubSubTransport{client: client, consumer: consumer}, closeFn, nil
}
