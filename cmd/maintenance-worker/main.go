package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/daisydays/daisydays-backend/internal/maintenance"
	"github.com/daisydays/daisydays-backend/pkg/config"
	"github.com/daisydays/daisydays-backend/pkg/db"
	"github.com/daisydays/daisydays-backend/pkg/instance"
	"github.com/daisydays/daisydays-backend/pkg/logger"
	"github.com/daisydays/daisydays-backend/pkg/metrics"
	"github.com/daisydays/daisydays-backend/pkg/migrate"
	"github.com/daisydays/daisydays-backend/pkg/outbox"
	"github.com/daisydays/daisydays-backend/pkg/redis"
)

const (
	serviceName   = "maintenance-worker"
	lockKeyFormat = "dd:maintenance:lock:%s"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	jobs, err := buildJobs(cfg.Maintenance, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build maintenance jobs", err)
		os.Exit(1)
	}

	lock, err := maintenance.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Maintenance.Interval)
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance lock", err)
		os.Exit(1)
	}

	service, err := maintenance.NewService(maintenance.ServiceParams{
		Logger:   logg,
		Jobs:     jobs,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Maintenance.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"worker_id": instance.GetID(),
	})

	logg.Info(ctx, "starting maintenance worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "maintenance worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "maintenance worker shutting down gracefully")
}

func buildJobs(cfg config.MaintenanceConfig, logg *logger.Logger, dbClient *db.Client) ([]maintenance.Job, error) {
	outboxRepo := outbox.NewRepository(dbClient.DB())

	retention, err := maintenance.NewOutboxRetentionJob(logg, dbClient, outboxRepo, cfg.OutboxRetentionDays)
	if err != nil {
		return nil, err
	}
	dlqRetention, err := maintenance.NewDLQRetentionJob(logg, dbClient, outbox.NewDLQRepository(dbClient.DB()), cfg.DLQRetentionDays)
	if err != nil {
		return nil, err
	}
	backlog, err := maintenance.NewOutboxBacklogJob(logg, outboxRepo, cfg.BacklogWarnAt)
	if err != nil {
		return nil, err
	}
	return []maintenance.Job{retention, dlqRetention, backlog}, nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
