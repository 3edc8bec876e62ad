package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/atlas-claims/atlas-claims/internal/app"
	"github.com/atlas-claims/atlas-claims/internal/claims"
	jobmetrics "github.com/atlas-claims/atlas-claims/internal/jobs"
	"github.com/atlas-claims/atlas-claims/internal/platform/cache"
	"github.com/atlas-claims/atlas-claims/internal/platform/db"
	"github.com/atlas-claims/atlas-claims/internal/policies"
	"github.com/atlas-claims/atlas-claims/internal/shared"
	"github.com/atlas-claims/atlas-claims/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	auditLogger := shared.NewAuditLogger(dbpool)

	claimsRepo := claims.NewRepository(dbpool)
	claimsCache := claims.NewCache(redisClient, cfg.ClaimCacheTTL)
	claimsService := claims.NewService(claimsRepo, claimsCache, auditLogger, nil, logger)
	claimProcessor := jobs.NewClaimProcessor(claimsService, logger, metrics)

	policiesRepo := policies.NewRepository(dbpool)
	policiesService := policies.NewService(policiesRepo, auditLogger, logger)
	policySweeper := jobs.NewPolicySweeper(policiesService, logger, metrics)

	sweepTask := jobs.NewPolicySweepTask()

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskClaimProcess, Handler: claimProcessor.Handle},
			{Type: jobs.TaskPolicySweep, Handler: policySweeper.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: sweepTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
