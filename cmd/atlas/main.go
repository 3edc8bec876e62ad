package main

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atlas-claims/atlas-claims/internal/app"
	"github.com/atlas-claims/atlas-claims/internal/auth"
	"github.com/atlas-claims/atlas-claims/internal/authz"
	"github.com/atlas-claims/atlas-claims/internal/claims"
	"github.com/atlas-claims/atlas-claims/internal/members"
	"github.com/atlas-claims/atlas-claims/internal/observability"
	"github.com/atlas-claims/atlas-claims/internal/pii"
	"github.com/atlas-claims/atlas-claims/internal/platform/cache"
	"github.com/atlas-claims/atlas-claims/internal/platform/db"
	"github.com/atlas-claims/atlas-claims/internal/policies"
	"github.com/atlas-claims/atlas-claims/internal/shared"
	"github.com/atlas-claims/atlas-claims/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	metrics := observability.NewMetrics()

	authority := authz.NewAuthority()
	engine := authz.NewEngine(authority, logger, authz.NewMetrics(metrics.Registerer()))
	for _, rule := range authz.DefaultPolicies() {
		if err := engine.AddPolicy(rule); err != nil {
			logger.Error("load default policy", slog.String("rule", rule.ID), slog.Any("error", err))
			os.Exit(1)
		}
	}
	guard := authz.Guard{Engine: engine, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, logger, cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService)

	auditLogger := shared.NewAuditLogger(dbpool)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	claimsRepo := claims.NewRepository(dbpool)
	claimsCache := claims.NewCache(redisClient, cfg.ClaimCacheTTL)
	claimsService := claims.NewService(claimsRepo, claimsCache, auditLogger, jobClient, logger)
	claimsHandler := claims.NewHandler(logger, claimsService, guard)

	tokenizer, err := newTokenizer(cfg)
	if err != nil {
		logger.Error("init pii tokenizer", slog.Any("error", err))
		os.Exit(1)
	}
	membersRepo := members.NewRepository(dbpool)
	membersService := members.NewService(membersRepo, tokenizer, auditLogger, logger)
	membersHandler := members.NewHandler(logger, membersService, guard)

	policiesRepo := policies.NewRepository(dbpool)
	policiesService := policies.NewService(policiesRepo, auditLogger, logger)
	policiesHandler := policies.NewHandler(logger, policiesService, guard)

	adminPolicies := authz.NewPoliciesHandler(logger, engine, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AuthHandler:     authHandler,
		ClaimsHandler:   claimsHandler,
		MembersHandler:  membersHandler,
		PoliciesHandler: policiesHandler,
		AdminPolicies:   adminPolicies,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// newTokenizer decodes the hex-encoded PII keys from config.
func newTokenizer(cfg *app.Config) (*pii.Tokenizer, error) {
	hmacKey, err := hex.DecodeString(cfg.PIIHMACKey)
	if err != nil {
		return nil, err
	}
	encKey, err := hex.DecodeString(cfg.PIIEncKey)
	if err != nil {
		return nil, err
	}
	return pii.NewTokenizer(hmacKey, encKey)
}
