package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campuskit/campuskit/internal/app"
	"github.com/campuskit/campuskit/internal/auth"
	"github.com/campuskit/campuskit/internal/credential"
	"github.com/campuskit/campuskit/internal/observability"
	"github.com/campuskit/campuskit/internal/platform/cache"
	"github.com/campuskit/campuskit/internal/platform/db"
	"github.com/campuskit/campuskit/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	blacklist := credential.NewTokenBlacklist(redisClient)
	otpStore := credential.NewOTPStore(redisClient)
	limiter := credential.NewRateLimiter(redisClient)
	sessions := credential.NewSessionStore(redisClient)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens, blacklist, otpStore, limiter, sessions, jobClient, auth.ServiceConfig{
		LoginRateLimit:  cfg.LoginRateLimit,
		LoginRateWindow: cfg.LoginRateWindow,
		OTPRateLimit:    cfg.OTPRateLimit,
		OTPRateWindow:   cfg.OTPRateWindow,
		OTPTTL:          cfg.OTPTTL,
		SessionTTL:      cfg.SessionTTL,
	}, logger)

	metrics := observability.NewMetrics()
	pipeline := auth.NewPipeline(tokens, blacklist, authRepo, logger, metrics)
	authHandler := auth.NewHandler(logger, authService, pipeline)

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		AuthHandler: authHandler,
		Metrics:     metrics,
		Pool:        pool,
		Redis:       redisClient,
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
