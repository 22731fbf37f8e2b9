// Copyright (c) 2026 Phoenix PME. All rights reserved.

// Command api is the entry point for the Phoenix PME HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire token service and domain services.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PhoenixPME/phoenix-pme/internal/api"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/config"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/constants"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/migration"
	pgstore "github.com/PhoenixPME/phoenix-pme/internal/platform/postgres"
	redisstore "github.com/PhoenixPME/phoenix-pme/internal/platform/redis"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/sec"
	"github.com/PhoenixPME/phoenix-pme/internal/users/account"
	"github.com/PhoenixPME/phoenix-pme/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[PhoenixPME] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	tokenService := sec.NewTokenService(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		constants.AuthIssuer,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		log,
	)

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	refreshTokenRepository := auth.NewRefreshTokenRepository(pool)
	loginAttemptRepository := auth.NewLoginAttemptRepository(pool)
	recoveryCodeRepository := auth.NewRecoveryCodeRepository(pool)
	resetTokenRepository := auth.NewResetTokenRepository(rdb)

	lockoutGuard := auth.NewLockoutGuard(loginAttemptRepository)

	authService := auth.NewService(
		userRepository,
		refreshTokenRepository,
		recoveryCodeRepository,
		resetTokenRepository,
		lockoutGuard,
		tokenService,
	)
	authHandler := auth.NewHandler(authService)

	accountStore := account.NewStore(pool)
	accountService := account.NewService(userRepository, accountStore, refreshTokenRepository)
	accountHandler := account.NewHandler(accountService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Account:   accountHandler,
	}

	server := api.NewServer(serverCtx, cfg, log, tokenService, handlers)

	// ── 10. Session Sweeper ───────────────────────────────────────────────
	// Expired and long-revoked refresh tokens are garbage collected in the
	// background so the session table stays bounded.
	go sweepSessions(serverCtx, refreshTokenRepository, log)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Stop background workers before draining HTTP.
	serverCancel()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// sweepSessions periodically deletes expired and stale-revoked refresh tokens.
//
// It runs until ctx is cancelled. Failures are logged and retried on the next
// tick; a transient database error must never take the process down.
func sweepSessions(ctx context.Context, sessions auth.RefreshTokenRepository, log *slog.Logger) {
	ticker := time.NewTicker(constants.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			removed, err := sessions.DeleteExpired(ctx)
			if err != nil {
				log.Error("session_sweep_failed", slog.Any("error", err))
				continue
			}
			if removed > 0 {
				log.Info("session_sweep_completed", slog.Int("removed", removed))
			}
		}
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
