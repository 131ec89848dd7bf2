// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

// Command api is the entry point for the Harvest HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
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

	"github.com/harvestapp/harvest/internal/api"
	"github.com/harvestapp/harvest/internal/outreach/person"
	"github.com/harvestapp/harvest/internal/outreach/report"
	"github.com/harvestapp/harvest/internal/platform/config"
	"github.com/harvestapp/harvest/internal/platform/constants"
	"github.com/harvestapp/harvest/internal/platform/mail"
	"github.com/harvestapp/harvest/internal/platform/migration"
	pgstore "github.com/harvestapp/harvest/internal/platform/postgres"
	redisstore "github.com/harvestapp/harvest/internal/platform/redis"
	"github.com/harvestapp/harvest/internal/platform/sec"
	"github.com/harvestapp/harvest/internal/users/admin"
	"github.com/harvestapp/harvest/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "harvest"))
	slog.SetDefault(log)

	log.Info("[Harvest] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "harvest"))
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

	db := pgstore.NewDB(pool, log)

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
	jwtSvc, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	must(log, err, "initialize jwt service")

	// ── 7. Mailer ─────────────────────────────────────────────────────────
	var mailer mail.Sender
	if cfg.HasSMTP() {
		mailer = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		log.Warn("smtp_not_configured_using_log_sender")
		mailer = mail.NewLogSender(log)
	}

	// ── 8. Health handler (wired with real dependency checkers) ───────────
	healthHandler := api.NewHealthHandler(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(db)
	resetTokenRepository := auth.NewResetTokenRepository(db)
	revocationList := auth.NewRevocationList(rdb)
	authService := auth.NewService(userRepository, resetTokenRepository, revocationList, jwtSvc, mailer, cfg.ResetBaseURL)
	authHandler := auth.NewHandler(authService)

	adminService := admin.NewService(userRepository)
	adminHandler := admin.NewHandler(adminService)

	reportRepository := report.NewRepository(db)
	reportService := report.NewService(reportRepository)
	reportHandler := report.NewHandler(reportService)

	personRepository := person.NewRepository(db)
	personService := person.NewService(personRepository, reportRepository)
	personHandler := person.NewHandler(personService)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Health:     healthHandler,
		Auth:       authHandler,
		AdminUsers: adminHandler,
		Report:     reportHandler,
		Person:     personHandler,
	}

	server := api.NewServer(cfg, log, authService, authService, handlers)

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

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
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
