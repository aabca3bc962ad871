// Package main implements the entry point for the scribe API server,
// which accepts audio and text submissions, delegates the heavy AI work
// to an external processing engine, and reconciles engine progress
// against a local encrypted task ledger.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/tmarkell/scribe-api/internal/audit"
	"github.com/tmarkell/scribe-api/internal/config"
	"github.com/tmarkell/scribe-api/internal/cryptobox"
	"github.com/tmarkell/scribe-api/internal/events"
	"github.com/tmarkell/scribe-api/internal/platform/engine"
	"github.com/tmarkell/scribe-api/internal/platform/logger"
	"github.com/tmarkell/scribe-api/internal/platform/postgres"
	"github.com/tmarkell/scribe-api/internal/service"
	"github.com/tmarkell/scribe-api/internal/service/auth"
)

const (
	serverShutdownTimeout = 10 * time.Second
	migrationsDir         = "migrations"
)

// application holds the fully wired dependencies of the server.
type application struct {
	config     *config.Config
	logger     *slog.Logger
	db         *sql.DB
	jwtService auth.JWTService

	submissionService *service.SubmissionService
	reconcilerService *service.ReconcilerService
	sessionHub        *events.SessionHub
}

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}()

	if err := app.run(); err != nil {
		app.logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// initializeApp loads configuration, connects the collaborators, and wires
// the service graph. Returns the assembled application or the first
// initialization error.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	envelope, err := cryptobox.NewEnvelope(cfg.Crypto.MasterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption envelope: %w", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	engineClient := engine.NewClient(cfg.Engine.BaseURL, cfg.Engine.Timeout)

	taskStore := postgres.NewPostgresTaskStore(db, appLogger)
	tagStore := postgres.NewPostgresTagStore(db, appLogger)

	auditor := audit.NewLogRecorder(appLogger)
	sessionHub := events.NewSessionHub(appLogger)

	tagService := service.NewTagService(tagStore, appLogger)
	submissionService := service.NewSubmissionService(taskStore, engineClient, auditor, appLogger)
	reconcilerService := service.NewReconcilerService(
		taskStore,
		tagService,
		engineClient,
		envelope,
		sessionHub,
		auditor,
		appLogger,
	)

	return &application{
		config:            cfg,
		logger:            appLogger,
		db:                db,
		jwtService:        jwtService,
		submissionService: submissionService,
		reconcilerService: reconcilerService,
		sessionHub:        sessionHub,
	}, nil
}

// run starts the HTTP server and blocks until shutdown completes.
func (app *application) run() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		app.logger.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	app.logger.Info("server stopped")
	return nil
}

// runMigrations brings the schema up to date with goose.
func runMigrations(db *sql.DB, log *slog.Logger) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	log.Info("running database migrations", "dir", migrationsDir)
	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
