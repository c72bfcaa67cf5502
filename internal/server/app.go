// Package server initializes and runs the authentication server: it opens
// the database, runs migrations, wires the authentication service with its
// collaborators, and drives the background sweep of expired tokens until
// shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/email"
	"github.com/dmitrijs2005/authkeeper/internal/server/federated"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	authService *services.AuthService

	cleanupInterval time.Duration
}

// NewApp wires the application from config.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	broker := federated.NewGoogleBroker(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	var sender email.Sender
	if cfg.PostmarkServerToken != "" {
		sender, err = email.NewPostmarkSender(cfg.PostmarkServerToken, cfg.EmailFrom)
		if err != nil {
			return nil, fmt.Errorf("email init error: %w", err)
		}
	} else {
		sender = email.NewNoopSender(logger)
	}

	authService, err := services.NewAuthService(db, m, cryptox.NewArgon2Hasher(), broker, sender, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("auth service init error: %w", err)
	}

	return &App{
		config:          cfg,
		logger:          logger,
		authService:     authService,
		cleanupInterval: cfg.TokenCleanupInterval,
	}, nil
}

// AuthService exposes the wired authentication service to the transport
// layer hosting this app.
func (app *App) AuthService() *services.AuthService {
	return app.authService
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runCleanupLoop sweeps expired refresh tokens and reset requests on a
// ticker until ctx is cancelled.
func (app *App) runCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(app.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.authService.CleanupExpired(ctx); err != nil {
				app.logger.Error(ctx, "token cleanup failed", "error", err)
			}
		}
	}
}

// Run blocks until the app is stopped by a signal or the context is
// cancelled.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	app.runCleanupLoop(ctx)

	app.logger.Info(ctx, "app stopped")
}
