// Package app wires configuration, services, and the HTTP server into
// a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"marklens/internal/config"
	"marklens/internal/consolidate"
	"marklens/internal/history"
	"marklens/internal/infrastructure"
	"marklens/internal/match"
	"marklens/internal/ranking"
	"marklens/internal/services"
	"marklens/internal/stats"
	transport "marklens/internal/transport/http"
)

// Application is the dependency container for the web server.
type Application struct {
	Config   *config.Config
	Logger   *slog.Logger
	Server   *http.Server
	Store    history.Store
	Analysis *services.AnalysisService
	History  *services.HistoryService
}

// NewApplication builds the application from a config file path
// (empty for defaults and environment only).
func NewApplication(configFile string) (*Application, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := infrastructure.InitializeLogger(cfg.Logging)

	store, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	matcher := match.NewMatcher(nil, cfg.Analysis.MatchThreshold)
	consolidator := consolidate.New(matcher, consolidate.Options{
		MinMark: cfg.Analysis.MinMark,
		MaxMark: cfg.Analysis.MaxMark,
		MaxRows: cfg.Analysis.MaxRows,
	}, logger)

	analysisService := services.NewAnalysisService(
		consolidator,
		stats.NewEngine(logger),
		ranking.NewEngine(cfg.Analysis.MaxMark, logger),
		cfg.Analysis,
		logger,
	)
	historyService := services.NewHistoryService(store, logger)

	router := transport.NewRouter(cfg, analysisService, historyService, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{
		Config:   cfg,
		Logger:   logger,
		Server:   server,
		Store:    store,
		Analysis: analysisService,
		History:  historyService,
	}, nil
}

func newStore(cfg *config.Config, logger *slog.Logger) (history.Store, error) {
	switch cfg.History.Driver {
	case "sqlite":
		store, err := history.NewSQLiteStore(cfg.History.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		return store, nil
	default:
		return history.NewMemoryStore(), nil
	}
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then
// shuts down gracefully within the configured timeout.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening",
			slog.String("addr", a.Server.Addr),
			slog.String("history_driver", a.Config.History.Driver))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		a.Logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("closing history store", slog.String("error", err.Error()))
	}
	a.Logger.Info("shutdown complete")
	return nil
}
