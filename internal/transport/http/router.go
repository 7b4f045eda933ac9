package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marklens/internal/config"
	apierrors "marklens/internal/errors"
	"marklens/internal/ingest"
	"marklens/internal/middleware"
	"marklens/internal/services"
)

// Version is stamped at build time.
var Version = "dev"

// NewRouter assembles the full API router with the middleware chain.
func NewRouter(
	cfg *config.Config,
	analysisService *services.AnalysisService,
	historyService *services.HistoryService,
	logger *slog.Logger,
) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}

	errorHandler := apierrors.NewErrorHandler(logger)
	excelReader := ingest.NewExcelReader(logger)

	analysisHandler := NewAnalysisHandler(analysisService, excelReader, logger, errorHandler)
	historyHandler := NewHistoryHandler(historyService, analysisHandler, cfg.Analysis.ComparisonMetric, logger, errorHandler)
	healthHandler := NewHealthHandler(Version)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := middleware.NewMetrics(registry)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compress(5))
	r.Use(metrics.Handler)
	if cfg.Server.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst, logger)
		r.Use(limiter.Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Mount("/analysis", analysisHandler.Routes())
		r.Mount("/snapshots", historyHandler.Routes())
		r.Get("/compare", historyHandler.Compare)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
