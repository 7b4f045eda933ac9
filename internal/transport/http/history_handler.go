package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "marklens/internal/errors"
	"marklens/internal/services"
	"marklens/pkg/contracts/domain"
)

// HistoryHandler serves snapshot storage and comparison.
type HistoryHandler struct {
	history       *services.HistoryService
	runs          *AnalysisHandler
	defaultMetric string
	validate      *validator.Validate
	logger        *slog.Logger
	errorHandler  *apierrors.ErrorHandler
}

// NewHistoryHandler creates the history handler. The analysis handler
// is consulted to resolve run IDs when saving snapshots.
func NewHistoryHandler(history *services.HistoryService, runs *AnalysisHandler, defaultMetric string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *HistoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryHandler{
		history:       history,
		runs:          runs,
		defaultMetric: defaultMetric,
		validate:      validator.New(),
		logger:        logger.With(slog.String("component", "history_handler")),
		errorHandler:  errorHandler,
	}
}

// Routes returns the snapshot and comparison routes.
func (h *HistoryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.SaveSnapshot)
	r.Get("/", h.ListSnapshots)
	r.Get("/{label}", h.GetSnapshot)
	r.Delete("/{label}", h.DeleteSnapshot)

	return r
}

// SnapshotRequest is the JSON body of POST /api/snapshots.
type SnapshotRequest struct {
	RunID    string    `json:"run_id" validate:"required"`
	Label    string    `json:"label" validate:"required"`
	ExamDate time.Time `json:"exam_date"`
	Class    string    `json:"class"`
	Stream   string    `json:"stream"`
}

// Bind implements render.Binder.
func (s *SnapshotRequest) Bind(r *http.Request) error {
	return nil
}

// SaveSnapshot stores a completed analysis run under a label.
func (h *HistoryHandler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if err := render.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("body", err.Error()))
		return
	}

	h.runs.mu.RLock()
	result, ok := h.runs.runs[req.RunID]
	h.runs.mu.RUnlock()
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrAnalysisMissing)
		return
	}

	snapshot, err := h.history.SaveSnapshot(r.Context(), req.Label, result, req.ExamDate, req.Class, req.Stream)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, snapshot)
}

// ListSnapshots returns stored labels in creation order.
func (h *HistoryHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	labels, err := h.history.Labels(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string][]string{"labels": labels})
}

// GetSnapshot returns one stored snapshot.
func (h *HistoryHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.history.Snapshot(r.Context(), chi.URLParam(r, "label"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, snapshot)
}

// DeleteSnapshot removes a stored snapshot.
func (h *HistoryHandler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.history.DeleteSnapshot(r.Context(), chi.URLParam(r, "label")); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// Compare serves GET /api/compare?previous=&current=&metric=.
func (h *HistoryHandler) Compare(w http.ResponseWriter, r *http.Request) {
	previous := r.URL.Query().Get("previous")
	current := r.URL.Query().Get("current")
	if previous == "" || current == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("previous/current", "both snapshot labels are required"))
		return
	}
	if previous == current {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("current", "cannot compare a snapshot with itself"))
		return
	}

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = h.defaultMetric
	}
	switch metric {
	case domain.MetricTotal, domain.MetricAverage:
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("metric", "metric must be total or average"))
		return
	}

	comparison, err := h.history.Compare(r.Context(), previous, current, metric)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, comparison)
}
