// Package http exposes the analysis pipeline over a Chi REST API.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "marklens/internal/errors"
	"marklens/internal/ingest"
	"marklens/internal/services"
	"marklens/pkg/contracts/domain"
)

// maxUploadBytes caps workbook uploads at 16 MiB.
const maxUploadBytes = 16 << 20

// AnalysisHandler serves analysis runs and their derived views.
type AnalysisHandler struct {
	service      *services.AnalysisService
	excelReader  *ingest.ExcelReader
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler

	mu   sync.RWMutex
	runs map[string]*services.AnalysisResult
}

// NewAnalysisHandler creates the analysis handler.
func NewAnalysisHandler(service *services.AnalysisService, excelReader *ingest.ExcelReader, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:      service,
		excelReader:  excelReader,
		validate:     validator.New(),
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
		runs:         make(map[string]*services.AnalysisResult),
	}
}

// Routes returns the analysis routes.
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.CreateAnalysis)
	r.Post("/upload", h.UploadWorkbook)

	r.Route("/{runID}", func(r chi.Router) {
		r.Use(h.RunCtx)
		r.Get("/", h.GetAnalysis)
		r.Get("/rankings/{metric}", h.GetRanking)
		r.Get("/statistics/{metric}", h.GetStatistics)
		r.Get("/leaders", h.GetLeaders)
		r.Get("/top/{metric}", h.GetTopPerformers)
	})

	return r
}

// AnalysisRequest is the JSON body of POST /api/analysis.
type AnalysisRequest struct {
	Sheets []domain.SubjectTable `json:"sheets" validate:"required,min=1,dive"`
}

// Bind implements render.Binder.
func (a *AnalysisRequest) Bind(r *http.Request) error {
	return nil
}

// CreateAnalysis runs the pipeline over JSON subject tables.
func (h *AnalysisHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := render.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("sheets", err.Error()))
		return
	}

	h.analyze(w, r, req.Sheets)
}

// UploadWorkbook runs the pipeline over an uploaded Excel workbook,
// one sheet per subject.
func (h *AnalysisHandler) UploadWorkbook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("workbook", "multipart form required"))
		return
	}

	file, header, err := r.FormFile("workbook")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("workbook", "workbook file is required"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "workbook uploaded",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	tables, err := h.excelReader.Read(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.analyze(w, r, tables)
}

func (h *AnalysisHandler) analyze(w http.ResponseWriter, r *http.Request, tables []domain.SubjectTable) {
	result, err := h.service.Analyze(r.Context(), tables)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.mu.Lock()
	h.runs[result.ID] = result
	h.mu.Unlock()

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// RunCtx loads the analysis run named in the URL into the request
// context.
func (h *AnalysisHandler) RunCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runID")

		h.mu.RLock()
		result, ok := h.runs[runID]
		h.mu.RUnlock()
		if !ok {
			h.errorHandler.HandleError(w, r, apierrors.ErrAnalysisMissing)
			return
		}

		ctx := withRun(r.Context(), result)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAnalysis returns the full stored run.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, runFrom(r.Context()))
}

// GetRanking returns the ranking for one metric.
func (h *AnalysisHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	result := runFrom(r.Context())
	metric := chi.URLParam(r, "metric")

	ranking, ok := result.Rankings[metric]
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError(fmt.Sprintf("ranking for metric %q", metric)))
		return
	}
	render.JSON(w, r, ranking)
}

// GetStatistics returns the statistics summary for one metric.
func (h *AnalysisHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	result := runFrom(r.Context())
	metric := chi.URLParam(r, "metric")

	summary, ok := result.Statistics[metric]
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError(fmt.Sprintf("statistics for metric %q", metric)))
		return
	}
	render.JSON(w, r, summary)
}

// GetLeaders returns the per-subject leaders.
func (h *AnalysisHandler) GetLeaders(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, runFrom(r.Context()).SubjectLeaders)
}

// GetTopPerformers returns the first n ranking entries for a metric.
// n defaults to 10.
func (h *AnalysisHandler) GetTopPerformers(w http.ResponseWriter, r *http.Request) {
	result := runFrom(r.Context())
	metric := chi.URLParam(r, "metric")

	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("n", "must be an integer"))
			return
		}
		n = parsed
	}

	top, err := h.service.TopPerformers(result, metric, n)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("n", err.Error()))
		return
	}
	render.JSON(w, r, top)
}
