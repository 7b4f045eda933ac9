package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"marklens/internal/middleware"
)

// ErrorHandler provides centralized error handling for the HTTP layer.
// Every handler funnels failures through HandleError so the response
// envelope and logging stay uniform.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger: logger.With(slog.String("component", "error_handler")),
	}
}

// HandleError converts any error to the API error envelope and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetRequestID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	apiErr := h.toAPIError(err)
	render.Render(w, r, NewErrorResponse(apiErr))
}

// toAPIError maps application errors onto the API envelope.
func (h *ErrorHandler) toAPIError(err error) *APIError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return New(http.StatusGatewayTimeout, "TIMEOUT", "The request took too long to process")
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	// Table-level validation failures are 422: the sheet is well-formed
	// JSON but fails the domain rules, and the caller should correct it.
	if IsValidation(err) {
		return SheetValidationError(err)
	}
	if errors.Is(err, ErrSnapshotNotFound) {
		return NewWithDetails(http.StatusNotFound, "SNAPSHOT_NOT_FOUND", "Exam snapshot not found", err.Error())
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrTypeValidation:
			return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", appErr.Message, appErr.Context)
		case ErrTypeNotFound:
			return NewWithDetails(http.StatusNotFound, "NOT_FOUND", appErr.Message, appErr.Context)
		case ErrTypeParsing:
			return NewWithDetails(http.StatusUnprocessableEntity, "PARSING_FAILED", appErr.Message, appErr.Context)
		case ErrTypeStorage:
			return NewWithDetails(http.StatusInternalServerError, "STORAGE_ERROR", appErr.Message, appErr.Context)
		case ErrTypeConfig:
			return NewWithDetails(http.StatusInternalServerError, "CONFIG_ERROR", appErr.Message, appErr.Context)
		}
	}

	return ErrInternalServer
}
