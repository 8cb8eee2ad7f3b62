package handler

// Every error response has the same shape:
//   {"error": "not_found", "message": "template not found with id abc123"}
// Validation failures add "details" (one entry per field problem) and
// missing variables add "missing".

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/wapanel/internal/apperror"
	"github.com/sakif/wapanel/internal/placeholder"
)

// FieldDetail is one field-level validation problem.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Details []FieldDetail `json:"details,omitempty"`
	Missing []string      `json:"missing,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it. Unknown
// errors become a generic 500 and are logged, never echoed.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var missing *placeholder.MissingVariableError
	if errors.As(err, &missing) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "missing_variable",
			Message: missing.Error(),
			Missing: missing.Names,
		})
		return
	}

	var fieldErrs apperror.FieldErrors
	if errors.As(err, &fieldErrs) {
		details := make([]FieldDetail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, FieldDetail{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "template is invalid",
			Details: details,
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		resp := ErrorResponse{Error: errorType, Message: appErr.Message}
		if appErr.Field != "" {
			resp.Details = []FieldDetail{{Field: appErr.Field, Message: appErr.Message}}
		}
		writeJSON(w, status, resp)
		return
	}

	logger.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
