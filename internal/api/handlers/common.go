// Package handlers provides HTTP request handlers for the netsweep API.
// This file contains common utilities shared across all handlers to
// keep response shapes and request parsing consistent.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/anstrom/netsweep/internal/api/middleware"
	"github.com/anstrom/netsweep/internal/errors"
	"github.com/anstrom/netsweep/internal/logging"
	"github.com/anstrom/netsweep/internal/metrics"
)

// maxParseBytes caps request bodies at the JSON decoding layer. The
// server also applies its configured limit through middleware.
const maxParseBytes = 1 << 20

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// getRequestID extracts the request ID tagged by the logging middleware.
func getRequestID(r *http.Request) string {
	return middleware.GetRequestID(r)
}

// extractUUIDFromPath extracts a run ID from the URL path.
func extractUUIDFromPath(r *http.Request) (uuid.UUID, error) {
	vars := mux.Vars(r)
	idStr, exists := vars["id"]
	if !exists {
		return uuid.Nil, fmt.Errorf("id not provided")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id: %s", idStr)
	}

	return id, nil
}

// Response utilities

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log error but don't try to write another response
		logging.Error("Failed to encode JSON response",
			"request_id", getRequestID(r),
			"path", r.URL.Path,
			"error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, err error) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		RequestID: getRequestID(r),
	}

	writeJSON(w, r, statusCode, response)
}

// writeSweepError maps a sweep or tracker error to the HTTP status its
// code calls for.
func writeSweepError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeValidation, errors.CodeConfiguration, errors.CodeRangeInvalid,
		errors.CodeTargetInvalid, errors.CodeResolveFailed, errors.CodeCapacity:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeConflict:
		status = http.StatusConflict
	}
	writeError(w, r, status, err)
}

// Request parsing utilities

// parseJSON parses a JSON request body into the provided destination.
// Unknown fields are rejected so typos surface as errors instead of
// silently ignored options.
func parseJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxParseBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// recordMetric records a handler operation metric.
func recordMetric(registry metrics.MetricsRegistry, name string, labels metrics.Labels) {
	if registry != nil {
		registry.Counter(name, labels)
	}
}
