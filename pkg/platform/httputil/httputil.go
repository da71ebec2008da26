// Package httputil holds the JSON response and request helpers shared by
// the HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"credsearch/pkg/platform/sentinel"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteErrorCode(w http.ResponseWriter, status int, code, description string) {
	WriteJSON(w, status, ErrorBody{Error: code, Description: description})
}

// WriteError maps sentinel errors to a status and code. Internal errors
// never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrInvalidInput):
		WriteErrorCode(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, sentinel.ErrNotFound):
		WriteErrorCode(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, sentinel.ErrUnavailable):
		WriteErrorCode(w, http.StatusServiceUnavailable, "service_unavailable", "")
	default:
		WriteErrorCode(w, http.StatusInternalServerError, "internal_error", "")
	}
}

// DecodeJSON decodes a bounded request body into T, writing a 400 and
// returning false on failure.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "invalid request body", "path", r.URL.Path, "error", err)
		}
		WriteError(w, fmt.Errorf("invalid json body: %w", sentinel.ErrInvalidInput))
		return nil, false
	}
	return &v, true
}
