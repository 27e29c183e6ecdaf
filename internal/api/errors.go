// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/netreset/internal/controller"
	"github.com/ManuGH/netreset/internal/log"
)

// errorResponse is the body of every non-2xx JSON answer.
type errorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// resetStatus maps a controller reset outcome to an HTTP status and error code.
func resetStatus(err error) (int, string) {
	switch {
	case errors.Is(err, controller.ErrResetInFlight):
		return http.StatusConflict, "reset_in_flight"
	case errors.Is(err, controller.ErrAlreadyReset):
		return http.StatusConflict, "already_reset"
	case errors.Is(err, controller.ErrNotReady):
		return http.StatusServiceUnavailable, "not_ready"
	case errors.Is(err, controller.ErrClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	resp := errorResponse{Error: code, RequestID: log.RequestIDFromContext(r.Context())}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}
