// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ManuGH/netreset/internal/log"
)

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

// handleReset accepts a reset request. The outcome arrives later through the state.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	err := s.ctrl.Reset(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		status, code := resetStatus(err)
		logger.Info().
			Err(err).
			Str(log.FieldEvent, "api.reset_rejected").
			Int(log.FieldStatus, status).
			Msg("reset request rejected")
		writeError(w, r, status, code, err)
		return
	}

	logger.Info().Str(log.FieldEvent, "api.reset_accepted").Msg("reset request accepted")
	writeJSON(w, http.StatusAccepted, s.ctrl.State())
}
