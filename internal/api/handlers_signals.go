// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/tailorhq/tailor/internal/metrics"
	"github.com/tailorhq/tailor/internal/signal"
)

// RecordSignalRequest is the ingestion payload. The payload field's shape
// depends on signal_type and is parsed after the envelope validates.
type RecordSignalRequest struct {
	SessionID  string          `json:"session_id" validate:"required,max=128,excludesall=0x3A"`
	SignalType string          `json:"signal_type" validate:"required"`
	Payload    json.RawMessage `json:"payload" validate:"required"`
	Timestamp  *time.Time      `json:"timestamp,omitempty"`
}

// RecordSignal handles POST /api/v1/signals.
func (h *Handlers) RecordSignal(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req RecordSignalRequest
	if !decodeJSON(w, r, &req) {
		metrics.SignalsRejected.WithLabelValues("malformed_body").Inc()
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		metrics.SignalsRejected.WithLabelValues("invalid_envelope").Inc()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	sigType := signal.Type(req.SignalType)
	payload, err := signal.ParsePayload(sigType, req.Payload)
	if err != nil {
		metrics.SignalsRejected.WithLabelValues("invalid_payload").Inc()
		respondError(w, http.StatusBadRequest, "INVALID_SIGNAL", err.Error(), nil)
		return
	}

	var ts time.Time
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	id, err := h.recorder.Record(r.Context(), req.SessionID, sigType, payload, ts)
	if err != nil {
		if errors.Is(err, signal.ErrInvalidSignal) {
			metrics.SignalsRejected.WithLabelValues("invalid_signal").Inc()
			respondError(w, http.StatusBadRequest, "INVALID_SIGNAL", err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to record signal", err)
		return
	}

	metrics.SignalsIngested.WithLabelValues(req.SignalType).Inc()
	respondData(w, http.StatusCreated, map[string]string{"signal_id": id}, started)
}

// GetInterest handles GET /api/v1/sessions/{sessionID}/interest.
func (h *Handlers) GetInterest(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "MISSING_SESSION", "session ID is required", nil)
		return
	}

	vector, err := h.vectors.Get(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "VECTOR_ERROR", "failed to compute interest vector", err)
		return
	}

	respondData(w, http.StatusOK, vector, started)
}
