// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package api

import (
	"net/http"
	"time"
)

// GapAnalyzeRequest asks whether a topic is a content gap.
type GapAnalyzeRequest struct {
	Topic     string `json:"topic" validate:"required,max=500"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128,excludesall=0x3A"`
}

// AnalyzeGap handles POST /api/v1/gaps/analyze. This is the synchronous
// form of gap analysis; the event-driven worker handles candidates emitted
// off low-relevance searches.
func (h *Handlers) AnalyzeGap(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req GapAnalyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), req.Topic)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "GAP_ANALYSIS_ERROR", "failed to analyze topic", err)
		return
	}

	respondData(w, http.StatusOK, report, started)
}
