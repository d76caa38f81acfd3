// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tailorhq/tailor/internal/assembly"
	"github.com/tailorhq/tailor/internal/interest"
	"github.com/tailorhq/tailor/internal/scoring"
)

// ScoreCandidate is one scoreable item in a scoring request.
type ScoreCandidate struct {
	ID         string             `json:"id" validate:"required"`
	Categories map[string]float64 `json:"categories"`
}

// CandidateID implements scoring.Candidate.
func (c ScoreCandidate) CandidateID() string { return c.ID }

// CategoryWeights implements scoring.Candidate.
func (c ScoreCandidate) CategoryWeights() map[string]float64 { return c.Categories }

// ScoreRequest asks for candidates ranked against an interest vector. The
// vector comes from the session when session_id is set, otherwise from the
// inline weights.
type ScoreRequest struct {
	SessionID  string             `json:"session_id,omitempty" validate:"omitempty,max=128,excludesall=0x3A"`
	Weights    map[string]float64 `json:"weights,omitempty"`
	Candidates []ScoreCandidate   `json:"candidates" validate:"required,min=1,max=500,dive"`

	// Count applies diversity selection to the top Count results when > 0.
	Count int `json:"count,omitempty" validate:"gte=0,lte=500"`
}

// ScoredCandidate is one ranked scoring result.
type ScoredCandidate struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// RelevanceService resolves scoring requests against session vectors or
// inline weights.
type RelevanceService struct {
	vectors  assembly.VectorSource
	selector *scoring.Selector
}

// NewRelevanceService creates the scoring service used by ScoreRelevance.
func NewRelevanceService(vectors assembly.VectorSource, selector *scoring.Selector) *RelevanceService {
	return &RelevanceService{vectors: vectors, selector: selector}
}

// Rank scores and optionally diversity-selects candidates.
func (s *RelevanceService) Rank(ctx context.Context, req *ScoreRequest) ([]ScoredCandidate, error) {
	vector := &interest.Vector{Weights: req.Weights}
	if req.SessionID != "" {
		v, err := s.vectors.Get(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		vector = v
	}

	candidates := make([]scoring.Candidate, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		candidates = append(candidates, c)
	}

	scored := scoring.ScoreBatch(vector, candidates)
	if req.Count > 0 {
		scored = s.selector.Select(vector, scored, req.Count)
	}

	out := make([]ScoredCandidate, 0, len(scored))
	for _, sc := range scored {
		out = append(out, ScoredCandidate{ID: sc.Candidate.CandidateID(), Score: sc.Score})
	}
	return out, nil
}

// ScoreRelevance handles POST /api/v1/score.
func (h *Handlers) ScoreRelevance(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req ScoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	ranked, err := h.scorer.Rank(r.Context(), &req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SCORING_ERROR", "failed to score candidates", err)
		return
	}

	respondData(w, http.StatusOK, map[string]any{"results": ranked}, started)
}

// AssemblePageRequest describes the slots to fill.
type AssemblePageRequest struct {
	Slots []assembly.SlotDefinition `json:"slots" validate:"required,min=1,max=16,dive"`
}

// AssemblePage handles POST /api/v1/sessions/{sessionID}/page.
func (h *Handlers) AssemblePage(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "MISSING_SESSION", "session ID is required", nil)
		return
	}

	var req AssemblePageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	for _, slot := range req.Slots {
		if !slot.SlotType.Valid() {
			respondError(w, http.StatusBadRequest, "INVALID_SLOT",
				"unknown slot type: "+string(slot.SlotType), nil)
			return
		}
	}

	page := h.personalizer.AssemblePage(r.Context(), sessionID, req.Slots)
	respondData(w, http.StatusOK, page, started)
}
