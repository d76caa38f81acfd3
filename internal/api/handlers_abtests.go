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

	"github.com/tailorhq/tailor/internal/abtest"
	"github.com/tailorhq/tailor/internal/catalog"
)

// CreateTestRequest is the test creation payload.
type CreateTestRequest struct {
	Name     string           `json:"name" validate:"required,max=200"`
	SlotType string           `json:"slot_type" validate:"required"`
	Variants []abtest.Variant `json:"variants" validate:"required,min=2,dive"`
}

// CreateTest handles POST /api/v1/abtests.
func (h *Handlers) CreateTest(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req CreateTestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	test := &abtest.Test{
		Name:     req.Name,
		SlotType: catalog.SlotType(req.SlotType),
		Variants: req.Variants,
	}

	created, err := h.ab.Create(r.Context(), test)
	if err != nil {
		if errors.Is(err, abtest.ErrTestConfigInvalid) {
			respondError(w, http.StatusBadRequest, "TEST_CONFIG_INVALID", err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to create test", err)
		return
	}

	respondData(w, http.StatusCreated, created, started)
}

// ListTests handles GET /api/v1/abtests.
func (h *Handlers) ListTests(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	tests, err := h.ab.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to list tests", err)
		return
	}

	respondData(w, http.StatusOK, map[string]any{"tests": tests}, started)
}

// GetTest handles GET /api/v1/abtests/{testID}.
func (h *Handlers) GetTest(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	test, err := h.ab.Get(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		h.respondTestError(w, err)
		return
	}

	respondData(w, http.StatusOK, test, started)
}

// TransitionRequest moves a test through its lifecycle.
type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused completed"`
}

// TransitionTest handles POST /api/v1/abtests/{testID}/status.
func (h *Handlers) TransitionTest(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	test, err := h.ab.Transition(r.Context(), chi.URLParam(r, "testID"), abtest.Status(req.Status))
	if err != nil {
		if errors.Is(err, abtest.ErrInvalidTransition) {
			respondError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
			return
		}
		h.respondTestError(w, err)
		return
	}

	respondData(w, http.StatusOK, test, started)
}

// GetVariant handles GET /api/v1/abtests/{testID}/variant?session_id=.
func (h *Handlers) GetVariant(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "MISSING_SESSION", "session_id query parameter is required", nil)
		return
	}

	variantID, err := h.ab.Variant(r.Context(), chi.URLParam(r, "testID"), sessionID)
	if err != nil {
		if errors.Is(err, abtest.ErrTestNotActive) {
			respondError(w, http.StatusConflict, "TEST_NOT_ACTIVE", err.Error(), nil)
			return
		}
		h.respondTestError(w, err)
		return
	}

	respondData(w, http.StatusOK, map[string]string{"variant_id": variantID}, started)
}

// OutcomeRequest records an impression or conversion.
type OutcomeRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128,excludesall=0x3A"`
	VariantID string `json:"variant_id" validate:"required,max=128"`
}

// TrackImpression handles POST /api/v1/abtests/{testID}/impression.
func (h *Handlers) TrackImpression(w http.ResponseWriter, r *http.Request) {
	h.trackOutcome(w, r, abtest.OutcomeImpression)
}

// TrackConversion handles POST /api/v1/abtests/{testID}/conversion.
func (h *Handlers) TrackConversion(w http.ResponseWriter, r *http.Request) {
	h.trackOutcome(w, r, abtest.OutcomeConversion)
}

func (h *Handlers) trackOutcome(w http.ResponseWriter, r *http.Request, kind abtest.OutcomeKind) {
	started := time.Now()

	var req OutcomeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	err := h.ab.RecordOutcome(r.Context(), chi.URLParam(r, "testID"), req.VariantID, req.SessionID, kind)
	if err != nil {
		if errors.Is(err, abtest.ErrTestConfigInvalid) {
			respondError(w, http.StatusBadRequest, "INVALID_OUTCOME", err.Error(), nil)
			return
		}
		h.respondTestError(w, err)
		return
	}

	respondData(w, http.StatusAccepted, map[string]string{"recorded": string(kind)}, started)
}

// TestResults handles GET /api/v1/abtests/{testID}/results.
func (h *Handlers) TestResults(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	results, err := h.ab.Analyze(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		h.respondTestError(w, err)
		return
	}

	respondData(w, http.StatusOK, results, started)
}

func (h *Handlers) respondTestError(w http.ResponseWriter, err error) {
	if errors.Is(err, abtest.ErrTestNotFound) {
		respondError(w, http.StatusNotFound, "TEST_NOT_FOUND", err.Error(), nil)
		return
	}
	respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "test operation failed", err)
}
