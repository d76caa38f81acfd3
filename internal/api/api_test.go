// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/abtest"
	"github.com/tailorhq/tailor/internal/assembly"
	"github.com/tailorhq/tailor/internal/catalog"
	"github.com/tailorhq/tailor/internal/gap"
	"github.com/tailorhq/tailor/internal/interest"
	"github.com/tailorhq/tailor/internal/models"
	"github.com/tailorhq/tailor/internal/scoring"
	"github.com/tailorhq/tailor/internal/signal"
	"github.com/tailorhq/tailor/internal/textproc"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()

	store := signal.NewMemoryStore()
	corpus := textproc.NewCorpus()
	weighter := interest.NewTFIDFWeighter(corpus)
	calc := interest.NewCalculator(store, weighter, interest.Config{}, logger)

	weights := signal.BaseWeights{
		SearchQuery:        1.0,
		ContentClick:       1.5,
		TimeSpent:          2.0,
		TaxonomyEngagement: 1.2,
		CTAClick:           2.5,
	}
	recorder := signal.NewRecorder(store, weights, calc, nil, logger)

	provider := catalog.NewMemoryProvider()
	provider.AddItem(&catalog.ContentItem{
		ID:         "c-1",
		Title:      "Smart Home Automation Guide",
		Categories: map[string]float64{"technology": 1},
	})
	for _, v := range []*catalog.ComponentVariant{
		{ID: "hero-default", SlotType: catalog.SlotHeroBanner, IsDefault: true},
		{ID: "hero-tech", SlotType: catalog.SlotHeroBanner, Categories: map[string]float64{"technology": 1}},
		{ID: "cta-default", SlotType: catalog.SlotCTA, IsDefault: true},
	} {
		if err := provider.AddVariant(v); err != nil {
			t.Fatalf("AddVariant: %v", err)
		}
	}

	selector := scoring.NewSelector(0.3, 3, logger)
	abEngine := abtest.NewEngine(abtest.NewMemoryStore(), 0.95, logger)
	personalizer := assembly.NewPersonalizer(calc, provider, selector, abEngine, nil, assembly.Config{}, logger)
	analyzer := gap.NewAnalyzer(provider, 2, 5, logger)
	scorer := NewRelevanceService(calc, selector)

	handlers := NewHandlers(recorder, calc, personalizer, abEngine, analyzer, scorer,
		func() map[string]bool { return map[string]bool{"store": true} }, logger)

	server := httptest.NewServer(NewRouter(handlers, RouterConfig{}))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) (*http.Response, *models.APIResponse) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp, decodeEnvelope(t, resp)
}

func getJSON(t *testing.T, url string) (*http.Response, *models.APIResponse) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp, decodeEnvelope(t, resp)
}

func decodeEnvelope(t *testing.T, resp *http.Response) *models.APIResponse {
	t.Helper()
	defer resp.Body.Close()

	var envelope models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return &envelope
}

func recordSignal(t *testing.T, server *httptest.Server, sessionID, signalType string, payload any) {
	t.Helper()

	resp, envelope := postJSON(t, server.URL+"/api/v1/signals", map[string]any{
		"session_id":  sessionID,
		"signal_type": signalType,
		"payload":     payload,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record signal status = %d, envelope = %+v", resp.StatusCode, envelope)
	}
}

func TestRecordSignalAndGetInterest(t *testing.T) {
	server := testServer(t)

	recordSignal(t, server, "sess-1", "search_query", map[string]any{"query": "smart home automation"})
	recordSignal(t, server, "sess-1", "content_click", map[string]any{"content_id": "c-1", "category": "technology"})
	recordSignal(t, server, "sess-1", "time_spent", map[string]any{"content_id": "c-1", "category": "technology", "engagement_seconds": 240})
	recordSignal(t, server, "sess-1", "taxonomy_engagement", map[string]any{"category": "technology", "depth": 2})
	recordSignal(t, server, "sess-1", "cta_click", map[string]any{"cta_id": "cta-1", "category": "technology"})

	resp, envelope := getJSON(t, server.URL+"/api/v1/sessions/sess-1/interest")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("interest status = %d", resp.StatusCode)
	}

	data, _ := json.Marshal(envelope.Data)
	var vector interest.Vector
	if err := json.Unmarshal(data, &vector); err != nil {
		t.Fatalf("decode vector: %v", err)
	}

	if vector.SignalCount != 5 {
		t.Errorf("signal count = %d, want 5", vector.SignalCount)
	}
	if vector.Confidence <= 0.6 {
		t.Errorf("confidence = %v, want > 0.6", vector.Confidence)
	}

	best, bestWeight := "", 0.0
	for cat, w := range vector.Weights {
		if w > bestWeight {
			best, bestWeight = cat, w
		}
	}
	if best != "technology" {
		t.Errorf("dominant category = %q, want technology (weights %v)", best, vector.Weights)
	}
}

func TestRecordSignalRejectsInvalid(t *testing.T) {
	server := testServer(t)

	resp, envelope := postJSON(t, server.URL+"/api/v1/signals", map[string]any{
		"session_id":  "sess-1",
		"signal_type": "page_scroll",
		"payload":     map[string]any{},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != "INVALID_SIGNAL" {
		t.Errorf("error = %+v", envelope.Error)
	}

	resp, _ = postJSON(t, server.URL+"/api/v1/signals", map[string]any{
		"session_id":  "has:colon",
		"signal_type": "search_query",
		"payload":     map[string]any{"query": "x"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("colon session status = %d, want 400", resp.StatusCode)
	}
}

func TestAssemblePageFreshSession(t *testing.T) {
	server := testServer(t)

	resp, envelope := postJSON(t, server.URL+"/api/v1/sessions/fresh/page", map[string]any{
		"slots": []map[string]any{
			{"slot_type": "hero_banner"},
			{"slot_type": "cta"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	data, _ := json.Marshal(envelope.Data)
	var page assembly.PageResult
	if err := json.Unmarshal(data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}

	if !page.Metadata.FallbackUsed || page.Metadata.PersonalizationApplied {
		t.Errorf("metadata = %+v, want all-fallback", page.Metadata)
	}
	for _, slot := range page.Slots {
		if !slot.FallbackUsed {
			t.Errorf("slot %s should be fallback for a fresh session", slot.SlotType)
		}
	}
}

func TestAssemblePageRejectsUnknownSlot(t *testing.T) {
	server := testServer(t)

	resp, _ := postJSON(t, server.URL+"/api/v1/sessions/sess-1/page", map[string]any{
		"slots": []map[string]any{{"slot_type": "footer"}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestScoreRelevanceInlineWeights(t *testing.T) {
	server := testServer(t)

	resp, envelope := postJSON(t, server.URL+"/api/v1/score", map[string]any{
		"weights": map[string]float64{"technology": 0.8, "travel": 0.2},
		"candidates": []map[string]any{
			{"id": "a", "categories": map[string]float64{"travel": 1}},
			{"id": "b", "categories": map[string]float64{"technology": 1}},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	data, _ := json.Marshal(envelope.Data)
	var result struct {
		Results []ScoredCandidate `json:"results"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(result.Results) != 2 || result.Results[0].ID != "b" {
		t.Errorf("results = %+v, want b ranked first", result.Results)
	}
}

func TestABTestEndToEnd(t *testing.T) {
	server := testServer(t)

	resp, envelope := postJSON(t, server.URL+"/api/v1/abtests", map[string]any{
		"name":      "hero experiment",
		"slot_type": "hero_banner",
		"variants": []map[string]any{
			{"variant_id": "hero-default", "traffic_allocation": 0.5},
			{"variant_id": "hero-tech", "traffic_allocation": 0.5},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, envelope = %+v", resp.StatusCode, envelope)
	}

	data, _ := json.Marshal(envelope.Data)
	var created abtest.Test
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode test: %v", err)
	}

	base := server.URL + "/api/v1/abtests/" + created.ID

	resp, _ = postJSON(t, base+"/status", map[string]string{"status": "active"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate status = %d", resp.StatusCode)
	}

	resp, envelope = getJSON(t, base+"/variant?session_id=sess-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("variant status = %d", resp.StatusCode)
	}
	data, _ = json.Marshal(envelope.Data)
	var assignment struct {
		VariantID string `json:"variant_id"`
	}
	_ = json.Unmarshal(data, &assignment)

	for i := 0; i < 20; i++ {
		session := fmt.Sprintf("sess-%d", i)
		resp, _ = postJSON(t, base+"/impression", map[string]string{
			"session_id": session,
			"variant_id": assignment.VariantID,
		})
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("impression status = %d", resp.StatusCode)
		}
	}

	resp, envelope = getJSON(t, base+"/results")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results status = %d", resp.StatusCode)
	}
	data, _ = json.Marshal(envelope.Data)
	var results abtest.Results
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results.Variants) != 2 {
		t.Errorf("variants = %d, want 2", len(results.Variants))
	}
}

func TestGapAnalyzeEndpoint(t *testing.T) {
	server := testServer(t)

	resp, envelope := postJSON(t, server.URL+"/api/v1/gaps/analyze", map[string]string{
		"topic": "quantum computing applications",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	data, _ := json.Marshal(envelope.Data)
	var report gap.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !report.GapIdentified {
		t.Errorf("report = %+v, want gap identified", report)
	}
}

func TestHealthEndpoints(t *testing.T) {
	server := testServer(t)

	for _, path := range []string{"/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestAssemblePageReportsMillisecondTiming(t *testing.T) {
	server := testServer(t)

	resp, envelope := postJSON(t, server.URL+"/api/v1/sessions/fresh/page", map[string]any{
		"slots": []map[string]any{{"slot_type": "hero_banner"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	// Inspect the raw wire shape: assembly_time_ms must carry milliseconds,
	// bounded by the 300ms page budget, not raw nanoseconds.
	data, _ := json.Marshal(envelope.Data)
	var raw struct {
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}

	ms, ok := raw.Metadata["assembly_time_ms"].(float64)
	if !ok {
		t.Fatalf("assembly_time_ms missing or not numeric: %v", raw.Metadata)
	}
	if ms < 0 || ms > 600 {
		t.Errorf("assembly_time_ms = %v, want milliseconds within the page budget", ms)
	}
}
