// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSignalValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		sig     Signal
		wantErr bool
	}{
		{
			name: "valid search query",
			sig: Signal{
				SessionID:  "sess-1",
				SignalType: TypeSearchQuery,
				Payload:    SearchQueryPayload{Query: "smart home automation"},
				BaseWeight: 1.0,
				Timestamp:  now,
			},
		},
		{
			name: "missing session",
			sig: Signal{
				SignalType: TypeSearchQuery,
				Payload:    SearchQueryPayload{Query: "x"},
			},
			wantErr: true,
		},
		{
			name: "session with colon",
			sig: Signal{
				SessionID:  "a:b",
				SignalType: TypeSearchQuery,
				Payload:    SearchQueryPayload{Query: "x"},
			},
			wantErr: true,
		},
		{
			name: "unknown type",
			sig: Signal{
				SessionID:  "sess-1",
				SignalType: Type("page_scroll"),
				Payload:    SearchQueryPayload{Query: "x"},
			},
			wantErr: true,
		},
		{
			name: "payload type mismatch",
			sig: Signal{
				SessionID:  "sess-1",
				SignalType: TypeContentClick,
				Payload:    SearchQueryPayload{Query: "x"},
			},
			wantErr: true,
		},
		{
			name: "empty query",
			sig: Signal{
				SessionID:  "sess-1",
				SignalType: TypeSearchQuery,
				Payload:    SearchQueryPayload{},
			},
			wantErr: true,
		},
		{
			name: "negative engagement",
			sig: Signal{
				SessionID:  "sess-1",
				SignalType: TypeTimeSpent,
				Payload:    TimeSpentPayload{Category: "technology", EngagementSeconds: -3},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sig.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSignal) {
				t.Errorf("validation error should wrap ErrInvalidSignal, got %v", err)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := &Signal{
		ID:         "id-1",
		SessionID:  "sess-1",
		SignalType: TypeTimeSpent,
		Payload:    TimeSpentPayload{ContentID: "c-9", Category: "technology", EngagementSeconds: 240},
		BaseWeight: 2.0,
		Timestamp:  time.Now().Truncate(time.Millisecond),
	}

	data, err := Encode(orig)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	payload, ok := got.Payload.(TimeSpentPayload)
	if !ok {
		t.Fatalf("decoded payload type = %T, want TimeSpentPayload", got.Payload)
	}
	if payload.EngagementSeconds != 240 || payload.Category != "technology" {
		t.Errorf("decoded payload = %+v", payload)
	}
	if got.BaseWeight != 2.0 || got.SessionID != "sess-1" {
		t.Errorf("decoded envelope = %+v", got)
	}
}

func TestParsePayloadUnknownType(t *testing.T) {
	_, err := ParsePayload(Type("bogus"), []byte(`{}`))
	if !errors.Is(err, ErrInvalidSignal) {
		t.Errorf("expected ErrInvalidSignal, got %v", err)
	}
}

func TestTimeSpentContributionBuckets(t *testing.T) {
	tests := []struct {
		seconds int
		want    float64
	}{
		{5, 0.5},
		{45, 1.0},
		{240, 1.5},
		{600, 2.0},
	}

	for _, tt := range tests {
		p := TimeSpentPayload{Category: "technology", EngagementSeconds: tt.seconds}
		contribs := p.Contributions(nil)
		if len(contribs) != 1 || contribs[0].Weight != tt.want {
			t.Errorf("Contributions(%ds) = %v, want weight %v", tt.seconds, contribs, tt.want)
		}
	}
}

func TestMemoryStoreAppendAndRead(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	for i, age := range []time.Duration{48 * time.Hour, 24 * time.Hour, time.Hour} {
		sig := &Signal{
			SessionID:  "sess-1",
			SignalType: TypeContentClick,
			Payload:    ContentClickPayload{ContentID: "c", Category: "technology"},
			BaseWeight: 1.5,
			Timestamp:  now.Add(-age),
		}
		if _, err := store.Append(ctx, sig); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	all, err := store.BySession(ctx, "sess-1", time.Time{})
	if err != nil {
		t.Fatalf("BySession: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d signals, want 3", len(all))
	}
	if !all[0].Timestamp.Before(all[1].Timestamp) {
		t.Error("signals not ordered by arrival time")
	}

	recent, err := store.BySession(ctx, "sess-1", now.Add(-30*time.Hour))
	if err != nil {
		t.Fatalf("BySession with cutoff: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("got %d recent signals, want 2", len(recent))
	}
}

func TestMemoryStorePurge(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	old := &Signal{
		SessionID:  "sess-1",
		SignalType: TypeContentClick,
		Payload:    ContentClickPayload{ContentID: "c", Category: "technology"},
		Timestamp:  now.Add(-40 * 24 * time.Hour),
	}
	fresh := &Signal{
		SessionID:  "sess-1",
		SignalType: TypeContentClick,
		Payload:    ContentClickPayload{ContentID: "c", Category: "technology"},
		Timestamp:  now,
	}

	for _, sig := range []*Signal{old, fresh} {
		if _, err := store.Append(ctx, sig); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	purged, err := store.PurgeOlderThan(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	remaining, _ := store.BySession(ctx, "sess-1", time.Time{})
	if len(remaining) != 1 {
		t.Errorf("remaining = %d, want 1", len(remaining))
	}
}

// mockInvalidator records invalidated session IDs.
type mockInvalidator struct {
	sessions []string
}

func (m *mockInvalidator) Invalidate(sessionID string) {
	m.sessions = append(m.sessions, sessionID)
}

// mockPublisher records published signals and can fail on demand.
type mockPublisher struct {
	signals []*Signal
	err     error
}

func (m *mockPublisher) SignalRecorded(ctx context.Context, s *Signal) error {
	if m.err != nil {
		return m.err
	}
	m.signals = append(m.signals, s)
	return nil
}

func testWeights() BaseWeights {
	return BaseWeights{
		SearchQuery:        1.0,
		ContentClick:       1.5,
		TimeSpent:          2.0,
		TaxonomyEngagement: 1.2,
		CTAClick:           2.5,
	}
}

func TestRecorderRecord(t *testing.T) {
	store := NewMemoryStore()
	inv := &mockInvalidator{}
	pub := &mockPublisher{}
	rec := NewRecorder(store, testWeights(), inv, pub, zerolog.Nop())

	id, err := rec.Record(context.Background(), "sess-1", TypeContentClick,
		ContentClickPayload{ContentID: "c-1", Category: "technology"}, time.Time{})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id == "" {
		t.Error("expected assigned signal ID")
	}

	if len(inv.sessions) != 1 || inv.sessions[0] != "sess-1" {
		t.Errorf("invalidations = %v, want [sess-1]", inv.sessions)
	}
	if len(pub.signals) != 1 {
		t.Errorf("published = %d, want 1", len(pub.signals))
	}

	sigs, _ := store.BySession(context.Background(), "sess-1", time.Time{})
	if len(sigs) != 1 {
		t.Fatalf("stored = %d, want 1", len(sigs))
	}
	if sigs[0].BaseWeight != 1.5 {
		t.Errorf("base weight = %v, want 1.5 for content_click", sigs[0].BaseWeight)
	}
}

func TestRecorderRejectsInvalid(t *testing.T) {
	rec := NewRecorder(NewMemoryStore(), testWeights(), nil, nil, zerolog.Nop())

	_, err := rec.Record(context.Background(), "sess-1", TypeSearchQuery, SearchQueryPayload{}, time.Time{})
	if !errors.Is(err, ErrInvalidSignal) {
		t.Errorf("expected ErrInvalidSignal, got %v", err)
	}
}

func TestRecorderPublishFailureDoesNotFailIngest(t *testing.T) {
	pub := &mockPublisher{err: errors.New("bus down")}
	rec := NewRecorder(NewMemoryStore(), testWeights(), nil, pub, zerolog.Nop())

	_, err := rec.Record(context.Background(), "sess-1", TypeCTAClick,
		CTAClickPayload{CTAID: "cta-1", Category: "offers"}, time.Time{})
	if err != nil {
		t.Errorf("publish failure must not fail ingestion, got %v", err)
	}
}
