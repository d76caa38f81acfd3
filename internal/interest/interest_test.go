// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package interest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tailorhq/tailor/internal/signal"
	"github.com/tailorhq/tailor/internal/textproc"
)

func TestDecay(t *testing.T) {
	d := NewDecayer(7*24*time.Hour, 30)

	tests := []struct {
		name string
		base float64
		age  time.Duration
		want float64
		tol  float64
	}{
		{"fresh signal keeps full weight", 2.0, 0, 2.0, 1e-9},
		{"one half-life halves", 2.0, 7 * 24 * time.Hour, 1.0, 1e-9},
		{"two half-lives quarter", 2.0, 14 * 24 * time.Hour, 0.5, 1e-9},
		{"past cutoff is exactly zero", 2.0, 31 * 24 * time.Hour, 0, 0},
		{"negative age clamps to fresh", 1.5, -time.Hour, 1.5, 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Decay(tt.base, tt.age)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("Decay(%v, %v) = %v, want %v", tt.base, tt.age, got, tt.want)
			}
		})
	}
}

func TestDecayMonotonic(t *testing.T) {
	d := NewDecayer(7*24*time.Hour, 30)

	prev := d.Decay(1.0, 0)
	for age := 12 * time.Hour; age <= 30*24*time.Hour; age += 12 * time.Hour {
		cur := d.Decay(1.0, age)
		if cur > prev {
			t.Fatalf("decay not monotonic: weight rose at age %v", age)
		}
		prev = cur
	}
}

func TestConfidence(t *testing.T) {
	halfLife := 7 * 24 * time.Hour

	if got := confidence(0, 0, halfLife); got != 0 {
		t.Errorf("zero signals confidence = %v, want 0", got)
	}

	// Four fresh signals cross the 0.6 personalization threshold.
	fresh := confidence(4, 0, halfLife)
	if fresh <= 0.6 {
		t.Errorf("4 fresh signals confidence = %v, want > 0.6", fresh)
	}

	// The same count a week old does not.
	weekOld := confidence(4, 4*halfLife.Seconds(), halfLife)
	if weekOld >= fresh {
		t.Errorf("aged confidence %v should be below fresh %v", weekOld, fresh)
	}
	if weekOld > 0.6 {
		t.Errorf("4 week-old signals confidence = %v, want <= 0.6", weekOld)
	}

	// Volume saturates: confidence stays in [0,1] for large counts.
	if got := confidence(1000, 0, halfLife); got > 1 {
		t.Errorf("confidence = %v, want <= 1", got)
	}
}

func freshCalculator(store signal.Store) *Calculator {
	corpus := textproc.NewCorpus()
	return NewCalculator(store, NewTFIDFWeighter(corpus), Config{}, zerolog.Nop())
}

func seedSignals(t *testing.T, store signal.Store, sessionID string, n int, age time.Duration) {
	t.Helper()
	now := time.Now()
	categories := []string{"technology", "technology", "science", "technology", "finance"}

	for i := 0; i < n; i++ {
		sig := &signal.Signal{
			SessionID:  sessionID,
			SignalType: signal.TypeContentClick,
			Payload:    signal.ContentClickPayload{ContentID: "c", Category: categories[i%len(categories)]},
			BaseWeight: 1.5,
			Timestamp:  now.Add(-age),
		}
		if _, err := store.Append(context.Background(), sig); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func TestCalculatorGet(t *testing.T) {
	store := signal.NewMemoryStore()
	calc := freshCalculator(store)
	seedSignals(t, store, "sess-1", 5, time.Minute)

	v, err := calc.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if v.SignalCount != 5 {
		t.Errorf("SignalCount = %d, want 5", v.SignalCount)
	}

	var sum float64
	for cat, w := range v.Weights {
		if w < 0 {
			t.Errorf("negative weight for %q: %v", cat, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 0.01 {
		t.Errorf("weights sum = %v, want 1.0 ± 0.01", sum)
	}

	if v.Confidence <= 0.6 {
		t.Errorf("confidence = %v, want > 0.6 for 5 fresh signals", v.Confidence)
	}

	top := v.TopCategories(1)
	if len(top) != 1 || top[0] != "technology" {
		t.Errorf("top category = %v, want [technology]", top)
	}
}

func TestCalculatorEmptySession(t *testing.T) {
	calc := freshCalculator(signal.NewMemoryStore())

	v, err := calc.Get(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !v.Empty() {
		t.Errorf("expected empty vector, got %+v", v)
	}
	if v.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", v.Confidence)
	}
}

func TestCalculatorExpiredSignalsExcluded(t *testing.T) {
	store := signal.NewMemoryStore()
	calc := freshCalculator(store)

	seedSignals(t, store, "sess-1", 2, 40*24*time.Hour)
	seedSignals(t, store, "sess-1", 1, time.Minute)

	v, err := calc.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.SignalCount != 1 {
		t.Errorf("SignalCount = %d, want 1 (expired signals excluded)", v.SignalCount)
	}
}

func TestCalculatorCacheAndInvalidate(t *testing.T) {
	store := signal.NewMemoryStore()
	calc := freshCalculator(store)
	seedSignals(t, store, "sess-1", 3, time.Minute)

	v1, err := calc.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// Appending behind the calculator's back without invalidation serves
	// the cached vector.
	seedSignals(t, store, "sess-1", 2, time.Minute)
	v2, err := calc.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Get cached: %v", err)
	}
	if v2.SignalCount != v1.SignalCount {
		t.Errorf("cached SignalCount = %d, want %d", v2.SignalCount, v1.SignalCount)
	}

	calc.Invalidate("sess-1")
	v3, err := calc.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if v3.SignalCount != 5 {
		t.Errorf("recomputed SignalCount = %d, want 5", v3.SignalCount)
	}
}

func TestCalculatorCachedVectorIsImmutable(t *testing.T) {
	store := signal.NewMemoryStore()
	calc := freshCalculator(store)
	seedSignals(t, store, "sess-1", 3, time.Minute)

	v1, _ := calc.Get(context.Background(), "sess-1")
	for cat := range v1.Weights {
		v1.Weights[cat] = 99
	}

	v2, _ := calc.Get(context.Background(), "sess-1")
	for cat, w := range v2.Weights {
		if w == 99 {
			t.Fatalf("caller mutation leaked into cache for %q", cat)
		}
	}
}

// failingStore returns an error after a set number of successful reads.
type failingStore struct {
	*signal.MemoryStore
	failAfter int
	reads     int
}

func (s *failingStore) BySession(ctx context.Context, sessionID string, notBefore time.Time) ([]*signal.Signal, error) {
	s.reads++
	if s.reads > s.failAfter {
		return nil, errors.New("store unavailable")
	}
	return s.MemoryStore.BySession(ctx, sessionID, notBefore)
}

func TestCalculatorServesStaleOnStoreFailure(t *testing.T) {
	store := &failingStore{MemoryStore: signal.NewMemoryStore(), failAfter: 1}
	calc := freshCalculator(store)
	seedSignals(t, store.MemoryStore, "sess-1", 3, time.Minute)

	v1, err := calc.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}

	calc.Invalidate("sess-1")
	v2, err := calc.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Get with failing store should serve stale vector, got %v", err)
	}
	if v2.SignalCount != v1.SignalCount {
		t.Errorf("stale SignalCount = %d, want %d", v2.SignalCount, v1.SignalCount)
	}
}

func TestCalculatorFailureWithNoStaleVector(t *testing.T) {
	store := &failingStore{MemoryStore: signal.NewMemoryStore(), failAfter: 0}
	calc := freshCalculator(store)

	if _, err := calc.Get(context.Background(), "sess-1"); err == nil {
		t.Error("expected error when store fails and no stale vector exists")
	}
}

func TestTFIDFWeighter(t *testing.T) {
	corpus := textproc.NewCorpus()
	w := NewTFIDFWeighter(corpus)

	// Empty corpus: every weight is zero.
	for term, weight := range w.Weights("smart home automation") {
		if weight != 0 {
			t.Errorf("empty corpus weight for %q = %v, want 0", term, weight)
		}
	}

	w.Observe("smart home automation guide")
	w.Observe("kitchen renovation ideas")
	w.Observe("home security cameras")

	weights := w.Weights("smart thermostat")
	if weights["smart"] <= 0 {
		t.Errorf("weight for rare term 'smart' = %v, want > 0", weights["smart"])
	}
}

func TestEvictIdleDropsExpiredSessionState(t *testing.T) {
	store := signal.NewMemoryStore()
	calc := freshCalculator(store)
	seedSignals(t, store, "sess-old", 3, time.Minute)
	seedSignals(t, store, "sess-live", 3, time.Minute)

	calc.Invalidate("sess-old")
	if _, err := calc.Get(context.Background(), "sess-old"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	// The old session goes quiet; the live one keeps writing past the
	// retention window.
	base := time.Now()
	calc.now = func() time.Time { return base.Add(31 * 24 * time.Hour) }
	calc.Invalidate("sess-live")

	evicted := calc.EvictIdle(30 * 24 * time.Hour)
	if evicted != 1 {
		t.Fatalf("EvictIdle = %d, want 1", evicted)
	}

	calc.mu.RLock()
	_, inCache := calc.cache["sess-old"]
	_, inVersions := calc.versions["sess-old"]
	_, inLocks := calc.locks["sess-old"]
	_, inTouched := calc.touched["sess-old"]
	_, liveKept := calc.versions["sess-live"]
	calc.mu.RUnlock()

	if inCache || inVersions || inLocks || inTouched {
		t.Errorf("idle session still pinned: cache=%v versions=%v locks=%v touched=%v",
			inCache, inVersions, inLocks, inTouched)
	}
	if !liveKept {
		t.Error("active session evicted alongside the idle one")
	}

	// Evicted sessions are recomputable on demand; state rebuilds.
	if _, err := calc.Get(context.Background(), "sess-old"); err != nil {
		t.Fatalf("Get after eviction: %v", err)
	}
}
