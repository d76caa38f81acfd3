// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package textproc

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	tok := NewTokenizer()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercase and punctuation",
			input: "Smart Home, Automation!",
			want:  []string{"smart", "home", "automation"},
		},
		{
			name:  "stop words removed",
			input: "the best of all worlds",
			want:  []string{"best", "world"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "only stop words",
			input: "the and of",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTermFrequency(t *testing.T) {
	tf := TermFrequency([]string{"go", "go", "rust"})

	if got := tf["go"]; math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("tf[go] = %v, want 2/3", got)
	}
	if got := tf["rust"]; math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("tf[rust] = %v, want 1/3", got)
	}
}

func TestTermFrequencyEmptyDocument(t *testing.T) {
	tf := TermFrequency(nil)
	if len(tf) != 0 {
		t.Errorf("expected empty map for empty document, got %v", tf)
	}
}

func TestIDFSmoothing(t *testing.T) {
	c := NewCorpus()
	c.AddDocument([]string{"alpha", "beta"})
	c.AddDocument([]string{"alpha", "gamma"})
	c.AddDocument([]string{"delta"})

	// Term absent from corpus: smoothed denominator, no division by zero.
	got := c.IDF("missing")
	want := math.Log(3.0 / 1.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("IDF(missing) = %v, want %v", got, want)
	}

	// Rare term is weighted higher than a common one.
	if c.IDF("delta") <= c.IDF("alpha") {
		t.Errorf("IDF(delta)=%v should exceed IDF(alpha)=%v", c.IDF("delta"), c.IDF("alpha"))
	}
}

func TestIDFNeverNegative(t *testing.T) {
	c := NewCorpus()
	c.AddDocument([]string{"common"})
	c.AddDocument([]string{"common"})

	if got := c.IDF("common"); got < 0 {
		t.Errorf("IDF(common) = %v, want >= 0", got)
	}
}

func TestIDFEmptyCorpus(t *testing.T) {
	c := NewCorpus()
	if got := c.IDF("anything"); got != 0 {
		t.Errorf("IDF on empty corpus = %v, want 0", got)
	}
}

func TestTFIDF(t *testing.T) {
	c := NewCorpus()
	c.AddDocument([]string{"tech", "cloud"})
	c.AddDocument([]string{"garden"})
	c.AddDocument([]string{"tech", "garden"})

	weights := c.TFIDF([]string{"cloud", "cloud", "garden"})

	if len(weights) != 2 {
		t.Fatalf("expected 2 weighted terms, got %v", weights)
	}

	// cloud: tf=2/3, idf=ln(3/2); garden: tf=1/3, idf=ln(3/3)=0.
	wantCloud := (2.0 / 3.0) * math.Log(3.0/2.0)
	if math.Abs(weights["cloud"]-wantCloud) > 1e-9 {
		t.Errorf("tfidf[cloud] = %v, want %v", weights["cloud"], wantCloud)
	}

	if weights["garden"] != 0 {
		t.Errorf("tfidf[garden] = %v, want 0 (appears in 2 of 3 docs, smoothed)", weights["garden"])
	}
}

func TestTFIDFEmptyDocument(t *testing.T) {
	c := NewCorpus()
	c.AddDocument([]string{"something"})

	if got := c.TFIDF(nil); len(got) != 0 {
		t.Errorf("expected zero vector for empty document, got %v", got)
	}
}
