// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package config provides layered configuration for Tailor using Koanf v2.
//
// Configuration is loaded from three layers, highest priority last:
//  1. Built-in defaults (DefaultConfig)
//  2. Optional YAML config file (config.yaml, or TAILOR_CONFIG_PATH)
//  3. Environment variables with the TAILOR_ prefix
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Tailor server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Storage  StorageConfig  `koanf:"storage"`
	Signals  SignalsConfig  `koanf:"signals"`
	Interest InterestConfig `koanf:"interest"`
	Scoring  ScoringConfig  `koanf:"scoring"`
	Assembly AssemblyConfig `koanf:"assembly"`
	ABTest   ABTestConfig   `koanf:"abtest"`
	Gap      GapConfig      `koanf:"gap"`
	API      APIConfig      `koanf:"api"`
	Catalog  CatalogConfig  `koanf:"catalog"`
}

// CatalogConfig holds content catalog settings.
type CatalogConfig struct {
	// Path is an optional JSON bootstrap file with content items and
	// component variants. Empty starts with an empty catalog.
	Path string `koanf:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address.
	Host string `koanf:"host"`

	// Port is the listen port.
	Port int `koanf:"port"`

	// Timeout is the read/write timeout for HTTP connections.
	Timeout time.Duration `koanf:"timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment is "development" or "production".
	Environment string `koanf:"environment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// Path is the BadgerDB data directory.
	Path string `koanf:"path"`

	// InMemory runs Badger without disk persistence. Intended for
	// development and tests.
	InMemory bool `koanf:"in_memory"`
}

// SignalsConfig holds behavioral signal ingestion settings.
type SignalsConfig struct {
	// RetentionDays is the hard cutoff after which signals no longer
	// contribute to scoring and become eligible for purging.
	RetentionDays int `koanf:"retention_days"`

	// PurgeInterval is how often the retention purge runs.
	PurgeInterval time.Duration `koanf:"purge_interval"`

	// BaseWeights are the per-type base weights applied before decay.
	BaseWeights BaseWeightsConfig `koanf:"base_weights"`
}

// BaseWeightsConfig holds the per-signal-type base weights.
type BaseWeightsConfig struct {
	SearchQuery        float64 `koanf:"search_query"`
	ContentClick       float64 `koanf:"content_click"`
	TimeSpent          float64 `koanf:"time_spent"`
	TaxonomyEngagement float64 `koanf:"taxonomy_engagement"`
	CTAClick           float64 `koanf:"cta_click"`
}

// InterestConfig holds interest vector inference settings.
type InterestConfig struct {
	// HalfLife controls exponential signal decay. A signal loses half its
	// weight every HalfLife.
	HalfLife time.Duration `koanf:"half_life"`

	// ConfidenceThreshold gates personalization. Sessions below it receive
	// fallback variants for every slot.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	// CacheTTL is how long a computed vector stays fresh with no new signals.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// RecomputeBudget is the soft deadline for one vector recomputation.
	RecomputeBudget time.Duration `koanf:"recompute_budget"`

	// CorpusScope selects the IDF reference corpus: "global_signals"
	// (recent signals across sessions) or "content_catalog".
	CorpusScope string `koanf:"corpus_scope"`
}

// ScoringConfig holds relevance scoring and diversity selection settings.
type ScoringConfig struct {
	// ScoreBudget is the soft deadline for scoring one candidate batch.
	ScoreBudget time.Duration `koanf:"score_budget"`

	// DiversityFactor is the target fraction of selected items drawn from
	// categories outside the dominant interest categories.
	DiversityFactor float64 `koanf:"diversity_factor"`

	// DominantCategories is how many top interest categories count as
	// "dominant" for the diversity quota.
	DominantCategories int `koanf:"dominant_categories"`
}

// AssemblyConfig holds page assembly settings.
type AssemblyConfig struct {
	// PageBudget is the soft end-to-end deadline for full-page assembly.
	PageBudget time.Duration `koanf:"page_budget"`
}

// ABTestConfig holds experiment engine settings.
type ABTestConfig struct {
	// ConfidenceLevel is the minimum confidence required to declare a
	// winner, e.g. 0.95.
	ConfidenceLevel float64 `koanf:"confidence_level"`

	// AllocationTolerance is the allowed deviation of traffic allocations
	// from summing to exactly 1.0.
	AllocationTolerance float64 `koanf:"allocation_tolerance"`
}

// GapConfig holds content gap analyzer settings.
type GapConfig struct {
	// MinMatches is the minimum number of relevant catalog items below
	// which a topic is flagged as a content gap.
	MinMatches int `koanf:"min_matches"`

	// MaxSubtopics bounds suggested subtopics per gap report.
	MaxSubtopics int `koanf:"max_subtopics"`

	// WorkerRate throttles gap analysis events processed per second.
	WorkerRate float64 `koanf:"worker_rate"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	// RateLimitReqs is the request budget per window for read endpoints.
	RateLimitReqs int `koanf:"rate_limit_reqs"`

	// IngestRateLimitReqs is the request budget per window for the
	// high-frequency signal ingest endpoint.
	IngestRateLimitReqs int `koanf:"ingest_rate_limit_reqs"`

	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`
}

// DefaultConfig returns a Config with all default values applied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8415,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Storage: StorageConfig{
			Path:     "/data/tailor",
			InMemory: false,
		},
		Signals: SignalsConfig{
			RetentionDays: 30,
			PurgeInterval: time.Hour,
			BaseWeights: BaseWeightsConfig{
				SearchQuery:        1.0,
				ContentClick:       1.5,
				TimeSpent:          2.0,
				TaxonomyEngagement: 1.2,
				CTAClick:           2.5,
			},
		},
		Interest: InterestConfig{
			HalfLife:            7 * 24 * time.Hour,
			ConfidenceThreshold: 0.6,
			CacheTTL:            time.Hour,
			RecomputeBudget:     50 * time.Millisecond,
			CorpusScope:         "global_signals",
		},
		Scoring: ScoringConfig{
			ScoreBudget:        50 * time.Millisecond,
			DiversityFactor:    0.3,
			DominantCategories: 3,
		},
		Assembly: AssemblyConfig{
			PageBudget: 300 * time.Millisecond,
		},
		ABTest: ABTestConfig{
			ConfidenceLevel:     0.95,
			AllocationTolerance: 0.001,
		},
		Gap: GapConfig{
			MinMatches:   2,
			MaxSubtopics: 5,
			WorkerRate:   10,
		},
		API: APIConfig{
			RateLimitReqs:       300,
			IngestRateLimitReqs: 3000,
			RateLimitWindow:     time.Minute,
			CORSOrigins:         []string{"*"},
		},
	}
}

// Validate checks every tunable for sanity. It is called by Load and should
// also be called after programmatic construction.
//
//nolint:gocyclo // sequential validation of independent fields
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required unless storage.in_memory is set")
	}
	if c.Signals.RetentionDays <= 0 {
		return fmt.Errorf("signals.retention_days must be positive, got %d", c.Signals.RetentionDays)
	}
	if c.Signals.PurgeInterval <= 0 {
		return fmt.Errorf("signals.purge_interval must be positive")
	}
	for name, w := range map[string]float64{
		"search_query":        c.Signals.BaseWeights.SearchQuery,
		"content_click":       c.Signals.BaseWeights.ContentClick,
		"time_spent":          c.Signals.BaseWeights.TimeSpent,
		"taxonomy_engagement": c.Signals.BaseWeights.TaxonomyEngagement,
		"cta_click":           c.Signals.BaseWeights.CTAClick,
	} {
		if w < 0 {
			return fmt.Errorf("signals.base_weights.%s must be non-negative, got %g", name, w)
		}
	}
	if c.Interest.HalfLife <= 0 {
		return fmt.Errorf("interest.half_life must be positive")
	}
	if c.Interest.ConfidenceThreshold < 0 || c.Interest.ConfidenceThreshold > 1 {
		return fmt.Errorf("interest.confidence_threshold must be in [0, 1], got %g", c.Interest.ConfidenceThreshold)
	}
	if c.Interest.CacheTTL <= 0 {
		return fmt.Errorf("interest.cache_ttl must be positive")
	}
	if c.Interest.RecomputeBudget <= 0 {
		return fmt.Errorf("interest.recompute_budget must be positive")
	}
	switch c.Interest.CorpusScope {
	case "global_signals", "content_catalog":
	default:
		return fmt.Errorf("interest.corpus_scope must be global_signals or content_catalog, got %q", c.Interest.CorpusScope)
	}
	if c.Scoring.DiversityFactor < 0 || c.Scoring.DiversityFactor > 1 {
		return fmt.Errorf("scoring.diversity_factor must be in [0, 1], got %g", c.Scoring.DiversityFactor)
	}
	if c.Scoring.DominantCategories < 1 {
		return fmt.Errorf("scoring.dominant_categories must be at least 1, got %d", c.Scoring.DominantCategories)
	}
	if c.Assembly.PageBudget <= 0 {
		return fmt.Errorf("assembly.page_budget must be positive")
	}
	if c.ABTest.ConfidenceLevel <= 0.5 || c.ABTest.ConfidenceLevel >= 1 {
		return fmt.Errorf("abtest.confidence_level must be in (0.5, 1), got %g", c.ABTest.ConfidenceLevel)
	}
	if c.ABTest.AllocationTolerance <= 0 || c.ABTest.AllocationTolerance > 0.05 {
		return fmt.Errorf("abtest.allocation_tolerance must be in (0, 0.05], got %g", c.ABTest.AllocationTolerance)
	}
	if c.Gap.MinMatches < 1 {
		return fmt.Errorf("gap.min_matches must be at least 1, got %d", c.Gap.MinMatches)
	}
	if c.Gap.WorkerRate <= 0 {
		return fmt.Errorf("gap.worker_rate must be positive, got %g", c.Gap.WorkerRate)
	}
	if c.API.RateLimitReqs < 1 || c.API.IngestRateLimitReqs < 1 {
		return fmt.Errorf("api rate limits must be at least 1")
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("api.rate_limit_window must be positive")
	}
	return nil
}
