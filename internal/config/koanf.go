// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tailor/config.yaml",
	"/etc/tailor/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "TAILOR_CONFIG_PATH"

// envPrefix is stripped from environment variables before mapping to keys.
const envPrefix = "TAILOR_"

// envKeyMap maps environment variable names (without prefix) to koanf paths.
// Explicit mapping avoids ambiguity between underscores that separate path
// segments and underscores inside field names.
var envKeyMap = map[string]string{
	"SERVER_HOST":                  "server.host",
	"SERVER_PORT":                  "server.port",
	"SERVER_TIMEOUT":               "server.timeout",
	"SERVER_SHUTDOWN_TIMEOUT":      "server.shutdown_timeout",
	"SERVER_ENVIRONMENT":           "server.environment",
	"LOG_LEVEL":                    "logging.level",
	"LOG_FORMAT":                   "logging.format",
	"LOG_CALLER":                   "logging.caller",
	"STORAGE_PATH":                 "storage.path",
	"STORAGE_IN_MEMORY":            "storage.in_memory",
	"SIGNALS_RETENTION_DAYS":       "signals.retention_days",
	"SIGNALS_PURGE_INTERVAL":       "signals.purge_interval",
	"INTEREST_HALF_LIFE":           "interest.half_life",
	"INTEREST_CONFIDENCE":          "interest.confidence_threshold",
	"INTEREST_CACHE_TTL":           "interest.cache_ttl",
	"INTEREST_RECOMPUTE_BUDGET":    "interest.recompute_budget",
	"INTEREST_CORPUS_SCOPE":        "interest.corpus_scope",
	"SCORING_SCORE_BUDGET":         "scoring.score_budget",
	"SCORING_DIVERSITY_FACTOR":     "scoring.diversity_factor",
	"SCORING_DOMINANT_CATEGORIES":  "scoring.dominant_categories",
	"ASSEMBLY_PAGE_BUDGET":         "assembly.page_budget",
	"ABTEST_CONFIDENCE_LEVEL":      "abtest.confidence_level",
	"ABTEST_ALLOCATION_TOLERANCE":  "abtest.allocation_tolerance",
	"GAP_MIN_MATCHES":              "gap.min_matches",
	"GAP_MAX_SUBTOPICS":            "gap.max_subtopics",
	"GAP_WORKER_RATE":              "gap.worker_rate",
	"API_RATE_LIMIT_REQS":          "api.rate_limit_reqs",
	"API_INGEST_RATE_LIMIT_REQS":   "api.ingest_rate_limit_reqs",
	"API_RATE_LIMIT_WINDOW":        "api.rate_limit_window",
	"API_CORS_ORIGINS":             "api.cors_origins",
}

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. TAILOR_-prefixed environment variables (highest priority)
//
// The resulting config is validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	// Comma-separated env values for slice fields.
	if origins := os.Getenv(envPrefix + "API_CORS_ORIGINS"); origins != "" {
		cfg.API.CORSOrigins = splitAndTrim(origins)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransform maps a prefixed environment variable name to a koanf path.
// Unknown variables are dropped so unrelated TAILOR_* vars can't corrupt
// the config tree.
func envTransform(key string) string {
	trimmed := strings.TrimPrefix(key, envPrefix)
	if path, ok := envKeyMap[trimmed]; ok {
		return path
	}
	return ""
}

// splitAndTrim splits a comma-separated value into trimmed elements.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
