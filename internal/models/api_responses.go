// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

// Package models contains shared API envelope types used by all HTTP endpoints.
package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by every endpoint.
// It provides a consistent structure for both successful and error responses,
// with metadata for observability.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"weights": {"technology": 0.62, "science": 0.38}},
//	  "metadata": {"timestamp": "2026-08-28T12:00:00Z", "query_time_ms": 12}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
//
// Fields:
//   - Timestamp: server time when the response was generated
//   - QueryTimeMS: processing time in milliseconds (0 when served from cache)
//   - Cached: whether the response was served from cache (omitted if false)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents structured error details in an error response.
//
// Common error codes:
//   - VALIDATION_ERROR: invalid input parameters
//   - INVALID_SIGNAL: malformed signal payload or unknown signal type
//   - TEST_CONFIG_INVALID: A/B test configuration rejected
//   - NOT_FOUND: resource doesn't exist
//   - STORAGE_ERROR: persistence failure
//   - RATE_LIMIT_EXCEEDED: too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
