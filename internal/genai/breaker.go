// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package genai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings tunes the circuit breaker around a provider.
type BreakerSettings struct {
	// MaxFailures trips the breaker once consecutive failures reach it.
	MaxFailures uint32

	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings returns production defaults.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
	}
}

// BreakerProvider decorates a Provider with a circuit breaker. While the
// breaker is open every call fails fast with ErrUnavailable, so assembly
// falls back to default copy instead of waiting on a degraded upstream.
type BreakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[*Result]
	logger  zerolog.Logger
}

// NewBreakerProvider wraps a provider with breaker protection.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBreakerProvider(inner Provider, settings BreakerSettings, logger zerolog.Logger) *BreakerProvider {
	componentLogger := logger.With().Str("component", "genai").Logger()

	breaker := gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name: "genai-provider",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		Timeout: settings.OpenTimeout,
		OnStateChange: func(name string, from, to gobreaker.State) {
			componentLogger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("provider breaker state changed")
		},
	})

	return &BreakerProvider{
		inner:   inner,
		breaker: breaker,
		logger:  componentLogger,
	}
}

// Generate implements Provider with breaker protection.
func (p *BreakerProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	result, err := p.breaker.Execute(func() (*Result, error) {
		return p.inner.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: breaker open", ErrUnavailable)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return result, nil
}
