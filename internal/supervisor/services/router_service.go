// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package services

import (
	"context"
	"fmt"
)

// EventRouter matches the consumer router's lifecycle. Satisfied by
// *events.Router.
type EventRouter interface {
	Run(ctx context.Context) error
}

// EventRouterService runs the watermill consumer router under supervision.
// Router.Run blocks until the context is canceled, so the adaptation is
// direct; a router failure surfaces to suture, which restarts it.
type EventRouterService struct {
	router EventRouter
	name   string
}

// NewEventRouterService wraps the event router for supervision. All
// Subscribe calls must happen before the tree starts serving.
func NewEventRouterService(router EventRouter) *EventRouterService {
	return &EventRouterService{
		router: router,
		name:   "event-router",
	}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	if err := s.router.Run(ctx); err != nil {
		return fmt.Errorf("event router failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *EventRouterService) String() string {
	return s.name
}
