// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"
)

// Router runs the bus's consumer handlers. A handler panic or error is
// contained by middleware; consumers never take the service down.
type Router struct {
	router     *message.Router
	subscriber message.Subscriber
}

// NewRouter creates a consumer router over the bus subscriber.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(subscriber message.Subscriber, logger zerolog.Logger) (*Router, error) {
	wmLogger := NewWatermillLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create event router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)

	return &Router{
		router:     router,
		subscriber: subscriber,
	}, nil
}

// Subscribe registers a consumer on a topic. Must be called before Run.
func (r *Router) Subscribe(name, topic string, handler message.NoPublishHandlerFunc) {
	r.router.AddNoPublisherHandler(name, topic, r.subscriber, handler)
}

// Run processes messages until the context is canceled.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running unblocks once the router is processing.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router.
func (r *Router) Close() error {
	return r.router.Close()
}
