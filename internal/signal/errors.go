// Tailor - Real-Time Content Personalization Engine
// Copyright 2026 Tailor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tailorhq/tailor

package signal

import "errors"

var (
	// ErrInvalidSignal indicates a malformed payload or unknown signal type.
	// Rejected at ingestion, surfaced synchronously to the caller.
	ErrInvalidSignal = errors.New("invalid signal")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("signal store is closed")
)
