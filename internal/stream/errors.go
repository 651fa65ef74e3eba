// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

var (
	// ErrStreamIncomplete means the transport closed cleanly but no
	// Complete event was ever seen.
	ErrStreamIncomplete = errors.New("stream ended without final message")

	// ErrCancelled means the session was cancelled, by its owner or by
	// the caller's context. Distinguishable from transport failures so
	// the UI can tell "you cancelled this" from "this broke".
	ErrCancelled = errors.New("stream cancelled")
)

// TransportError wraps a network or HTTP-level failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stream transport failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a line that could not be decoded at all. Rare in
// practice: malformed payloads degrade to raw-text deltas instead.
type ProtocolError struct {
	Line string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("stream protocol error on %q: %v", e.Line, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// StreamError is a server-reported failure, preserving any partial
// content received before the error.
type StreamError struct {
	Partial string // Content received before the error
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
