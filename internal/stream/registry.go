// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"sync"
)

// =============================================================================
// SESSION REGISTRY
// =============================================================================

// Registry tracks live streaming sessions by identity so the caller can
// cancel one or all of them. Bookkeeping only: sessions register on
// start and deregister on their own terminal transition; the registry
// never times entries out on its own.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]context.CancelFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]context.CancelFunc),
	}
}

// Register records a session's cancellation handle.
func (r *Registry) Register(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = cancel
}

// Deregister removes a session. Safe to call for unknown IDs.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Cancel cancels one session by ID. Idempotent: cancelling an unknown
// or already-terminal session is a no-op.
func (r *Registry) Cancel(id string) {
	r.mu.Lock()
	cancel, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		cancel()
	}
}

// CancelAll cancels every live session. Iterates over a snapshot so
// deregistrations triggered by the cancellations cannot skip entries.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(r.sessions))
	for id, cancel := range r.sessions {
		cancels = append(cancels, cancel)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// HasActive reports whether any session is live.
func (r *Registry) HasActive() bool {
	return r.Count() > 0
}

// Reset cancels everything and empties the registry. Teardown hook for
// the hosting application and for tests.
func (r *Registry) Reset() {
	r.CancelAll()
}
