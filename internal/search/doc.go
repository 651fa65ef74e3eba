// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package search finds messages in conversation history with relevance
// ranking, filtering and a TTL cache.
//
// The Engine prefers the backend's search endpoint and silently falls
// back to a local scan over a ThreadIndex when the remote path fails;
// a failed remote search is invisible to the caller beyond possibly
// different relevance characteristics.
//
// # Key Types
//
//   - Filters: thread, role, message-type and date-range constraints
//   - Result: a matched message with its thread title and score
//   - Cache: TTL-bounded memoization keyed by (query, filters)
//   - Engine: remote search with local fallback and ranking
package search
