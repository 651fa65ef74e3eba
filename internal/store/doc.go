// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the SQLite-backed thread and message index.
//
// It implements search.ThreadIndex for the local search fallback and
// persists the message history written by the hosting application.
package store
