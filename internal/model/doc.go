// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for threads and messages.
//
// These types mirror the wire shapes produced by the chat backend: a
// Message is one stored chat message, a Thread groups messages, and an
// OptimizationReport carries the server's context-window bookkeeping
// attached to a completed streamed message.
package model
