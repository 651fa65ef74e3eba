// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package budget turns server-reported context-window optimization
// reports into user-facing warnings and strategy recommendations.
//
// Analysis is stateless: warnings are derived values, recomputed from
// each report and never persisted.
package budget
