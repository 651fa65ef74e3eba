// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/opschat/internal/model"
)

// =============================================================================
// DATE RANGE
// =============================================================================

// DateRange restricts results by message age.
type DateRange string

const (
	DateRangeNone        DateRange = "none"
	DateRangeToday       DateRange = "today"
	DateRangeWeek        DateRange = "week"
	DateRangeMonth       DateRange = "month"
	DateRangeThreeMonths DateRange = "3months"
)

// contains reports whether t falls inside the range relative to now.
// "today" means the same calendar date; "week" is a rolling 7x24h
// window; "month" and "3months" are calendar lookbacks, not 30/90 days.
func (d DateRange) contains(t, now time.Time) bool {
	switch d {
	case DateRangeToday:
		y1, m1, d1 := t.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case DateRangeWeek:
		return !t.Before(now.Add(-7 * 24 * time.Hour))
	case DateRangeMonth:
		return !t.Before(now.AddDate(0, -1, 0))
	case DateRangeThreeMonths:
		return !t.Before(now.AddDate(0, -3, 0))
	default:
		return true
	}
}

// =============================================================================
// FILTERS
// =============================================================================

// RoleAll and TypeAll disable the role and message-type filters.
const (
	RoleAll = "all"
	TypeAll = "all"
)

// Filters is the immutable filter set for one search. The zero value
// means "no constraints"; it doubles as part of the cache key, so equal
// filter sets must serialize identically.
type Filters struct {
	// ThreadIDs restricts the search to these threads (empty = all).
	ThreadIDs []string

	// DateRange restricts results by message age.
	DateRange DateRange

	// Role restricts by sender role ("all" or empty = any).
	Role string

	// MessageType restricts by message type ("all" or empty = any).
	MessageType string
}

// CacheKey deterministically serializes the query and filters. Thread
// IDs are sorted so logically equal filter sets share an entry.
func (f Filters) CacheKey(query string) string {
	ids := append([]string(nil), f.ThreadIDs...)
	sort.Strings(ids)

	rng := f.DateRange
	if rng == "" {
		rng = DateRangeNone
	}

	var sb strings.Builder
	sb.WriteString(query)
	sb.WriteString("|threads=")
	sb.WriteString(strings.Join(ids, ","))
	sb.WriteString("|range=")
	sb.WriteString(string(rng))
	sb.WriteString("|role=")
	sb.WriteString(normalizeAll(f.Role))
	sb.WriteString("|type=")
	sb.WriteString(normalizeAll(f.MessageType))
	return sb.String()
}

// Matches applies the role, message-type and date-range filters.
// Thread membership is handled by the engine when selecting threads.
func (f Filters) Matches(msg *model.Message, now time.Time) bool {
	if role := normalizeAll(f.Role); role != RoleAll && string(msg.Role) != role {
		return false
	}
	if typ := normalizeAll(f.MessageType); typ != TypeAll {
		msgType := msg.Type
		if msgType == "" {
			msgType = "text"
		}
		if msgType != typ {
			return false
		}
	}
	return f.DateRange.contains(msg.CreatedAt, now)
}

// wantsThread reports whether the thread-id filter admits id.
func (f Filters) wantsThread(id string) bool {
	if len(f.ThreadIDs) == 0 {
		return true
	}
	for _, want := range f.ThreadIDs {
		if want == id {
			return true
		}
	}
	return false
}

// normalizeAll maps the empty string onto the explicit "all" marker.
func normalizeAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
