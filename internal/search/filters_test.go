// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"testing"
	"time"

	"github.com/jeranaias/opschat/internal/model"
)

func TestCacheKeyDeterministic(t *testing.T) {
	a := Filters{ThreadIDs: []string{"t2", "t1"}, Role: "user"}
	b := Filters{ThreadIDs: []string{"t1", "t2"}, Role: "user"}

	if a.CacheKey("q") != b.CacheKey("q") {
		t.Error("thread-id order must not change the cache key")
	}
	if a.CacheKey("q") == a.CacheKey("other") {
		t.Error("different queries must produce different keys")
	}
	if (Filters{}).CacheKey("q") == (Filters{Role: "user"}).CacheKey("q") {
		t.Error("different filters must produce different keys")
	}
	// Empty and explicit "all" are the same constraint.
	if (Filters{}).CacheKey("q") != (Filters{Role: RoleAll, MessageType: TypeAll, DateRange: DateRangeNone}).CacheKey("q") {
		t.Error("zero-value filters should key identically to explicit all")
	}
}

func TestFiltersMatchesRoleAndType(t *testing.T) {
	now := time.Now()
	m := &model.Message{Role: model.RoleUser, Type: "text", CreatedAt: now}

	tests := []struct {
		name    string
		filters Filters
		want    bool
	}{
		{"zero value admits all", Filters{}, true},
		{"matching role", Filters{Role: "user"}, true},
		{"mismatched role", Filters{Role: "assistant"}, false},
		{"explicit all role", Filters{Role: RoleAll}, true},
		{"matching type", Filters{MessageType: "text"}, true},
		{"mismatched type", Filters{MessageType: "code"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filters.Matches(m, now); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFiltersMatchesUntypedMessageAsText(t *testing.T) {
	now := time.Now()
	m := &model.Message{Role: model.RoleUser, CreatedAt: now}
	if !(Filters{MessageType: "text"}).Matches(m, now) {
		t.Error("untyped messages should count as text")
	}
}

func TestDateRangeContains(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		rng   DateRange
		at    time.Time
		want  bool
	}{
		{"none admits anything", DateRangeNone, now.AddDate(-1, 0, 0), true},
		{"today same calendar date", DateRangeToday, time.Date(2026, 3, 15, 0, 30, 0, 0, time.UTC), true},
		{"today excludes yesterday evening", DateRangeToday, time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC), false},
		{"week is rolling 7x24h", DateRangeWeek, now.Add(-7*24*time.Hour + time.Minute), true},
		{"week excludes older", DateRangeWeek, now.Add(-7*24*time.Hour - time.Minute), false},
		{"month is calendar lookback", DateRangeMonth, time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC), true},
		{"month excludes earlier", DateRangeMonth, time.Date(2026, 2, 15, 11, 59, 0, 0, time.UTC), false},
		{"three months calendar lookback", DateRangeThreeMonths, time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC), true},
		{"three months excludes earlier", DateRangeThreeMonths, time.Date(2025, 12, 14, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &model.Message{CreatedAt: tt.at}
			if got := (Filters{DateRange: tt.rng}).Matches(m, now); got != tt.want {
				t.Errorf("Matches(createdAt=%v, range=%s) = %v, want %v", tt.at, tt.rng, got, tt.want)
			}
		})
	}
}

func TestWantsThread(t *testing.T) {
	if !(Filters{}).wantsThread("any") {
		t.Error("empty filter admits every thread")
	}
	f := Filters{ThreadIDs: []string{"t1", "t2"}}
	if !f.wantsThread("t2") || f.wantsThread("t3") {
		t.Error("thread filter should admit listed IDs only")
	}
}
