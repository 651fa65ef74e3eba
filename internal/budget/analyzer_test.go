// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package budget

import (
	"strings"
	"testing"

	"github.com/jeranaias/opschat/internal/model"
)

func TestAnalyzeCleanReport(t *testing.T) {
	warnings := Analyze(model.OptimizationReport{
		OriginalMessageCount:  10,
		OptimizedMessageCount: 10,
		ContextWindowUsed:     0.4,
	})
	if len(warnings) != 0 {
		t.Errorf("clean report should yield no warnings, got %+v", warnings)
	}
}

func TestAnalyzeApproachingLimit(t *testing.T) {
	tests := []struct {
		name     string
		usage    float64
		want     int
		severity Severity
	}{
		{"below threshold", 0.8, 0, ""},
		{"warning band", 0.85, 1, SeverityWarning},
		{"at critical boundary stays warning", 0.95, 1, SeverityWarning},
		{"critical", 0.97, 1, SeverityError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := Analyze(model.OptimizationReport{ContextWindowUsed: tt.usage})
			if len(warnings) != tt.want {
				t.Fatalf("got %d warnings, want %d: %+v", len(warnings), tt.want, warnings)
			}
			if tt.want == 0 {
				return
			}
			w := warnings[0]
			if w.Kind != KindApproachingLimit {
				t.Errorf("Kind = %s", w.Kind)
			}
			if w.Severity != tt.severity {
				t.Errorf("Severity = %s, want %s", w.Severity, tt.severity)
			}
		})
	}
}

func TestAnalyzeCriticalUsageMessage(t *testing.T) {
	warnings := Analyze(model.OptimizationReport{ContextWindowUsed: 0.97})
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want exactly 1", len(warnings))
	}
	if !strings.Contains(warnings[0].Message, "97% full") {
		t.Errorf("Message = %q, want usage percentage", warnings[0].Message)
	}
}

func TestAnalyzeHeavyTruncation(t *testing.T) {
	// 6 of 10 messages removed: optimization-applied plus
	// heavy-truncation, in that order.
	warnings := Analyze(model.OptimizationReport{
		OriginalMessageCount:  10,
		OptimizedMessageCount: 4,
		ContextWindowUsed:     0.5,
		TruncatedMessages:     6,
	})
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %+v", len(warnings), warnings)
	}
	if warnings[0].Kind != KindOptimizationApplied || warnings[0].Severity != SeverityInfo {
		t.Errorf("first warning = %+v", warnings[0])
	}
	if warnings[1].Kind != KindHeavyTruncation || warnings[1].Severity != SeverityWarning {
		t.Errorf("second warning = %+v", warnings[1])
	}
	if !strings.Contains(warnings[1].Message, "60%") {
		t.Errorf("Message = %q, want removal ratio", warnings[1].Message)
	}
}

func TestAnalyzeExactlyHalfIsNotHeavy(t *testing.T) {
	warnings := Analyze(model.OptimizationReport{
		OriginalMessageCount: 10,
		TruncatedMessages:    5,
	})
	for _, w := range warnings {
		if w.Kind == KindHeavyTruncation {
			t.Error("exactly half removed must not trigger heavy truncation")
		}
	}
}

func TestAnalyzeZeroOriginalCount(t *testing.T) {
	// Summarization without any original count: no ratio to compute,
	// so only the optimization notice fires.
	warnings := Analyze(model.OptimizationReport{SummarizedChunks: 3})
	if len(warnings) != 1 || warnings[0].Kind != KindOptimizationApplied {
		t.Fatalf("got %+v, want only optimization_applied", warnings)
	}
}

func TestOptimizationMessageWording(t *testing.T) {
	tests := []struct {
		name   string
		report model.OptimizationReport
		want   string
	}{
		{
			"singular message",
			model.OptimizationReport{TruncatedMessages: 1},
			"Context optimized: 1 message truncated",
		},
		{
			"plural messages",
			model.OptimizationReport{TruncatedMessages: 3},
			"Context optimized: 3 messages truncated",
		},
		{
			"chunks only",
			model.OptimizationReport{SummarizedChunks: 2},
			"Context optimized: 2 chunks summarized",
		},
		{
			"both parts",
			model.OptimizationReport{TruncatedMessages: 2, SummarizedChunks: 1},
			"Context optimized: 2 messages truncated, 1 chunk summarized",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := optimizationMessage(tt.report); got != tt.want {
				t.Errorf("optimizationMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzeMetricsSnapshot(t *testing.T) {
	report := model.OptimizationReport{OriginalMessageCount: 10, TruncatedMessages: 6}
	warnings := Analyze(report)
	if len(warnings) == 0 {
		t.Fatal("expected warnings")
	}
	report.TruncatedMessages = 0
	if warnings[0].Metrics.TruncatedMessages != 6 {
		t.Error("Metrics must be a snapshot, not a reference to the caller's report")
	}
}
