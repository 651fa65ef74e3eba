// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package budget

import (
	"fmt"

	"github.com/jeranaias/opschat/internal/model"
)

// =============================================================================
// WARNING TYPES
// =============================================================================

// Kind classifies a context-budget warning.
type Kind string

const (
	KindApproachingLimit    Kind = "approaching_limit"
	KindOptimizationApplied Kind = "optimization_applied"
	KindHeavyTruncation     Kind = "heavy_truncation"
)

// Severity grades a warning.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Warning is one derived context-budget finding.
type Warning struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`

	// Metrics is the report snapshot the warning was derived from.
	Metrics *model.OptimizationReport `json:"metrics,omitempty"`
}

// =============================================================================
// THRESHOLDS
// =============================================================================

// Threshold rules applied to each report.
const (
	// approachingLimitUsage triggers the approaching-limit warning.
	approachingLimitUsage = 0.8

	// criticalLimitUsage raises it to error severity.
	criticalLimitUsage = 0.95

	// heavyTruncationRatio is the fraction of original history whose
	// removal triggers the heavy-truncation warning.
	heavyTruncationRatio = 0.5
)

// =============================================================================
// ANALYSIS
// =============================================================================

// Analyze applies the threshold rules to a report. The rules are
// independent and may all fire; emission order is fixed (limit,
// optimization, heavy truncation).
func Analyze(report model.OptimizationReport) []Warning {
	warnings := []Warning{}

	// Rule 1: approaching the context window limit.
	if report.ContextWindowUsed > approachingLimitUsage {
		severity := SeverityWarning
		if report.ContextWindowUsed > criticalLimitUsage {
			severity = SeverityError
		}
		warnings = append(warnings, Warning{
			Kind:     KindApproachingLimit,
			Severity: severity,
			Message: fmt.Sprintf("Context window is %.0f%% full. Consider starting a new thread or summarizing this one.",
				report.ContextWindowUsed*100),
			Metrics: snapshot(report),
		})
	}

	// Rule 2: optimization was applied.
	if report.TruncatedMessages > 0 || report.SummarizedChunks > 0 {
		warnings = append(warnings, Warning{
			Kind:     KindOptimizationApplied,
			Severity: SeverityInfo,
			Message:  optimizationMessage(report),
			Metrics:  snapshot(report),
		})
	}

	// Rule 3: more than half the history was removed. Zero original
	// count yields no ratio and no warning.
	if report.OriginalMessageCount > 0 {
		ratio := float64(report.TruncatedMessages) / float64(report.OriginalMessageCount)
		if ratio > heavyTruncationRatio {
			warnings = append(warnings, Warning{
				Kind:     KindHeavyTruncation,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("%.0f%% of the conversation history was removed to fit the context window. Older context may be lost.",
					ratio*100),
				Metrics: snapshot(report),
			})
		}
	}

	return warnings
}

// optimizationMessage summarizes truncation and summarization counts
// with correct pluralization.
func optimizationMessage(report model.OptimizationReport) string {
	var parts []string
	if report.TruncatedMessages > 0 {
		parts = append(parts, fmt.Sprintf("%d %s truncated",
			report.TruncatedMessages, pluralize("message", report.TruncatedMessages)))
	}
	if report.SummarizedChunks > 0 {
		parts = append(parts, fmt.Sprintf("%d %s summarized",
			report.SummarizedChunks, pluralize("chunk", report.SummarizedChunks)))
	}
	msg := "Context optimized: " + parts[0]
	if len(parts) > 1 {
		msg += ", " + parts[1]
	}
	return msg
}

// pluralize appends "s" for counts other than one.
func pluralize(noun string, count int) string {
	if count == 1 {
		return noun
	}
	return noun + "s"
}

// snapshot copies the report so warnings stay stable if the caller
// mutates the original.
func snapshot(report model.OptimizationReport) *model.OptimizationReport {
	copied := report
	return &copied
}
