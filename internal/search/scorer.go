// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/opschat/internal/model"
)

// =============================================================================
// RELEVANCE SCORING
// =============================================================================

// Scoring constants. The double-count of exact matches (2 per
// occurrence plus 1 for presence) rewards frequency beyond mere
// presence and is preserved deliberately.
const (
	occurrencePoints = 2.0
	presencePoints   = 1.0
	shortDocBoost    = 1.2
	userRoleBoost    = 1.1
	shortDocLimit    = 100
)

// quotedPhrase extracts double-quoted phrases from a query.
var quotedPhrase = regexp.MustCompile(`"([^"]+)"`)

// lowercase folds case for matching. Uses x/text so non-ASCII content
// folds correctly, not just A-Z.
var lowercase = cases.Lower(language.Und)

// Matches reports whether a message passes the query's match filter.
//
// Two mutually exclusive modes: a query containing double-quoted
// phrases matches if any dequoted phrase is a substring of the content,
// and the unquoted terms are ignored entirely; otherwise every
// whitespace-separated term must be present (AND semantics).
func Matches(query string, msg *model.Message) bool {
	content := lowercase.String(msg.Content)

	if phrases := quotedPhrase.FindAllStringSubmatch(query, -1); len(phrases) > 0 {
		for _, m := range phrases {
			if strings.Contains(content, lowercase.String(m[1])) {
				return true
			}
		}
		return false
	}

	terms := strings.Fields(lowercase.String(query))
	if len(terms) == 0 {
		return false
	}
	for _, term := range terms {
		if !strings.Contains(content, term) {
			return false
		}
	}
	return true
}

// Score computes the relevance of a message for a query. Pure and
// deterministic; only meaningful for messages that already passed
// Matches.
//
// Per term: 2 points per exact-substring occurrence plus 1 point for
// presence. The total is boosted x1.2 for short content (< 100 chars)
// and x1.1 for user messages.
func Score(query string, msg *model.Message) float64 {
	content := lowercase.String(msg.Content)

	score := 0.0
	for _, term := range strings.Fields(lowercase.String(query)) {
		term = strings.Trim(term, `"`)
		if term == "" {
			continue
		}
		count := strings.Count(content, term)
		score += occurrencePoints * float64(count)
		if count > 0 {
			score += presencePoints
		}
	}

	if len(msg.Content) < shortDocLimit {
		score *= shortDocBoost
	}
	if msg.Role == model.RoleUser {
		score *= userRoleBoost
	}
	return score
}
