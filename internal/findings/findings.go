// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package findings derives atomic findings from scored sources.
//
// The current contract is exactly one finding per source: the claim is the
// source's snippet (title when no snippet exists) truncated to 500
// characters, with a single supporting source at medium confidence.
// Cross-source claim clustering is a future extension.
package findings

import (
	"unicode/utf8"

	"github.com/pdiddy/deep-research/pkg/types"
)

// maxClaimLen bounds the claim text of a finding.
const maxClaimLen = 500

// Extract produces one finding per source.
func Extract(sources []types.Source) []types.Finding {
	result := make([]types.Finding, 0, len(sources))
	for _, s := range sources {
		claim := s.Snippet
		if claim == "" {
			claim = s.Title
		}

		result = append(result, types.Finding{
			Claim:          truncate(claim, maxClaimLen),
			SourceIDs:      []string{s.SourceID},
			Confidence:     types.ConfidenceMedium,
			AvgCredibility: s.CredibilityScore,
		})
	}
	return result
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
