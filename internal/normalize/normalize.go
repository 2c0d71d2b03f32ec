// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts raw connector records into canonical,
// deduplicated Sources. It is a pure transform: no I/O, no side effects.
package normalize

import (
	"fmt"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Normalize flattens per-connector result lists into canonical Sources.
//
// Identity is the URL verbatim when present, otherwise the exact title
// string. Duplicates resolve first-seen-wins; insertion order is preserved
// and used downstream as the ranking tie-break. Records with neither URL
// nor title get a positional placeholder so no source ever has an empty
// title. A nil or empty list contributes nothing.
func Normalize(lists [][]types.RawResult) []types.Source {
	seen := make(map[string]bool)
	var sources []types.Source

	position := 0
	for _, list := range lists {
		for _, raw := range list {
			position++
			src := toSource(raw, position)

			if seen[src.SourceID] {
				continue
			}
			seen[src.SourceID] = true
			sources = append(sources, src)
		}
	}
	return sources
}

// toSource builds the canonical record for one raw result. position is the
// 1-based aggregation position, used for placeholder titles.
func toSource(raw types.RawResult, position int) types.Source {
	title := raw.Title
	if title == "" {
		if raw.URL != "" {
			title = raw.URL
		} else {
			title = fmt.Sprintf("Source %d", position)
		}
	}

	identity := raw.URL
	if identity == "" {
		identity = title
	}

	srcType := raw.Type
	if srcType == "" {
		srcType = types.SourceWeb
	}

	return types.Source{
		SourceID:     types.SourceID(identity),
		URL:          raw.URL,
		Title:        title,
		Authors:      raw.Authors,
		PublishedAt:  raw.PublishedAt,
		Type:         srcType,
		Snippet:      raw.Snippet,
		CitedByCount: raw.CitationCount,
		Cites:        citedIDs(raw.Cites),
	}
}

// citedIDs converts the connector's outgoing citation identifiers
// (URLs or titles) into canonical source IDs.
func citedIDs(cites []string) []string {
	if len(cites) == 0 {
		return nil
	}
	ids := make([]string, 0, len(cites))
	for _, c := range cites {
		if c == "" {
			continue
		}
		ids = append(ids, types.SourceID(c))
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}
