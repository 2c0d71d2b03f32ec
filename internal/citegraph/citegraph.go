// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citegraph builds the citation adjacency structure and ranks
// sources by a blended credibility/centrality authority measure.
package citegraph

import (
	"math"
	"sort"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Build constructs the adjacency map from each source's declared outgoing
// citations. Sources without citation data contribute no entry, so the
// graph is sparse by default.
func Build(sources []types.Source) types.CitationGraph {
	graph := make(types.CitationGraph)
	for _, s := range sources {
		if len(s.Cites) == 0 {
			continue
		}
		graph[s.SourceID] = append([]string(nil), s.Cites...)
	}
	return graph
}

// Centrality returns the in-degree of every cited source: how many times
// each ID appears as a citation target. Sources never cited are absent
// from the map (centrality 0).
func Centrality(graph types.CitationGraph) map[string]int {
	inDegree := make(map[string]int)
	for _, targets := range graph {
		for _, t := range targets {
			inDegree[t]++
		}
	}
	return inDegree
}

// Authority blends credibility with citation centrality:
//
//	authority = credibility x (1 + ln(1 + centrality))
//
// An isolated source (centrality 0) ranks purely by credibility, since
// ln(1) = 0.
func Authority(credibility float64, centrality int) float64 {
	return credibility * (1 + math.Log(1+float64(centrality)))
}

// Ranked pairs a source with its computed authority.
type Ranked struct {
	Source    types.Source
	Authority float64
}

// Rank orders sources by authority descending. The sort is stable, so
// equal authorities keep their original first-seen order.
func Rank(sources []types.Source, graph types.CitationGraph) []Ranked {
	inDegree := Centrality(graph)

	ranked := make([]Ranked, 0, len(sources))
	for _, s := range sources {
		ranked = append(ranked, Ranked{
			Source:    s,
			Authority: Authority(s.CredibilityScore, inDegree[s.SourceID]),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Authority > ranked[j].Authority
	})
	return ranked
}

// TopAuthorities returns the first n ranked sources.
func TopAuthorities(sources []types.Source, graph types.CitationGraph, n int) []Ranked {
	ranked := Rank(sources, graph)
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
