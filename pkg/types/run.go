// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunProgress tracks how far a run has advanced through its configured
// depth and iteration budget.
type RunProgress struct {
	CurrentDepth     int `json:"current_depth" yaml:"current_depth"`
	CurrentIteration int `json:"current_iteration" yaml:"current_iteration"`
}

// ResearchRun is one complete pipeline execution for a single query.
// The orchestrator creates it at run start, mutates it between phases,
// and freezes it once at completion; afterward it is a read-only snapshot.
//
// Sources and Findings are append-only; Sources keeps first-seen
// (aggregation-arrival) order, which is also the ranking tie-break order.
// TotalSources always equals len(Sources).
type ResearchRun struct {
	Query       string        `json:"query" yaml:"query"`
	StartedAt   time.Time     `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time     `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Config      RunConfig     `json:"config" yaml:"config"`
	Progress    RunProgress   `json:"progress" yaml:"progress"`
	Sources     []Source      `json:"sources" yaml:"sources"`
	Findings    []Finding     `json:"findings" yaml:"findings"`
	Graph       CitationGraph `json:"citation_graph" yaml:"citation_graph"`

	Synthesis      string `json:"synthesis" yaml:"synthesis"`
	SynthesisModel string `json:"synthesis_model" yaml:"synthesis_model"`
	TotalSources   int    `json:"total_sources" yaml:"total_sources"`
}

// AddSource appends a source and keeps TotalSources consistent.
func (r *ResearchRun) AddSource(s Source) {
	r.Sources = append(r.Sources, s)
	r.TotalSources = len(r.Sources)
}

// SourceSummary is the per-source slice of the front-end result payload.
// Field names are a fixed external contract.
type SourceSummary struct {
	SourceID            string     `json:"source_id"`
	Title               string     `json:"title"`
	URL                 string     `json:"url,omitempty"`
	CredibilityScore    float64    `json:"credibility_score"`
	CredibilityCategory string     `json:"credibility_category"`
	SourceType          SourceType `json:"source_type"`
	PublishedAt         time.Time  `json:"publication_date,omitempty"`
	Snippet             string     `json:"content_snippet,omitempty"`
}

// ResearchResult is the payload exposed to front ends after a run
// completes. Field names are a fixed external contract.
type ResearchResult struct {
	ResearchID    string          `json:"research_id"`
	Query         string          `json:"query"`
	Synthesis     string          `json:"synthesis"`
	TotalSources  int             `json:"total_sources"`
	FindingsCount int             `json:"findings_count"`
	Sources       []SourceSummary `json:"sources"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// Result builds the front-end payload for a completed run.
func (r *ResearchRun) Result(id string) ResearchResult {
	sources := make([]SourceSummary, 0, len(r.Sources))
	for _, s := range r.Sources {
		sources = append(sources, SourceSummary{
			SourceID:            s.SourceID,
			Title:               s.Title,
			URL:                 s.URL,
			CredibilityScore:    s.CredibilityScore,
			CredibilityCategory: s.CredibilityCategory,
			SourceType:          s.Type,
			PublishedAt:         s.PublishedAt,
			Snippet:             s.Snippet,
		})
	}
	return ResearchResult{
		ResearchID:    id,
		Query:         r.Query,
		Synthesis:     r.Synthesis,
		TotalSources:  r.TotalSources,
		FindingsCount: len(r.Findings),
		Sources:       sources,
		CompletedAt:   r.CompletedAt,
	}
}
