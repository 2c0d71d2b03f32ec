// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research pipeline:
// connector records, canonical sources, findings, research runs, and the typed
// configuration for every stage.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SourceType classifies where a source came from.
type SourceType string

const (
	SourceAcademic SourceType = "academic"
	SourceWeb      SourceType = "web"
	SourceNewsroom SourceType = "newsroom"
)

// RawResult is one record returned by a connector. Connectors return
// structured records directly; prose formatting is a presentation concern
// of the front ends and is never parsed back into records.
type RawResult struct {
	// Title is the document title. Connectors should always set it, but
	// normalization tolerates a blank title.
	Title string `json:"title" yaml:"title"`

	// URL is the document location, if known.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Snippet is free-text content. Academic connectors tag provenance
	// inside the snippet (e.g. "[Scholar] ...").
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Authors lists authors in source order, when the connector knows them.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// PublishedAt is the publication date, zero when unknown.
	PublishedAt time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`

	// CitationCount is how often this document is cited, per the connector.
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// Cites lists identifiers (URLs or titles) of documents this one references.
	Cites []string `json:"cites,omitempty" yaml:"cites,omitempty"`

	// Type is the connector's provenance class. Defaults to web.
	Type SourceType `json:"type,omitempty" yaml:"type,omitempty"`
}

// Source is one canonical, deduplicated document candidate with identity,
// metadata, and a computed trust score.
type Source struct {
	// SourceID is a deterministic hash of the URL, or of the title when no
	// URL is present. Repeated aggregation of the same document collapses
	// to one identity.
	SourceID string `json:"source_id" yaml:"source_id"`

	URL         string     `json:"url,omitempty" yaml:"url,omitempty"`
	Title       string     `json:"title" yaml:"title"`
	Authors     []string   `json:"authors,omitempty" yaml:"authors,omitempty"`
	PublishedAt time.Time  `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	Type        SourceType `json:"source_type" yaml:"source_type"`

	// CredibilityScore is in [0.0, 0.95], except the deliberate overrides
	// for predatory publishers (exactly 0.20) and retracted work (exactly 0.0).
	CredibilityScore    float64 `json:"credibility_score" yaml:"credibility_score"`
	CredibilityCategory string  `json:"credibility_category" yaml:"credibility_category"`

	Snippet      string   `json:"content_snippet,omitempty" yaml:"content_snippet,omitempty"`
	CitedByCount int      `json:"cited_by_count" yaml:"cited_by_count"`
	Cites        []string `json:"cites,omitempty" yaml:"cites,omitempty"`
}

// Identity returns the string the source's identity derives from:
// the URL verbatim when present, otherwise the exact title.
func (s Source) Identity() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Title
}

// SourceID derives the canonical identifier for a URL-or-title identity
// string. It is a pure function: the same identity always hashes to the
// same ID.
func SourceID(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:8])
}

// ConfidenceTier buckets how well-supported a finding is.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// Finding is an atomic claim derived from sources. Immutable once created.
type Finding struct {
	// Claim is the claim text, at most 500 characters.
	Claim string `json:"claim" yaml:"claim"`

	// SourceIDs lists the supporting sources; always at least one.
	SourceIDs []string `json:"source_ids" yaml:"source_ids"`

	Confidence ConfidenceTier `json:"confidence" yaml:"confidence"`

	// AvgCredibility is the mean credibility score of the supporting sources.
	AvgCredibility float64 `json:"average_credibility" yaml:"average_credibility"`
}

// CitationGraph maps source_id to the source_ids it cites. Built only from
// sources carrying outgoing citation data; sparse by default.
type CitationGraph map[string][]string
