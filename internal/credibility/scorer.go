// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package credibility assigns explainable trust scores to sources. A score
// combines an ordered domain-tier base with citation and cross-reference
// modifiers, subject to two hard overrides: known predatory publishers
// score exactly 0.20 and retracted work scores exactly 0.0.
package credibility

import (
	"fmt"
	"math"
	"strings"
)

// maxScore caps every non-override credibility score.
const maxScore = 0.95

const (
	// PredatoryScore is the hard override for known predatory publishers.
	PredatoryScore = 0.20

	// RetractedScore is the hard override for retracted work.
	RetractedScore = 0.0

	CategoryPredatory = "predatory_publisher"
	CategoryRetracted = "retracted"
	CategoryUnknown   = "unknown"
)

// Tier maps an identity substring to a base score and category label.
// Tiers are evaluated in order; the first match wins.
type Tier struct {
	Match string  `yaml:"match"`
	Base  float64 `yaml:"base"`
	Label string  `yaml:"label"`
}

// DefaultTiers is the built-in ordered tier table. Preprint servers stay
// at 0.50 despite their academic appearance: preprints are unreviewed.
func DefaultTiers() []Tier {
	return []Tier{
		{"nature.com", 0.85, "peer_reviewed"},
		{"science.org", 0.85, "peer_reviewed"},
		{"cell.com", 0.85, "peer_reviewed"},
		{"nejm.org", 0.85, "peer_reviewed"},
		{"thelancet.com", 0.85, "peer_reviewed"},
		{"ieee.org", 0.85, "peer_reviewed"},
		{"acm.org", 0.85, "peer_reviewed"},
		{"arxiv.org", 0.50, "preprint"},
		{"biorxiv.org", 0.50, "preprint"},
		{"medrxiv.org", 0.50, "preprint"},
		{"ssrn.com", 0.50, "preprint"},
		{".gov", 0.85, "government"},
		{"who.int", 0.85, "government"},
		{"europa.eu", 0.80, "government"},
		{".edu", 0.75, "education"},
		{".ac.uk", 0.75, "education"},
		{"theconversation.com", 0.75, "curated_editorial"},
		{"scientificamerican.com", 0.75, "curated_editorial"},
		{"reuters.com", 0.70, "wire_press"},
		{"apnews.com", 0.70, "wire_press"},
		{"afp.com", 0.70, "wire_press"},
		{"bbc.co.uk", 0.65, "wire_press"},
		{"bbc.com", 0.65, "wire_press"},
		{"economist.com", 0.60, "wire_press"},
		{"stackexchange.com", 0.40, "user_generated"},
		{"stackoverflow.com", 0.40, "user_generated"},
		{"substack.com", 0.35, "blog"},
		{"medium.com", 0.30, "blog"},
		{"wordpress.com", 0.25, "blog"},
		{"blogspot.com", 0.25, "blog"},
		{"reddit.com", 0.25, "user_generated"},
	}
}

// defaultPredatory lists publisher domains with documented predatory
// practices. Matching any of these short-circuits all scoring.
var defaultPredatory = []string{
	"omicsonline.org",
	"scirp.org",
	"waset.org",
	"juniperpublishers.com",
	"longdom.org",
}

// Scorer evaluates identities against the tier table and registries.
// Construct with NewScorer; the zero value is not usable.
type Scorer struct {
	tiers     []Tier
	predatory []string
	registry  *Registry
}

// NewScorer builds a scorer from a tier table, predatory-domain list, and
// retraction registry. Nil tiers or predatory fall back to the built-in
// defaults; a nil registry means no retraction checks.
func NewScorer(tiers []Tier, predatory []string, registry *Registry) *Scorer {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	if predatory == nil {
		predatory = defaultPredatory
	}
	if registry == nil {
		registry = NewRegistry(nil)
	}
	return &Scorer{tiers: tiers, predatory: predatory, registry: registry}
}

// Input describes one source to score.
type Input struct {
	// Identity is the URL, or the title when no URL exists.
	Identity string

	// Title is the display title, used only in the breakdown text.
	Title string

	// CitationCount is how often the source is cited.
	CitationCount int

	// CrossReferences counts other sources in the same run judged similar
	// by title containment. See CrossReferenceCount.
	CrossReferences int
}

// Assessment is the explainable scoring output.
type Assessment struct {
	Final     float64
	Base      float64
	Category  string
	CiteMod   float64
	CrossMod  float64
	Breakdown string
}

// Score evaluates one source. It never fails: unknown identities fall back
// to a 0.50 base with category "unknown".
func (s *Scorer) Score(in Input) Assessment {
	lower := strings.ToLower(in.Identity)

	// Hard override: predatory publisher.
	for _, domain := range s.predatory {
		if strings.Contains(lower, domain) {
			return Assessment{
				Final:     PredatoryScore,
				Base:      PredatoryScore,
				Category:  CategoryPredatory,
				CiteMod:   1.0,
				CrossMod:  1.0,
				Breakdown: fmt.Sprintf("predatory publisher (%s): score fixed at %.2f", domain, PredatoryScore),
			}
		}
	}

	// Hard override: retracted work, matched by DOI.
	if doi := ExtractDOI(in.Identity); doi != "" && s.registry.IsRetracted(doi) {
		return Assessment{
			Final:     RetractedScore,
			Base:      RetractedScore,
			Category:  CategoryRetracted,
			CiteMod:   1.0,
			CrossMod:  1.0,
			Breakdown: fmt.Sprintf("retracted work (%s): score fixed at %.1f", doi, RetractedScore),
		}
	}

	base, category, matched := s.matchTier(lower)
	citeMod := citationModifier(in.CitationCount)
	crossMod := crossReferenceModifier(in.CrossReferences)
	final := math.Min(maxScore, base*citeMod*crossMod)

	matchNote := "no tier match"
	if matched != "" {
		matchNote = fmt.Sprintf("matched %q", matched)
	}
	breakdown := fmt.Sprintf(
		"base %.2f (%s; %s) x cite %.2f (%d citations) x crossref %.2f (%d cross-references) = %.2f (cap %.2f)",
		base, category, matchNote, citeMod, in.CitationCount, crossMod, in.CrossReferences, final, maxScore)

	return Assessment{
		Final:     final,
		Base:      base,
		Category:  category,
		CiteMod:   citeMod,
		CrossMod:  crossMod,
		Breakdown: breakdown,
	}
}

// matchTier returns the first matching tier, or the unknown default.
func (s *Scorer) matchTier(lowerIdentity string) (base float64, category, matched string) {
	for _, t := range s.tiers {
		if strings.Contains(lowerIdentity, strings.ToLower(t.Match)) {
			return t.Base, t.Label, t.Match
		}
	}
	return 0.50, CategoryUnknown, ""
}

// citationModifier is a step function of the citation count.
func citationModifier(count int) float64 {
	switch {
	case count == 0:
		return 0.8
	case count < 10:
		return 0.9
	case count < 100:
		return 1.0
	case count < 1000:
		return 1.1
	default:
		return 1.2
	}
}

// crossReferenceModifier is a step function of the cross-reference count.
func crossReferenceModifier(count int) float64 {
	switch {
	case count <= 1:
		return 0.9
	case count <= 3:
		return 1.0
	case count <= 6:
		return 1.1
	default:
		return 1.15
	}
}

// CrossReferenceCount counts how many of the other titles relate to title
// by case-insensitive substring containment in either direction. The caller
// passes the titles of the run's other sources, excluding the source being
// scored. Blank titles never match.
func CrossReferenceCount(title string, others []string) int {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return 0
	}
	count := 0
	for _, other := range others {
		o := strings.ToLower(strings.TrimSpace(other))
		if o == "" {
			continue
		}
		if strings.Contains(o, t) || strings.Contains(t, o) {
			count++
		}
	}
	return count
}
