// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis produces a cited narrative from findings and
// top-authority sources, with liveness heartbeats during the blocking
// generation call and a deterministic fallback when generation fails.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/deep-research/internal/citegraph"
	"github.com/pdiddy/deep-research/pkg/types"
)

const (
	// FallbackModel tags a synthesis assembled without the generator.
	FallbackModel = "fallback"

	maxPromptFindings = 20
	maxPromptSources  = 15
)

// Output is the synthesis result. Text is never empty.
type Output struct {
	Text  string
	Model string
}

// Synthesize builds a bounded prompt from the run's findings and its
// top-authority sources, makes one generation call, and returns the text.
//
// A heartbeat goroutine emits a liveness message through emit at the
// configured interval while the call blocks; it is stopped and joined
// before Synthesize returns, success or failure. When the generator is
// nil, errors, or returns empty text, the deterministic fallback is used.
func Synthesize(ctx context.Context, run *types.ResearchRun, ranked []citegraph.Ranked, gen Generator, cfg types.SynthesisConfig, emit func(string)) Output {
	if len(ranked) > maxPromptSources {
		ranked = ranked[:maxPromptSources]
	}

	if gen == nil {
		return Output{Text: Fallback(run, ranked), Model: FallbackModel}
	}

	messages := BuildPrompt(run, ranked)

	if emit == nil {
		emit = func(string) {}
	}
	hb := startHeartbeat(cfg.HeartbeatInterval, emit)
	defer hb.stopAndJoin()

	callCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	text, err := gen.Generate(callCtx, messages)
	if err != nil || strings.TrimSpace(text) == "" {
		return Output{Text: Fallback(run, ranked), Model: FallbackModel}
	}
	return Output{Text: text, Model: gen.ModelName()}
}

// BuildPrompt assembles the role-tagged message list: up to 20 findings
// with support counts and confidence, and up to 15 top-authority sources
// with scores.
func BuildPrompt(run *types.ResearchRun, ranked []citegraph.Ranked) []Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Research query: %s\n\n", run.Query)

	fmt.Fprintf(&b, "Findings (%d of %d):\n", min(len(run.Findings), maxPromptFindings), len(run.Findings))
	for i, f := range run.Findings {
		if i >= maxPromptFindings {
			break
		}
		fmt.Fprintf(&b, "%d. %s (sources: %d, confidence: %s)\n",
			i+1, f.Claim, len(f.SourceIDs), f.Confidence)
	}

	fmt.Fprintf(&b, "\nTop sources by authority:\n")
	for i, r := range ranked {
		fmt.Fprintf(&b, "%d. [%s] %s (credibility %.2f, authority %.2f)\n",
			i+1, r.Source.SourceID, r.Source.Title, r.Source.CredibilityScore, r.Authority)
	}

	b.WriteString("\nWrite a narrative synthesis of the findings. Cite sources inline " +
		"by their bracketed id, e.g. [a1b2c3]. Note where evidence is thin or " +
		"sources disagree. Do not invent sources or claims.")

	return []Message{
		{Role: RoleSystem, Content: "You are a research analyst. You synthesize findings into " +
			"a concise, accurate narrative and only cite the sources you are given."},
		{Role: RoleUser, Content: b.String()},
	}
}

// Fallback deterministically assembles a synthesis from truncated findings
// and top sources. It never returns empty text: a run with no sources
// yields an explicit statement to that effect.
func Fallback(run *types.ResearchRun, ranked []citegraph.Ranked) string {
	if len(run.Sources) == 0 {
		return fmt.Sprintf("No sources found for %q. No synthesis could be produced.", run.Query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Research synthesis for %q (%d sources, %d findings):\n\n",
		run.Query, run.TotalSources, len(run.Findings))

	for i, f := range run.Findings {
		if i >= maxPromptFindings {
			fmt.Fprintf(&b, "... and %d more findings.\n", len(run.Findings)-maxPromptFindings)
			break
		}
		claim := f.Claim
		if len(claim) > 200 {
			claim = claim[:197] + "..."
		}
		fmt.Fprintf(&b, "- %s [%s]\n", claim, strings.Join(f.SourceIDs, ", "))
	}

	b.WriteString("\nTop sources:\n")
	for _, r := range ranked {
		fmt.Fprintf(&b, "- %s (credibility %.2f)\n", r.Source.Title, r.Source.CredibilityScore)
	}
	return b.String()
}
