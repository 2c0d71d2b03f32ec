// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator sequences the research pipeline: aggregate,
// normalize, score, build the citation graph, extract findings,
// synthesize, persist. It owns the ResearchRun lifecycle and emits
// progress between phases.
//
// Transitions are one-directional and non-retryable here; individual
// stages retry or degrade internally. Everything upstream of synthesis is
// best-effort, synthesis always yields text via its fallback, and only
// storage failures (and cancellation) propagate to the caller.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/deep-research/internal/aggregate"
	"github.com/pdiddy/deep-research/internal/citegraph"
	"github.com/pdiddy/deep-research/internal/credibility"
	"github.com/pdiddy/deep-research/internal/findings"
	"github.com/pdiddy/deep-research/internal/normalize"
	"github.com/pdiddy/deep-research/internal/progress"
	"github.com/pdiddy/deep-research/internal/store"
	"github.com/pdiddy/deep-research/internal/synthesis"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Orchestrator composes the pipeline stages. Construct with New; every
// dependency is injected explicitly and torn down via Close.
type Orchestrator struct {
	connectors []aggregate.Connector
	scorer     *credibility.Scorer
	generator  synthesis.Generator // nil means fallback synthesis only
	runs       *store.Store
	emitter    *progress.Emitter
	cfg        types.PipelineConfig
	w          io.Writer
}

// New builds an orchestrator. w receives human-readable warnings; pass
// io.Discard to silence them.
func New(connectors []aggregate.Connector, scorer *credibility.Scorer, generator synthesis.Generator, runs *store.Store, emitter *progress.Emitter, cfg types.PipelineConfig, w io.Writer) *Orchestrator {
	if emitter == nil {
		emitter = progress.NewEmitter()
	}
	if w == nil {
		w = io.Discard
	}
	return &Orchestrator{
		connectors: connectors,
		scorer:     scorer,
		generator:  generator,
		runs:       runs,
		emitter:    emitter,
		cfg:        cfg.WithDefaults(),
		w:          w,
	}
}

// Emitter exposes the progress emitter so front ends can register
// observers or poll run status.
func (o *Orchestrator) Emitter() *progress.Emitter { return o.emitter }

// Close releases owned resources. Best-effort on shutdown.
func (o *Orchestrator) Close() error {
	if o.runs != nil {
		return o.runs.Close()
	}
	return nil
}

// Run executes one research pipeline for query and persists the completed
// run exactly once. It returns the front-end result payload and the run id
// baked into it.
func (o *Orchestrator) Run(ctx context.Context, query string) (types.ResearchResult, error) {
	if query == "" {
		return types.ResearchResult{}, fmt.Errorf("query is empty")
	}

	run := &types.ResearchRun{
		Query:     query,
		StartedAt: time.Now().UTC(),
		Config:    o.cfg.Run,
		Progress:  types.RunProgress{CurrentDepth: 1, CurrentIteration: 1},
	}
	runID := store.RunID(query, run.StartedAt)

	o.emitter.Emit(runID, progress.StatusRunning, progress.PhaseInit, "starting research")

	// Aggregation: bounded connector fan-out, then normalize/dedup.
	o.emitter.Emit(runID, progress.StatusRunning, progress.PhaseAggregation,
		fmt.Sprintf("querying %d connectors", len(o.connectors)))

	lists, err := aggregate.Aggregate(ctx, query, o.connectors, o.cfg.Aggregation, o.w)
	if err != nil {
		return o.fail(runID, fmt.Errorf("aggregation interrupted: %w", err))
	}

	raw := 0
	for _, list := range lists {
		raw += len(list)
	}
	for _, src := range normalize.Normalize(lists) {
		run.AddSource(src)
	}
	o.emitter.Emit(runID, progress.StatusCompleted, progress.PhaseAggregation,
		fmt.Sprintf("aggregated %d unique sources from %d raw results", run.TotalSources, raw))

	// Credibility: score every source with cross-reference context.
	o.emitter.Emit(runID, progress.StatusRunning, progress.PhaseCredibility,
		fmt.Sprintf("scoring %d sources", run.TotalSources))
	if err := o.score(ctx, run); err != nil {
		return o.fail(runID, err)
	}
	o.emitter.Emit(runID, progress.StatusCompleted, progress.PhaseCredibility, "credibility scores assigned")

	// Cross-reference: citation graph, authority ranking, findings.
	o.emitter.Emit(runID, progress.StatusRunning, progress.PhaseCrossReference, "building citation graph")
	run.Graph = citegraph.Build(run.Sources)
	ranked := citegraph.Rank(run.Sources, run.Graph)
	run.Findings = findings.Extract(run.Sources)
	o.emitter.Emit(runID, progress.StatusCompleted, progress.PhaseCrossReference,
		fmt.Sprintf("%d citation edges, %d findings", edgeCount(run.Graph), len(run.Findings)))

	// Synthesis: always yields text, via the generator or the fallback.
	o.emitter.Emit(runID, progress.StatusRunning, progress.PhaseSynthesis, "generating synthesis")
	out := synthesis.Synthesize(ctx, run, ranked, o.generator, o.cfg.Synthesis, func(msg string) {
		o.emitter.Emit(runID, progress.StatusRunning, progress.PhaseSynthesis, msg)
	})
	run.Synthesis = out.Text
	run.SynthesisModel = out.Model
	run.CompletedAt = time.Now().UTC()
	o.emitter.Emit(runID, progress.StatusCompleted, progress.PhaseSynthesis,
		fmt.Sprintf("synthesis complete (model: %s)", out.Model))

	// Persist exactly once. A silently lost run is unacceptable, so this
	// is the one stage whose failure reaches the caller.
	id, err := o.runs.Save(run)
	if err != nil {
		return o.fail(runID, fmt.Errorf("persisting run: %w", err))
	}

	o.emitter.Emit(runID, progress.StatusCompleted, progress.PhaseComplete,
		fmt.Sprintf("research complete: %s", id))
	return run.Result(id), nil
}

// score assigns credibility to each source in place. It honors
// cancellation between sources.
func (o *Orchestrator) score(ctx context.Context, run *types.ResearchRun) error {
	titles := make([]string, len(run.Sources))
	for i, s := range run.Sources {
		titles[i] = s.Title
	}

	for i := range run.Sources {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scoring interrupted: %w", err)
		}
		src := &run.Sources[i]

		others := make([]string, 0, len(titles)-1)
		others = append(others, titles[:i]...)
		others = append(others, titles[i+1:]...)

		assessment := o.scorer.Score(credibility.Input{
			Identity:        src.Identity(),
			Title:           src.Title,
			CitationCount:   src.CitedByCount,
			CrossReferences: credibility.CrossReferenceCount(src.Title, others),
		})
		src.CredibilityScore = assessment.Final
		src.CredibilityCategory = assessment.Category
		fmt.Fprintf(o.w, "  %s: %s\n", src.SourceID, assessment.Breakdown)
	}
	return nil
}

// fail emits the terminal error event and returns the error.
func (o *Orchestrator) fail(runID string, err error) (types.ResearchResult, error) {
	o.emitter.Emit(runID, progress.StatusError, progress.PhaseError, err.Error())
	return types.ResearchResult{}, err
}

func edgeCount(g types.CitationGraph) int {
	n := 0
	for _, cited := range g {
		n += len(cited)
	}
	return n
}
