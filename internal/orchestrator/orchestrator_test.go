// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/pdiddy/deep-research/internal/aggregate"
	"github.com/pdiddy/deep-research/internal/credibility"
	"github.com/pdiddy/deep-research/internal/progress"
	"github.com/pdiddy/deep-research/internal/store"
	"github.com/pdiddy/deep-research/internal/synthesis"
	"github.com/pdiddy/deep-research/pkg/types"
)

// stubConnector returns canned results or an error.
type stubConnector struct {
	name    string
	results []types.RawResult
	err     error
}

func (s stubConnector) Name() string { return s.name }

func (s stubConnector) Fetch(ctx context.Context, query string) ([]types.RawResult, error) {
	return s.results, s.err
}

// stubGenerator returns canned text or an error.
type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Generate(ctx context.Context, messages []synthesis.Message) (string, error) {
	return g.text, g.err
}

func (g stubGenerator) ModelName() string { return "stub-model" }

func newTestOrchestrator(t *testing.T, connectors []aggregate.Connector, gen synthesis.Generator) *Orchestrator {
	t.Helper()
	runs, err := store.Open(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	o := New(connectors, credibility.NewScorer(nil, nil, nil), gen, runs,
		progress.NewEmitter(), types.PipelineConfig{}, io.Discard)
	t.Cleanup(func() { o.Close() })
	return o
}

func TestRunDeduplicatesAndBuildsGraph(t *testing.T) {
	paperA := types.RawResult{
		Title: "Paper A", URL: "https://example.com/a",
		Cites: []string{"https://example.com/b"},
	}
	paperB := types.RawResult{Title: "Paper B", URL: "https://example.com/b"}

	connectors := []aggregate.Connector{
		stubConnector{name: "one", results: []types.RawResult{paperA}},
		// The duplicate of A arrives from a second connector.
		stubConnector{name: "two", results: []types.RawResult{paperB, paperA}},
	}
	o := newTestOrchestrator(t, connectors, stubGenerator{text: "narrative"})

	res, err := o.Run(context.Background(), "dedup scenario")
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalSources != 2 {
		t.Errorf("TotalSources = %d, want 2", res.TotalSources)
	}
	if res.FindingsCount != 2 {
		t.Errorf("FindingsCount = %d, want 2", res.FindingsCount)
	}

	run, err := o.runs.Load(res.ResearchID)
	if err != nil {
		t.Fatal(err)
	}
	idA := types.SourceID("https://example.com/a")
	idB := types.SourceID("https://example.com/b")
	if len(run.Graph) != 1 || len(run.Graph[idA]) != 1 || run.Graph[idA][0] != idB {
		t.Errorf("graph = %v, want one edge %s -> %s", run.Graph, idA, idB)
	}
	// Every source carries a score in range.
	for _, s := range run.Sources {
		if s.CredibilityScore <= 0 || s.CredibilityScore > 0.95 {
			t.Errorf("source %s score = %v", s.SourceID, s.CredibilityScore)
		}
		if s.CredibilityCategory == "" {
			t.Errorf("source %s has no category", s.SourceID)
		}
	}
}

func TestRunGeneratorFailureStillCompletes(t *testing.T) {
	connectors := []aggregate.Connector{
		stubConnector{name: "one", results: []types.RawResult{
			{Title: "Paper A", URL: "https://example.com/a"},
		}},
	}
	o := newTestOrchestrator(t, connectors, stubGenerator{err: fmt.Errorf("model offline")})

	res, err := o.Run(context.Background(), "resilience scenario")
	if err != nil {
		t.Fatalf("generator failure failed the run: %v", err)
	}
	if res.Synthesis == "" {
		t.Errorf("synthesis is empty")
	}

	run, err := o.runs.Load(res.ResearchID)
	if err != nil {
		t.Fatal(err)
	}
	if run.SynthesisModel != synthesis.FallbackModel {
		t.Errorf("SynthesisModel = %q, want %q", run.SynthesisModel, synthesis.FallbackModel)
	}
	if run.CompletedAt.IsZero() {
		t.Errorf("CompletedAt not set")
	}
}

func TestRunZeroSourcesCompletes(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil)

	res, err := o.Run(context.Background(), "nothing matches this")
	if err != nil {
		t.Fatalf("zero-source run failed: %v", err)
	}
	if res.TotalSources != 0 {
		t.Errorf("TotalSources = %d", res.TotalSources)
	}
	if res.Synthesis == "" {
		t.Errorf("zero-source run produced empty synthesis")
	}
}

func TestRunEmptyQueryRejected(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil)
	if _, err := o.Run(context.Background(), ""); err == nil {
		t.Errorf("empty query accepted")
	}
}

func TestRunCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator(t, []aggregate.Connector{
		stubConnector{name: "one", results: []types.RawResult{{Title: "A"}}},
	}, nil)

	_, err := o.Run(ctx, "cancelled run")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	// The failed run must not have been persisted.
	rows, err := o.runs.Search("cancelled run", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("cancelled run persisted: %v", rows)
	}
}

func TestRunPersistsExactlyOnce(t *testing.T) {
	o := newTestOrchestrator(t, []aggregate.Connector{
		stubConnector{name: "one", results: []types.RawResult{{Title: "A"}}},
	}, nil)

	res, err := o.Run(context.Background(), "persistence check")
	if err != nil {
		t.Fatal(err)
	}

	rows, err := o.runs.Search("persistence check", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != res.ResearchID {
		t.Errorf("rows = %v", rows)
	}
}

func TestRunEmitsPhasesInOrder(t *testing.T) {
	o := newTestOrchestrator(t, []aggregate.Connector{
		stubConnector{name: "one", results: []types.RawResult{{Title: "A"}}},
	}, nil)

	var phases []progress.Phase
	o.Emitter().Register(progress.ObserverFunc(func(ev progress.Event) {
		if len(phases) == 0 || phases[len(phases)-1] != ev.Phase {
			phases = append(phases, ev.Phase)
		}
	}))

	res, err := o.Run(context.Background(), "phase order")
	if err != nil {
		t.Fatal(err)
	}

	want := []progress.Phase{
		progress.PhaseInit,
		progress.PhaseAggregation,
		progress.PhaseCredibility,
		progress.PhaseCrossReference,
		progress.PhaseSynthesis,
		progress.PhaseComplete,
	}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase %d = %s, want %s", i, phases[i], want[i])
		}
	}

	ev, ok := o.Emitter().Latest(res.ResearchID)
	if !ok || !ev.Terminal() {
		t.Errorf("latest event = %+v, want terminal", ev)
	}
}

func TestRunConnectorFailureDegrades(t *testing.T) {
	o := newTestOrchestrator(t, []aggregate.Connector{
		stubConnector{name: "broken", err: fmt.Errorf("upstream down")},
		stubConnector{name: "fine", results: []types.RawResult{{Title: "A", URL: "https://example.com/a"}}},
	}, nil)

	res, err := o.Run(context.Background(), "partial data")
	if err != nil {
		t.Fatalf("one failed connector failed the run: %v", err)
	}
	if res.TotalSources != 1 {
		t.Errorf("TotalSources = %d, want 1", res.TotalSources)
	}
}
