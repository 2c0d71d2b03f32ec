// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Engine is one academic search backend queried by the academic
// sub-aggregation (e.g. Scholar, PubMed, CORE).
type Engine interface {
	Name() string
	Query(ctx context.Context, query string) ([]types.RawResult, error)
}

// EngineFromConnector adapts a Connector into an academic Engine, letting
// file-backed or generic connectors serve as engines of the sub-aggregation.
func EngineFromConnector(c Connector) Engine {
	return connectorEngine{c}
}

type connectorEngine struct {
	c Connector
}

func (e connectorEngine) Name() string { return e.c.Name() }

func (e connectorEngine) Query(ctx context.Context, query string) ([]types.RawResult, error) {
	return e.c.Fetch(ctx, query)
}

// Checker performs the per-candidate verification pass: resolving
// metadata, citation counts, or outgoing citations for one record.
type Checker interface {
	Check(ctx context.Context, record types.RawResult) (types.RawResult, error)
}

// AcademicAggregator is itself a Connector that performs a second level of
// fan-out: up to cfg.EngineWorkers concurrent engine queries, followed by
// a bounded verification pass with up to cfg.VerifyWorkers candidates in
// flight. Engine provenance is tagged into each snippet ("[Scholar] ...").
type AcademicAggregator struct {
	engines []Engine
	checker Checker
	cfg     types.AggregationConfig
	w       io.Writer
}

// NewAcademicAggregator builds the sub-aggregator. checker may be nil, in
// which case the verification pass is skipped.
func NewAcademicAggregator(engines []Engine, checker Checker, cfg types.AggregationConfig, w io.Writer) *AcademicAggregator {
	return &AcademicAggregator{engines: engines, checker: checker, cfg: cfg, w: w}
}

// Name implements Connector.
func (a *AcademicAggregator) Name() string { return "academic" }

// Fetch implements Connector: engine fan-out, then candidate verification.
// Engine failures degrade to zero records for that engine; cancellation
// propagates.
func (a *AcademicAggregator) Fetch(ctx context.Context, query string) ([]types.RawResult, error) {
	candidates, err := a.queryEngines(ctx, query)
	if err != nil {
		return nil, err
	}
	if a.checker == nil || len(candidates) == 0 {
		return candidates, nil
	}
	return a.verify(ctx, candidates)
}

// queryEngines runs the first fan-out level across engines.
func (a *AcademicAggregator) queryEngines(ctx context.Context, query string) ([]types.RawResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.EngineWorkers)

	perEngine := make([][]types.RawResult, len(a.engines))
	for i, e := range a.engines {
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := e.Query(gctx, query)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				fmt.Fprintf(a.w, "warning: academic engine %s failed: %v\n", e.Name(), err)
				return nil
			}
			perEngine[i] = tagProvenance(e.Name(), records)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []types.RawResult
	for _, list := range perEngine {
		all = append(all, list...)
	}
	return all, nil
}

// verify runs the second fan-out level: the bounded per-candidate check.
// A failed check keeps the unverified record; the run continues with
// partial data.
func (a *AcademicAggregator) verify(ctx context.Context, candidates []types.RawResult) ([]types.RawResult, error) {
	sem := semaphore.NewWeighted(int64(a.cfg.VerifyWorkers))
	g, gctx := errgroup.WithContext(ctx)

	verified := make([]types.RawResult, len(candidates))
	copy(verified, candidates)

	for i := range candidates {
		i := i
		if err := sem.Acquire(gctx, 1); err != nil {
			// Cancelled while candidates were outstanding: stop launching
			// and surface the interruption after started work drains.
			g.Wait()
			return nil, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			checked, err := a.checker.Check(gctx, candidates[i])
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				fmt.Fprintf(a.w, "warning: verification failed for %q: %v\n", title(candidates[i]), err)
				return nil
			}
			verified[i] = checked
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verified, nil
}

// tagProvenance prefixes each snippet with the engine name, matching the
// connector contract for academic provenance (e.g. "[Scholar] ...").
func tagProvenance(engine string, records []types.RawResult) []types.RawResult {
	tag := "[" + engine + "] "
	for i := range records {
		if records[i].Type == "" {
			records[i].Type = types.SourceAcademic
		}
		if strings.HasPrefix(records[i].Snippet, tag) {
			continue
		}
		records[i].Snippet = tag + records[i].Snippet
	}
	return records
}

func title(r types.RawResult) string {
	if r.Title != "" {
		return r.Title
	}
	return r.URL
}
