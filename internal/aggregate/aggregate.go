// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate fans a query out to heterogeneous source connectors
// over a bounded worker pool and collects their result lists.
//
// Connectors are external collaborators: each returns structured records
// with at least a title, ideally a URL and snippet, and optionally
// citation data. One connector's failure never fails the run; it is
// logged and contributes zero records. Cancellation is different: when
// the calling context is interrupted, not-yet-started work is cancelled
// and the interruption is returned, never swallowed.
package aggregate

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Connector retrieves raw results for a query from one external source.
type Connector interface {
	Name() string
	Fetch(ctx context.Context, query string) ([]types.RawResult, error)
}

// Aggregate queries all connectors concurrently, at most
// cfg.ConnectorWorkers at a time, throttled per connector name.
//
// The returned lists are positionally aligned with connectors, so the
// downstream first-seen order is deterministic regardless of completion
// order. A failed (or panicking) connector leaves a nil list at its
// position and a warning on w.
func Aggregate(ctx context.Context, query string, connectors []Connector, cfg types.AggregationConfig, w io.Writer) ([][]types.RawResult, error) {
	limiter := newLimiter(cfg.RatePerSecond, cfg.Burst)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.ConnectorWorkers)

	lists := make([][]types.RawResult, len(connectors))
	for i, c := range connectors {
		i, c := i, c
		g.Go(func() error {
			// Tasks that have not started yet observe cancellation here
			// and re-raise it instead of running.
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := limiter.wait(gctx, c.Name()); err != nil {
				return err
			}

			records, err := fetchIsolated(gctx, c, query)
			if err != nil {
				// A failure during cancellation is the interruption, not a
				// connector fault; re-raise it instead of degrading.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				fmt.Fprintf(w, "warning: connector %s failed: %v\n", c.Name(), err)
				return nil
			}
			lists[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}

// fetchIsolated invokes a connector and converts a panic into an error, so
// a misbehaving connector degrades to zero records like any other failure.
func fetchIsolated(ctx context.Context, c Connector, query string) (records []types.RawResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("connector panic: %v", r)
		}
	}()
	return c.Fetch(ctx, query)
}
