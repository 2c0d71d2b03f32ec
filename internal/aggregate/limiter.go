// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// limiter throttles outbound calls per connector name, so one slow API's
// budget is not consumed by another's traffic.
type limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newLimiter(requestsPerSecond float64, burst int) *limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	if burst <= 0 {
		burst = 4
	}
	return &limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// wait blocks until the named connector may proceed, or ctx is cancelled.
func (l *limiter) wait(ctx context.Context, name string) error {
	l.mu.Lock()
	lim, ok := l.limiters[name]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[name] = lim
	}
	l.mu.Unlock()

	return lim.Wait(ctx)
}
