// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"fmt"
	"time"
)

// rotation holds the liveness messages cycled through during generation.
// After the rotation is exhausted, a generic elapsed-time message repeats.
var rotation = []string{
	"analyzing findings",
	"weighing source credibility",
	"drafting narrative",
	"citing sources",
}

// joinTimeout bounds how long stopping a heartbeat waits for the ticker
// goroutine to exit.
const joinTimeout = time.Second

// defaultInterval guards callers that pass an unset configuration;
// time.NewTicker panics on a non-positive duration.
const defaultInterval = 5 * time.Second

// heartbeat emits a liveness message at a fixed interval while a blocking
// call is in flight. It is always stopped and joined once the call
// returns, so it never outlives the call.
type heartbeat struct {
	stop chan struct{}
	done chan struct{}
}

// startHeartbeat launches the ticker goroutine. emit receives each message.
func startHeartbeat(interval time.Duration, emit func(string)) *heartbeat {
	if interval <= 0 {
		interval = defaultInterval
	}
	h := &heartbeat{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		start := time.Now()
		ticks := 0
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				ticks++
				if ticks <= len(rotation) {
					emit(rotation[ticks-1])
				} else {
					elapsed := int(time.Since(start).Seconds())
					emit(fmt.Sprintf("still working (%ds elapsed)", elapsed))
				}
			}
		}
	}()
	return h
}

// stopAndJoin signals the goroutine and waits for it with a bounded
// timeout, so a wedged emit callback cannot block shutdown.
func (h *heartbeat) stopAndJoin() {
	close(h.stop)
	select {
	case <-h.done:
	case <-time.After(joinTimeout):
	}
}
