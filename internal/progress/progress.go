// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress delivers ordered phase events to observers.
//
// Delivery is fire-and-forget: observers are invoked synchronously in
// emission order, there is no acknowledgement or backpressure, and with no
// observers registered an emission is a no-op. Front ends poll Latest for
// a run id and stop on a terminal status.
package progress

import "sync"

// Status is the state of a phase event.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Phase identifies a pipeline stage.
type Phase string

const (
	PhaseInit           Phase = "init"
	PhaseAggregation    Phase = "aggregation"
	PhaseCredibility    Phase = "credibility"
	PhaseCrossReference Phase = "cross_reference"
	PhaseSynthesis      Phase = "synthesis"
	PhaseComplete       Phase = "complete"
	PhaseError          Phase = "error"
)

// Event is one progress emission for a run.
type Event struct {
	RunID   string `json:"run_id"`
	Status  Status `json:"status"`
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

// Terminal reports whether no further events follow this one.
func (e Event) Terminal() bool {
	return e.Phase == PhaseComplete || e.Phase == PhaseError
}

// Observer receives events. Implementations must not block; the emitter
// calls them inline on the emitting goroutine.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Emitter fans events out to registered observers and retains the latest
// event per run for polling consumers. Each run has a single producer, so
// events for a run are observed in emission order.
type Emitter struct {
	mu        sync.RWMutex
	observers []Observer
	latest    map[string]Event
}

// NewEmitter returns an emitter with no observers.
func NewEmitter() *Emitter {
	return &Emitter{latest: make(map[string]Event)}
}

// Register adds an observer. Observers registered mid-run see only
// subsequent events.
func (e *Emitter) Register(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// Emit records and delivers one event.
func (e *Emitter) Emit(runID string, status Status, phase Phase, message string) {
	ev := Event{RunID: runID, Status: status, Phase: phase, Message: message}

	e.mu.Lock()
	e.latest[runID] = ev
	observers := append([]Observer(nil), e.observers...)
	e.mu.Unlock()

	for _, o := range observers {
		o.OnEvent(ev)
	}
}

// Latest returns the most recent event for a run id, if any.
func (e *Emitter) Latest(runID string) (Event, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ev, ok := e.latest[runID]
	return ev, ok
}

// Forget drops the retained event for a run, once consumers are done.
func (e *Emitter) Forget(runID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.latest, runID)
}
