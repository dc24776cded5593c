// Package registry implements the Scan Registry (C7): the process-wide
// scanId -> ScanState table, concurrency admission control, and terminal-
// state sweeping. It is built as a single owned object with clearly scoped
// mutation APIs; readers use snapshot/clone semantics so iteration never
// holds a lock across I/O.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openaudit/a11yscan/pkg/model"
)

// ErrTooManyActiveScans is returned by Admit when the registry is at its
// concurrency limit. Per §8 property 9, no scan id is allocated and no
// event is emitted in this case.
var ErrTooManyActiveScans = errors.New("too many active scans")

// ErrNotFound is returned by Get/UpdateState for an unknown scan id.
var ErrNotFound = errors.New("scan not found")

// ErrAlreadyTerminal is returned by Cancel for a scan that has already
// reached a terminal phase.
var ErrAlreadyTerminal = errors.New("scan already terminal")

// Registry owns the scan table.
type Registry struct {
	mu               sync.Mutex
	scans            map[string]*model.ScanState
	maxConcurrent    int
	retention        time.Duration
}

// New constructs a Registry with the given admission limit and terminal-
// state retention window (defaults: 10 concurrent scans, 1h retention).
func New(maxConcurrent int, retention time.Duration) *Registry {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	if retention <= 0 {
		retention = time.Hour
	}
	return &Registry{
		scans:         make(map[string]*model.ScanState),
		maxConcurrent: maxConcurrent,
		retention:     retention,
	}
}

func (r *Registry) activeCountLocked() int {
	count := 0
	for _, s := range r.scans {
		if !s.Phase.Terminal() {
			count++
		}
	}
	return count
}

// Admit atomically checks the active-scan count against the configured
// limit, allocates a fresh scan id, and inserts a Pending ScanState.
func (r *Registry) Admit() (*model.ScanState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeCountLocked() >= r.maxConcurrent {
		return nil, ErrTooManyActiveScans
	}

	now := time.Now()
	state := &model.ScanState{
		ScanID:    uuid.NewString(),
		Phase:     model.PhasePending,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.scans[state.ScanID] = state
	return state, nil
}

// UpdateState applies a lifecycle transition, rejecting non-monotonic
// progress and illegal phase transitions per the ScanState FSM.
func (r *Registry) UpdateState(scanID string, to model.Phase, progress int, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.scans[scanID]
	if !ok {
		return ErrNotFound
	}
	return state.Transition(to, progress, message)
}

// SetResult attaches the finalized ScanResult to a scan's state, used by
// the orchestrator on Completed.
func (r *Registry) SetResult(scanID string, result *model.ScanResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.scans[scanID]
	if !ok {
		return ErrNotFound
	}
	state.Result = result
	return nil
}

// SetFailureReason records the coarse-grained client-visible failure string.
func (r *Registry) SetFailureReason(scanID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.scans[scanID]
	if !ok {
		return ErrNotFound
	}
	state.FailureReason = reason
	return nil
}

// Get returns a snapshot copy of one scan's state.
func (r *Registry) Get(scanID string) (model.ScanState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.scans[scanID]
	if !ok {
		return model.ScanState{}, ErrNotFound
	}
	return *state, nil
}

// Cancel marks a scan Cancelled if it is not already terminal. The
// orchestrator is responsible for actually interrupting in-flight work; this
// just flips the authoritative lifecycle state.
func (r *Registry) Cancel(scanID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.scans[scanID]
	if !ok {
		return ErrNotFound
	}
	if state.Phase.Terminal() {
		return ErrAlreadyTerminal
	}
	return state.Transition(model.PhaseCancelled, state.Progress, "cancelled")
}

// List returns a snapshot of every tracked scan state; callers may filter
// client-side. Never holds the lock across I/O.
func (r *Registry) List() []model.ScanState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ScanState, 0, len(r.scans))
	for _, s := range r.scans {
		out = append(out, *s)
	}
	return out
}

// Sweep removes terminal scans older than the configured retention window.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-r.retention)
	removed := 0
	for id, s := range r.scans {
		if s.Phase.Terminal() && s.UpdatedAt.Before(cutoff) {
			delete(r.scans, id)
			removed++
		}
	}
	return removed
}
