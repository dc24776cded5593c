package model

import (
	"fmt"
	"time"
)

// Phase is the scan lifecycle variant: Pending -> Running -> one terminal
// state. Only monotonic forward transitions are allowed; terminal states
// are final.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
	PhaseCancelled Phase = "cancelled"
)

// Terminal reports whether the phase is one of the final states.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseCancelled
}

// legalTransitions encodes the FSM: from -> set of phases reachable directly.
var legalTransitions = map[Phase]map[Phase]bool{
	PhasePending: {PhaseRunning: true, PhaseFailed: true, PhaseCancelled: true},
	PhaseRunning: {PhaseCompleted: true, PhaseFailed: true, PhaseCancelled: true},
}

// CanTransition reports whether moving from `from` to `to` is legal.
func CanTransition(from, to Phase) bool {
	if from.Terminal() {
		return false
	}
	return legalTransitions[from][to]
}

// ScanState is the Registry-owned lifecycle record for one scan.
type ScanState struct {
	ScanID          string    `json:"scan_id"`
	Phase           Phase     `json:"phase"`
	Progress        int       `json:"progress"`
	Message         string    `json:"message"`
	FailureReason   string    `json:"failure_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Result          *ScanResult `json:"result,omitempty"`
}

// Transition validates and applies a phase change, enforcing monotonic
// progress and the legal-transition table. It never mutates on error.
func (s *ScanState) Transition(to Phase, progress int, message string) error {
	if progress < s.Progress {
		return fmt.Errorf("progress must be monotonic non-decreasing: have %d, got %d", s.Progress, progress)
	}
	if to != s.Phase {
		if !CanTransition(s.Phase, to) {
			return fmt.Errorf("illegal transition %s -> %s", s.Phase, to)
		}
		s.Phase = to
	} else if s.Phase.Terminal() {
		return fmt.Errorf("scan %s is already terminal (%s)", s.ScanID, s.Phase)
	}
	s.Progress = progress
	s.Message = message
	s.UpdatedAt = time.Now()
	return nil
}
