package model

import "testing"

func TestScanStateTransitionLegal(t *testing.T) {
	s := &ScanState{ScanID: "s1", Phase: PhasePending}
	if err := s.Transition(PhaseRunning, 0, "started"); err != nil {
		t.Fatalf("pending->running should be legal: %v", err)
	}
	if err := s.Transition(PhaseCompleted, 100, "done"); err != nil {
		t.Fatalf("running->completed should be legal: %v", err)
	}
}

func TestScanStateTransitionRejectsIllegalJump(t *testing.T) {
	s := &ScanState{ScanID: "s1", Phase: PhasePending}
	if err := s.Transition(PhaseCompleted, 100, "done"); err == nil {
		t.Fatal("pending->completed should be illegal")
	}
}

func TestScanStateTransitionRejectsLeavingTerminal(t *testing.T) {
	s := &ScanState{ScanID: "s1", Phase: PhaseCompleted, Progress: 100}
	if err := s.Transition(PhaseRunning, 50, "resume?"); err == nil {
		t.Fatal("terminal phases must never transition again")
	}
}

func TestScanStateTransitionRejectsNonMonotonicProgress(t *testing.T) {
	s := &ScanState{ScanID: "s1", Phase: PhaseRunning, Progress: 50}
	if err := s.Transition(PhaseRunning, 10, "rollback"); err == nil {
		t.Fatal("progress must be monotonic non-decreasing")
	}
}

func TestScanStateTransitionAllowsSamePhaseProgressUpdate(t *testing.T) {
	s := &ScanState{ScanID: "s1", Phase: PhaseRunning, Progress: 10}
	if err := s.Transition(PhaseRunning, 40, "scanning"); err != nil {
		t.Fatalf("same-phase progress update should be legal: %v", err)
	}
	if s.Progress != 40 {
		t.Fatalf("expected progress 40, got %d", s.Progress)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Phase
		want     bool
	}{
		{PhasePending, PhaseRunning, true},
		{PhasePending, PhaseCancelled, true},
		{PhasePending, PhaseCompleted, false},
		{PhaseRunning, PhaseCompleted, true},
		{PhaseRunning, PhaseFailed, true},
		{PhaseCompleted, PhaseRunning, false},
		{PhaseFailed, PhasePending, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
