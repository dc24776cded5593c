package registry

import (
	"testing"
	"time"

	"github.com/openaudit/a11yscan/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmitAllocatesPendingState(t *testing.T) {
	r := New(10, time.Hour)
	state, err := r.Admit()
	require.NoError(t, err)
	assert.NotEmpty(t, state.ScanID)
	assert.Equal(t, model.PhasePending, state.Phase)
	assert.Equal(t, 0, state.Progress)
}

func TestAdmitRejectsOverConcurrencyLimit(t *testing.T) {
	r := New(2, time.Hour)
	_, err := r.Admit()
	require.NoError(t, err)
	_, err = r.Admit()
	require.NoError(t, err)

	_, err = r.Admit()
	assert.ErrorIs(t, err, ErrTooManyActiveScans)
}

func TestAdmitAllowsNewScanAfterOneTerminates(t *testing.T) {
	r := New(1, time.Hour)
	first, err := r.Admit()
	require.NoError(t, err)

	_, err = r.Admit()
	assert.ErrorIs(t, err, ErrTooManyActiveScans)

	require.NoError(t, r.UpdateState(first.ScanID, model.PhaseRunning, 0, "running"))
	require.NoError(t, r.UpdateState(first.ScanID, model.PhaseCompleted, 100, "done"))

	_, err = r.Admit()
	assert.NoError(t, err, "a completed scan must free up an admission slot")
}

func TestUpdateStateUnknownScanReturnsNotFound(t *testing.T) {
	r := New(10, time.Hour)
	err := r.UpdateState("does-not-exist", model.PhaseRunning, 0, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStateRejectsIllegalTransition(t *testing.T) {
	r := New(10, time.Hour)
	state, _ := r.Admit()
	err := r.UpdateState(state.ScanID, model.PhaseCompleted, 100, "skip running")
	assert.Error(t, err)
}

func TestSetResultAndGet(t *testing.T) {
	r := New(10, time.Hour)
	state, _ := r.Admit()
	result := &model.ScanResult{Metrics: model.ComplianceMetrics{OverallScore: 90}}
	require.NoError(t, r.SetResult(state.ScanID, result))

	got, err := r.Get(state.ScanID)
	require.NoError(t, err)
	require.NotNil(t, got.Result)
	assert.Equal(t, 90, got.Result.Metrics.OverallScore)
}

func TestSetFailureReason(t *testing.T) {
	r := New(10, time.Hour)
	state, _ := r.Admit()
	require.NoError(t, r.SetFailureReason(state.ScanID, "seed_unreachable"))

	got, err := r.Get(state.ScanID)
	require.NoError(t, err)
	assert.Equal(t, "seed_unreachable", got.FailureReason)
}

func TestGetUnknownScanReturnsNotFound(t *testing.T) {
	r := New(10, time.Hour)
	_, err := r.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReturnsSnapshotNotLiveReference(t *testing.T) {
	r := New(10, time.Hour)
	state, _ := r.Admit()

	snapshot, err := r.Get(state.ScanID)
	require.NoError(t, err)

	require.NoError(t, r.UpdateState(state.ScanID, model.PhaseRunning, 5, "running"))

	assert.Equal(t, model.PhasePending, snapshot.Phase, "a prior Get snapshot must not observe later mutations")
}

func TestCancelPendingScan(t *testing.T) {
	r := New(10, time.Hour)
	state, _ := r.Admit()
	require.NoError(t, r.Cancel(state.ScanID))

	got, err := r.Get(state.ScanID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseCancelled, got.Phase)
}

func TestCancelAlreadyTerminalScanFails(t *testing.T) {
	r := New(10, time.Hour)
	state, _ := r.Admit()
	require.NoError(t, r.UpdateState(state.ScanID, model.PhaseRunning, 0, "running"))
	require.NoError(t, r.UpdateState(state.ScanID, model.PhaseCompleted, 100, "done"))

	err := r.Cancel(state.ScanID)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestCancelUnknownScanReturnsNotFound(t *testing.T) {
	r := New(10, time.Hour)
	err := r.Cancel("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReturnsAllTrackedScans(t *testing.T) {
	r := New(10, time.Hour)
	a, _ := r.Admit()
	b, _ := r.Admit()

	all := r.List()
	require.Len(t, all, 2)

	ids := map[string]bool{}
	for _, s := range all {
		ids[s.ScanID] = true
	}
	assert.True(t, ids[a.ScanID])
	assert.True(t, ids[b.ScanID])
}

func TestSweepRemovesOldTerminalScansOnly(t *testing.T) {
	r := New(10, 10*time.Millisecond)

	old, _ := r.Admit()
	require.NoError(t, r.UpdateState(old.ScanID, model.PhaseRunning, 0, "running"))
	require.NoError(t, r.UpdateState(old.ScanID, model.PhaseCompleted, 100, "done"))

	stillActive, _ := r.Admit()

	time.Sleep(20 * time.Millisecond)

	removed := r.Sweep()
	assert.Equal(t, 1, removed)

	_, err := r.Get(old.ScanID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Get(stillActive.ScanID)
	assert.NoError(t, err, "non-terminal scans must never be swept")
}

func TestSweepLeavesRecentTerminalScans(t *testing.T) {
	r := New(10, time.Hour)
	state, _ := r.Admit()
	require.NoError(t, r.UpdateState(state.ScanID, model.PhaseRunning, 0, "running"))
	require.NoError(t, r.UpdateState(state.ScanID, model.PhaseCompleted, 100, "done"))

	removed := r.Sweep()
	assert.Equal(t, 0, removed, "a recently terminal scan inside the retention window must not be swept")
}

func TestDefaultsAppliedForZeroValues(t *testing.T) {
	r := New(0, 0)
	assert.Equal(t, 10, r.maxConcurrent)
	assert.Equal(t, time.Hour, r.retention)
}
