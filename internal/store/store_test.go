package store

import (
	"testing"
	"time"

	"github.com/openaudit/a11yscan/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	s, err := Open(Config{Type: "sqlite", DSN: dsn})
	require.NoError(t, err)

	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // keep the whole test on one connection so the in-memory schema isn't lost

	return s
}

func completedState(scanID string) model.ScanState {
	return model.ScanState{
		ScanID: scanID,
		Phase:  model.PhaseCompleted,
		Result: &model.ScanResult{
			ScanID:    scanID,
			Request:   model.ScanRequest{URL: "https://example.com", CompanyName: "Acme", Mode: model.ModeSimulate},
			StartedAt: time.Now().Add(-time.Minute),
			EndedAt:   time.Now(),
			Metrics:   model.ComplianceMetrics{OverallScore: 85, ComplianceLevel: model.Conforme},
			Violations: []model.Violation{
				{Code: "alt_missing", WCAGCriterion: "1.1.1", Severity: model.SeverityCritical, OccurrenceCount: 2},
			},
		},
	}
}

func TestArchivePersistsScanAndViolations(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Archive(completedState("scan-1")))

	record, err := s.Get("scan-1")
	require.NoError(t, err)
	assert.Equal(t, "scan-1", record.ScanID)
	assert.Equal(t, "Acme", record.CompanyName)
	assert.Equal(t, 85, record.OverallScore)
	assert.Equal(t, string(model.Conforme), record.ComplianceLevel)
	require.Len(t, record.Violations, 1)
	assert.Equal(t, "alt_missing", record.Violations[0].Code)
	assert.Equal(t, string(model.Perceivable), record.Violations[0].Principle)
}

func TestArchiveFailedScanWithNilResult(t *testing.T) {
	s := openTestStore(t)
	state := model.ScanState{ScanID: "scan-failed", Phase: model.PhaseFailed, FailureReason: "seed_unreachable"}
	require.NoError(t, s.Archive(state))

	record, err := s.Get("scan-failed")
	require.NoError(t, err)
	assert.Equal(t, "seed_unreachable", record.FailureReason)
	assert.Equal(t, string(model.PhaseFailed), record.Phase)
}

func TestGetUnknownScanReturnsError(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get("does-not-exist")
	assert.Error(t, err)
}

func TestListFiltersByCompanyNameAndMinScore(t *testing.T) {
	s := openTestStore(t)
	acme := completedState("scan-acme")
	require.NoError(t, s.Archive(acme))

	other := completedState("scan-other")
	other.Result.Request.CompanyName = "Globex"
	other.Result.Metrics.OverallScore = 40
	require.NoError(t, s.Archive(other))

	byCompany, err := s.List(ListFilter{CompanyName: "Acme"})
	require.NoError(t, err)
	require.Len(t, byCompany, 1)
	assert.Equal(t, "scan-acme", byCompany[0].ScanID)

	byScore, err := s.List(ListFilter{MinScore: 80})
	require.NoError(t, err)
	require.Len(t, byScore, 1)
	assert.Equal(t, "scan-acme", byScore[0].ScanID)
}

func TestListPaginates(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Archive(completedState(string(rune('a'+i)))))
	}

	page1, err := s.List(ListFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page2, err := s.List(ListFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page2, 1)
}
