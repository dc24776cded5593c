package aggregate

import (
	"testing"

	"github.com/openaudit/a11yscan/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func req() model.ScanRequest {
	return model.ScanRequest{URL: "https://example.com", CompanyName: "Acme", Mode: model.ModeReal, TimeoutMs: 30000, MaxPages: 5, MaxDepth: 2}
}

func TestDedupePageMergesByDedupeKey(t *testing.T) {
	violations := []model.Violation{
		{Code: "c1", WCAGCriterion: "1.1.1", Selector: "div", OccurrenceCount: 1, Scanners: []model.ScannerKind{model.Wave}},
		{Code: "c1", WCAGCriterion: "1.1.1", Selector: "div", OccurrenceCount: 2, Scanners: []model.ScannerKind{model.Axe}},
		{Code: "c1", WCAGCriterion: "1.1.1", Selector: "span", OccurrenceCount: 1, Scanners: []model.ScannerKind{model.Wave}},
	}
	out := DedupePage(violations)
	require.Len(t, out, 2, "distinct selectors should not merge")

	var divEntry model.Violation
	for _, v := range out {
		if v.Selector == "div" {
			divEntry = v
		}
	}
	assert.Equal(t, 3, divEntry.OccurrenceCount)
	assert.ElementsMatch(t, []model.ScannerKind{model.Wave, model.Axe}, divEntry.Scanners)
}

func TestDedupePageIsIdempotent(t *testing.T) {
	violations := []model.Violation{
		{Code: "c1", WCAGCriterion: "1.1.1", Selector: "div", OccurrenceCount: 1, Scanners: []model.ScannerKind{model.Wave}},
		{Code: "c1", WCAGCriterion: "1.1.1", Selector: "div", OccurrenceCount: 2, Scanners: []model.ScannerKind{model.Axe}},
	}
	once := DedupePage(violations)
	twice := DedupePage(once)
	require.Equal(t, once, twice)
}

func TestCrossPageMergeIgnoresSelectorAcrossPages(t *testing.T) {
	pages := []model.PageResult{
		{Violations: []model.Violation{{Code: "c1", WCAGCriterion: "1.1.1", Selector: "div", OccurrenceCount: 1}}},
		{Violations: []model.Violation{{Code: "c1", WCAGCriterion: "1.1.1", Selector: "span", OccurrenceCount: 1}}},
	}
	merged := crossPageMerge(pages)
	require.Len(t, merged, 1)
	assert.Equal(t, 2, merged[0].OccurrenceCount)
}

func TestComputeMetricsCriticalForcesNonConforme(t *testing.T) {
	violations := []model.Violation{
		{Severity: model.SeverityCritical, WCAGCriterion: "1.1.1", OccurrenceCount: 1},
	}
	metrics := computeMetrics(violations, nil)
	assert.Equal(t, model.NonConforme, metrics.ComplianceLevel, "any critical violation forces non_conforme regardless of score")
}

func TestComputeMetricsScoreBandsWithoutCritical(t *testing.T) {
	// 1 high (weight 15) keeps score at 85 -> conforme boundary.
	conforme := computeMetrics([]model.Violation{
		{Severity: model.SeverityHigh, WCAGCriterion: "2.1.1", OccurrenceCount: 1},
	}, nil)
	assert.Equal(t, 85, conforme.OverallScore)
	assert.Equal(t, model.Conforme, conforme.ComplianceLevel)

	// 2 high (weight 30) drops to 70 -> parzialmente_conforme.
	partial := computeMetrics([]model.Violation{
		{Severity: model.SeverityHigh, WCAGCriterion: "2.1.1", OccurrenceCount: 2},
	}, nil)
	assert.Equal(t, 70, partial.OverallScore)
	assert.Equal(t, model.ParzialmenteConforme, partial.ComplianceLevel)
}

func TestComputeMetricsScoreClampedToZero(t *testing.T) {
	violations := []model.Violation{
		{Severity: model.SeverityCritical, WCAGCriterion: "1.1.1", OccurrenceCount: 50},
	}
	metrics := computeMetrics(violations, nil)
	assert.Equal(t, 0, metrics.OverallScore)
}

func TestComputeMetricsOccurrenceCapLimitsMultiplePenalty(t *testing.T) {
	// High severity's occurrence cap is 5; 100 occurrences should penalize
	// exactly as much as 5 (weight 15 * 5 = 75, score 25).
	capped := computeMetrics([]model.Violation{
		{Severity: model.SeverityHigh, WCAGCriterion: "2.1.1", OccurrenceCount: 100},
	}, nil)
	atCap := computeMetrics([]model.Violation{
		{Severity: model.SeverityHigh, WCAGCriterion: "2.1.1", OccurrenceCount: 5},
	}, nil)
	assert.Equal(t, 25, capped.OverallScore)
	assert.Equal(t, atCap.OverallScore, capped.OverallScore)
}

func TestComputeMetricsConfidenceFromScannerSuccessRatio(t *testing.T) {
	pages := []model.PageResult{
		{ScannerStatus: map[model.ScannerKind]model.Status{model.Wave: model.StatusOK, model.Axe: model.StatusFailed}},
	}
	metrics := computeMetrics(nil, pages)
	assert.InDelta(t, 0.5, metrics.Confidence, 0.0001)
}

func TestSortViolationsOrdersBySeverityThenCount(t *testing.T) {
	violations := []model.Violation{
		{Code: "b", Severity: model.SeverityLow, OccurrenceCount: 10},
		{Code: "a", Severity: model.SeverityCritical, OccurrenceCount: 1},
		{Code: "c", Severity: model.SeverityCritical, OccurrenceCount: 5},
	}
	sortViolations(violations)
	require.Equal(t, []string{"c", "a", "b"}, []string{violations[0].Code, violations[1].Code, violations[2].Code})
}

func TestAggregateIsDeterministic(t *testing.T) {
	pages := []model.PageResult{
		{Violations: []model.Violation{
			{Code: "alt_missing", WCAGCriterion: "1.1.1", Severity: model.SeverityCritical, OccurrenceCount: 1},
			{Code: "contrast", WCAGCriterion: "1.4.3", Severity: model.SeverityHigh, OccurrenceCount: 4},
		}},
	}

	v1, m1, r1 := Aggregate(pages, req())
	v2, m2, r2 := Aggregate(pages, req())

	assert.Equal(t, v1, v2)
	assert.Equal(t, m1, m2)
	assert.Equal(t, r1, r2)
}

func TestRecommendationsPrioritizeCriticalAndFrequentHigh(t *testing.T) {
	violations := []model.Violation{
		{Code: "alt_missing", Severity: model.SeverityCritical, OccurrenceCount: 1, Message: "fix alt"},
		{Code: "contrast", Severity: model.SeverityHigh, OccurrenceCount: 5, Message: "fix contrast"},
		{Code: "minor-thing", Severity: model.SeverityHigh, OccurrenceCount: 1, Message: "rare high"},
		{Code: "whatever", Severity: model.SeverityLow, OccurrenceCount: 100, Message: "low noise"},
	}
	recs := recommendations(violations)
	require.Len(t, recs, 2, "only critical, or high with >=3 occurrences, should generate a recommendation")
	assert.Equal(t, "alt_missing", recs[0].Code)
	assert.Equal(t, "contrast", recs[1].Code)
}

func TestRecommendationsCappedAtFive(t *testing.T) {
	var violations []model.Violation
	for i := 0; i < 10; i++ {
		violations = append(violations, model.Violation{
			Code: string(rune('a' + i)), Severity: model.SeverityCritical, OccurrenceCount: 1,
		})
	}
	recs := recommendations(violations)
	assert.Len(t, recs, 5)
}
