// Package aggregate implements the Aggregator (C3): per-page
// deduplication, cross-page merge, sorting, POUR categorization, score
// computation, compliance level, confidence, and remediation
// recommendations. Every step iterates in a deterministic order so that
// identical inputs produce byte-identical ScanResults (§4.3, §8 property 5).
package aggregate

import (
	"sort"

	"github.com/openaudit/a11yscan/pkg/model"
)

// severityWeight and occurrenceCap implement §4.3 step 5's scoring formula.
var severityWeight = map[model.Severity]int{
	model.SeverityCritical: 20,
	model.SeverityHigh:     15,
	model.SeverityMedium:   8,
	model.SeverityLow:      3,
}

var occurrenceCap = map[model.Severity]int{
	model.SeverityCritical: 5,
	model.SeverityHigh:     5,
	model.SeverityMedium:   5,
	model.SeverityLow:      3,
}

// DedupePage applies §4.3 step 1 to a single page's raw violation list: group
// by (code, wcagCriterion, selector), sum counts, union producing scanners,
// preserving first-occurrence order. It is idempotent: running it twice on
// its own output is a no-op (§8 property 4).
func DedupePage(violations []model.Violation) []model.Violation {
	order := make([]string, 0, len(violations))
	byKey := make(map[string]*model.Violation, len(violations))

	for _, v := range violations {
		key := v.DedupeKey()
		if existing, ok := byKey[key]; ok {
			existing.OccurrenceCount += v.OccurrenceCount
			for _, k := range v.Scanners {
				if !existing.HasScanner(k) {
					existing.Scanners = append(existing.Scanners, k)
				}
			}
			continue
		}
		cp := v
		cp.Scanners = append([]model.ScannerKind(nil), v.Scanners...)
		byKey[key] = &cp
		order = append(order, key)
	}

	out := make([]model.Violation, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

// Aggregate implements the full Aggregator contract: aggregate(pageResults,
// req) -> ScanResult (merged violations, metrics and recommendations only; callers fill in the
// scan id / timestamps / page list themselves since those are orchestrator
// concerns, not aggregation concerns).
func Aggregate(pages []model.PageResult, req model.ScanRequest) (violations []model.Violation, metrics model.ComplianceMetrics, recs []model.Recommendation) {
	violations = crossPageMerge(pages)
	sortViolations(violations)
	metrics = computeMetrics(violations, pages)
	recs = recommendations(violations)
	return violations, metrics, recs
}

// crossPageMerge implements §4.3 step 2: group by (code, criterion) across
// all pages, already-deduped per page.
func crossPageMerge(pages []model.PageResult) []model.Violation {
	order := make([]string, 0)
	byKey := make(map[string]*model.Violation)

	for _, page := range pages {
		for _, v := range DedupePage(page.Violations) {
			key := v.CrossPageKey()
			if existing, ok := byKey[key]; ok {
				existing.OccurrenceCount += v.OccurrenceCount
				for _, k := range v.Scanners {
					if !existing.HasScanner(k) {
						existing.Scanners = append(existing.Scanners, k)
					}
				}
				continue
			}
			cp := v
			cp.Scanners = append([]model.ScannerKind(nil), v.Scanners...)
			byKey[key] = &cp
			order = append(order, key)
		}
	}

	out := make([]model.Violation, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

// sortViolations implements §4.3 step 3: severity critical->low, then
// descending occurrence count, then code for a fully deterministic order.
func sortViolations(violations []model.Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.OccurrenceCount != b.OccurrenceCount {
			return a.OccurrenceCount > b.OccurrenceCount
		}
		return a.Code < b.Code
	})
}

func computeMetrics(violations []model.Violation, pages []model.PageResult) model.ComplianceMetrics {
	countBySeverity := map[model.Severity]int{
		model.SeverityCritical: 0, model.SeverityHigh: 0, model.SeverityMedium: 0, model.SeverityLow: 0,
	}
	countByPrinciple := map[model.POURPrinciple]int{
		model.Perceivable: 0, model.Operable: 0, model.Understandable: 0, model.Robust: 0,
	}

	penalty := 0
	hasCritical := false
	for _, v := range violations {
		countBySeverity[v.Severity]++
		countByPrinciple[model.PrincipleFromCriterion(v.WCAGCriterion)]++
		if v.Severity == model.SeverityCritical {
			hasCritical = true
		}
		cap := occurrenceCap[v.Severity]
		count := v.OccurrenceCount
		if count > cap {
			count = cap
		}
		penalty += severityWeight[v.Severity] * count
	}

	score := 100 - penalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var level model.ComplianceLevel
	switch {
	case hasCritical:
		level = model.NonConforme
	case score >= 85:
		level = model.Conforme
	case score >= 60:
		level = model.ParzialmenteConforme
	default:
		level = model.NonConforme
	}

	successful, total := 0, 0
	for _, page := range pages {
		for _, status := range page.ScannerStatus {
			total++
			if status == model.StatusOK {
				successful++
			}
		}
	}
	confidence := 0.0
	if total > 0 {
		confidence = float64(successful) / float64(total)
	}

	return model.ComplianceMetrics{
		OverallScore:     score,
		ComplianceLevel:  level,
		CountBySeverity:  countBySeverity,
		CountByPrinciple: countByPrinciple,
		Confidence:       confidence,
	}
}

// recommendations builds one entry per distinct violation with count >=1
// critical or >=3 high, ordered by severity then descending count, capped
// at 5.
func recommendations(violations []model.Violation) []model.Recommendation {
	var recs []model.Recommendation
	for _, v := range violations {
		switch {
		case v.Severity == model.SeverityCritical:
		case v.Severity == model.SeverityHigh && v.OccurrenceCount >= 3:
		default:
			continue
		}
		recs = append(recs, model.Recommendation{
			Code:            v.Code,
			Priority:        v.Severity.Rank(),
			Message:         v.Message,
			RemediationHint: v.RemediationHint,
			AffectedPages:   v.OccurrenceCount,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return recs[i].Priority < recs[j].Priority
		}
		return recs[i].AffectedPages > recs[j].AffectedPages
	})
	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}
