package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/openaudit/a11yscan/pkg/model"
)

var pa11ySeverityMap = map[string]model.Severity{
	"error":   model.SeverityHigh,
	"warning": model.SeverityMedium,
	"notice":  model.SeverityLow,
}

var pa11yCriterionRe = regexp.MustCompile(`(\d+)[._](\d+)[._](\d+)`)

// extractWCAGFromCode takes the last dotted segment of a Pa11y code
// (e.g. "WCAG2AA.Principle1.Guideline1_1.1_1_1" -> "1_1_1"), normalizes
// underscores to dots, and pulls out the first X.Y.Z triple found.
func extractWCAGFromCode(code string) string {
	parts := strings.Split(code, ".")
	if len(parts) < 4 {
		return ""
	}
	criterion := strings.ReplaceAll(parts[len(parts)-1], "_", ".")
	if m := pa11yCriterionRe.FindStringSubmatch(criterion); m != nil {
		return m[1] + "." + m[2] + "." + m[3]
	}
	return ""
}

type pa11yIssue struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Selector string `json:"selector"`
	Context  string `json:"context"`
}

type pa11yResponse struct {
	Issues []pa11yIssue `json:"issues"`
}

func normalizePa11y(payload []byte, page model.PageRef) ([]model.Violation, error) {
	var issues []pa11yIssue

	var resp pa11yResponse
	if err := json.Unmarshal(payload, &resp); err == nil && resp.Issues != nil {
		issues = resp.Issues
	} else if err := json.Unmarshal(payload, &issues); err != nil {
		return nil, fmt.Errorf("pa11y: %w", err)
	}

	var violations []model.Violation
	for _, issue := range issues {
		issueType := strings.ToLower(issue.Type)
		severity, ok := pa11ySeverityMap[issueType]
		if !ok {
			severity = model.SeverityLow
		}
		violations = append(violations, model.Violation{
			Code:            issue.Code,
			Message:         issue.Message,
			Severity:        severity,
			WCAGCriterion:   extractWCAGFromCode(issue.Code),
			WCAGLevel:       model.LevelAA,
			Selector:        issue.Selector,
			Snippet:         issue.Context,
			Scanners:        []model.ScannerKind{model.Pa11y},
			OccurrenceCount: 1,
			Page:            page,
		})
	}
	return violations, nil
}
