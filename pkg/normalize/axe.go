package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/openaudit/a11yscan/pkg/model"
)

var axeImpactSeverity = map[string]model.Severity{
	"critical": model.SeverityCritical,
	"serious":  model.SeverityHigh,
	"moderate": model.SeverityMedium,
	"minor":    model.SeverityLow,
}

var axeWCAGTagRe = regexp.MustCompile(`wcag(\d+)`)

// extractWCAGFromTags finds the first tag of the form wcag<digits> whose
// digit run is three or four long (so "wcag2aa" is skipped) and formats it
// as a criterion: three digits as X.Y.Z, four digits as X.Y.ZZ.
func extractWCAGFromTags(tags []string) string {
	for _, tag := range tags {
		m := axeWCAGTagRe.FindStringSubmatch(strings.ToLower(tag))
		if m == nil {
			continue
		}
		digits := m[1]
		switch len(digits) {
		case 3:
			return fmt.Sprintf("%c.%c.%c", digits[0], digits[1], digits[2])
		case 4:
			return fmt.Sprintf("%c.%c.%s", digits[0], digits[1], digits[2:])
		}
	}
	return ""
}

type axeNode struct {
	Target []string `json:"target"`
	HTML   string   `json:"html"`
}

type axeViolation struct {
	ID          string    `json:"id"`
	Impact      string    `json:"impact"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	HelpURL     string    `json:"helpUrl"`
	Tags        []string  `json:"tags"`
	Nodes       []axeNode `json:"nodes"`
}

type axeResponse struct {
	Violations []axeViolation `json:"violations"`
}

func normalizeAxe(payload []byte, page model.PageRef) ([]model.Violation, error) {
	var resp axeResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("axe: %w", err)
	}

	var violations []model.Violation
	for _, v := range resp.Violations {
		severity, ok := axeImpactSeverity[v.Impact]
		if !ok {
			severity = model.SeverityMedium
		}
		description := v.Description
		if description == "" {
			description = v.Help
		}
		selector := ""
		if len(v.Nodes) > 0 && len(v.Nodes[0].Target) > 0 {
			selector = v.Nodes[0].Target[0]
		}
		count := len(v.Nodes)
		if count == 0 {
			count = 1
		}
		violations = append(violations, model.Violation{
			Code:            v.ID,
			Message:         description,
			Severity:        severity,
			WCAGCriterion:   extractWCAGFromTags(v.Tags),
			WCAGLevel:       model.LevelAA,
			Selector:        selector,
			RemediationHint: v.HelpURL,
			Scanners:        []model.ScannerKind{model.Axe},
			OccurrenceCount: count,
			Page:            page,
		})
	}
	return violations, nil
}
