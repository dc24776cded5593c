package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openaudit/a11yscan/pkg/model"
)

// lighthouseCriticalAudits is the fixed set of accessibility audit ids the
// original implementation considers, ported verbatim from normalize.py's
// critical_audits list.
var lighthouseCriticalAudits = map[string]bool{
	"aria-allowed-attr": true, "aria-command-name": true, "aria-hidden-body": true,
	"aria-hidden-focus": true, "aria-input-field-name": true, "aria-meter-name": true,
	"aria-progressbar-name": true, "aria-required-attr": true, "aria-required-children": true,
	"aria-required-parent": true, "aria-roles": true, "aria-toggle-field-name": true,
	"aria-tooltip-name": true, "aria-treeitem-name": true, "aria-valid-attr-value": true,
	"aria-valid-attr": true, "button-name": true, "bypass": true, "color-contrast": true,
	"definition-list": true, "dlitem": true, "document-title": true, "duplicate-id-active": true,
	"duplicate-id-aria": true, "form-field-multiple-labels": true, "frame-title": true,
	"html-has-lang": true, "html-lang-valid": true, "html-xml-lang-mismatch": true,
	"image-alt": true, "input-image-alt": true, "label": true, "link-name": true, "list": true,
	"listitem": true, "meta-refresh": true, "meta-viewport": true, "object-alt": true,
	"scrollable-region-focusable": true, "select-name": true, "skip-link": true,
	"tabindex": true, "td-headers-attr": true, "th-has-data-cells": true,
	"valid-lang": true, "video-caption": true,
}

// lighthouseAuditWCAG maps Lighthouse audit ids to WCAG success criteria,
// ported verbatim from normalize.py's map_lighthouse_to_wcag table.
var lighthouseAuditWCAG = map[string]string{
	"aria-allowed-attr": "4.1.2", "aria-command-name": "4.1.2", "aria-hidden-body": "4.1.2",
	"aria-hidden-focus": "4.1.2", "aria-input-field-name": "4.1.2", "aria-meter-name": "1.1.1",
	"aria-progressbar-name": "1.1.1", "aria-required-attr": "4.1.2", "aria-required-children": "1.3.1",
	"aria-required-parent": "1.3.1", "aria-roles": "4.1.2", "aria-toggle-field-name": "4.1.2",
	"aria-tooltip-name": "4.1.2", "aria-treeitem-name": "4.1.2", "aria-valid-attr-value": "4.1.2",
	"aria-valid-attr": "4.1.2", "button-name": "4.1.2", "bypass": "2.4.1", "color-contrast": "1.4.3",
	"definition-list": "1.3.1", "dlitem": "1.3.1", "document-title": "2.4.2",
	"duplicate-id-active": "4.1.1", "duplicate-id-aria": "4.1.1",
	"form-field-multiple-labels": "3.3.2", "frame-title": "2.4.1", "html-has-lang": "3.1.1",
	"html-lang-valid": "3.1.1", "html-xml-lang-mismatch": "3.1.1", "image-alt": "1.1.1",
	"input-image-alt": "1.1.1", "label": "1.3.1", "link-name": "2.4.4", "list": "1.3.1",
	"listitem": "1.3.1", "meta-refresh": "2.2.1", "meta-viewport": "1.4.4", "object-alt": "1.1.1",
	"scrollable-region-focusable": "2.1.1", "select-name": "1.3.1", "skip-link": "2.4.1",
	"tabindex": "2.4.3", "td-headers-attr": "1.3.1", "th-has-data-cells": "1.3.1",
	"valid-lang": "3.1.2", "video-caption": "1.2.2",
}

type lighthouseAuditDetails struct {
	Items []json.RawMessage `json:"items"`
}

type lighthouseAudit struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Score       *float64                `json:"score"`
	Details     *lighthouseAuditDetails `json:"details"`
}

type lighthouseResponse struct {
	Audits map[string]lighthouseAudit `json:"audits"`
}

func normalizeLighthouse(payload []byte, page model.PageRef) ([]model.Violation, error) {
	var resp lighthouseResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("lighthouse: %w", err)
	}

	var violations []model.Violation
	for auditID, audit := range resp.Audits {
		if !lighthouseCriticalAudits[auditID] {
			continue
		}
		if audit.Score == nil || *audit.Score >= 1 {
			continue
		}
		severity := model.SeverityMedium
		if strings.Contains(auditID, "aria") || strings.Contains(auditID, "contrast") {
			severity = model.SeverityHigh
		}
		count := 0
		if audit.Details != nil {
			count = len(audit.Details.Items)
		}
		if count == 0 {
			count = 1
		}
		violations = append(violations, model.Violation{
			Code:            auditID,
			Message:         audit.Title,
			Severity:        severity,
			WCAGCriterion:   lighthouseAuditWCAG[auditID],
			WCAGLevel:       model.LevelAA,
			RemediationHint: audit.Description,
			Scanners:        []model.ScannerKind{model.Lighthouse},
			OccurrenceCount: count,
			Page:            page,
		})
	}
	return violations, nil
}
