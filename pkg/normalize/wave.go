package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/openaudit/a11yscan/pkg/model"
)

// waveWCAGMapping maps WAVE item codes to WCAG success criteria.
var waveWCAGMapping = map[string]string{
	"alt_missing":             "1.1.1",
	"alt_link_missing":        "1.1.1",
	"alt_spacer_missing":      "1.1.1",
	"alt_input_missing":       "1.1.1",
	"alt_area_missing":        "1.1.1",
	"alt_map_missing":         "1.1.1",
	"contrast":                "1.4.3",
	"contrast_large":          "1.4.3",
	"label_missing":           "1.3.1",
	"label_empty":             "1.3.1",
	"heading_empty":           "1.3.1",
	"button_empty":            "1.3.1",
	"link_empty":              "2.4.4",
	"language_missing":        "3.1.1",
	"title_missing":           "2.4.2",
	"th_empty":                "1.3.1",
	"table_layout":            "1.3.1",
	"table_caption_possible":  "1.3.1",
}

var waveRemediation = map[string]string{
	"alt_missing":      "Add a descriptive alt attribute to the image",
	"contrast":         "Increase color contrast (minimum 4.5:1 for normal text, 3:1 for large text)",
	"label_missing":    "Associate a label with the form field",
	"heading_empty":    "Add text content to the heading",
	"button_empty":     "Add text or an aria-label to the button",
	"link_empty":       "Add descriptive text to the link",
	"language_missing": "Specify the lang attribute on the html element",
	"title_missing":    "Add a title element to the document head",
}

var waveCriticalCodes = map[string]bool{"alt_missing": true, "label_missing": true, "language_missing": true}
var waveHighCodes = map[string]bool{"contrast": true, "heading_empty": true, "button_empty": true, "link_empty": true}

func waveSeverity(code string) model.Severity {
	if waveCriticalCodes[code] {
		return model.SeverityCritical
	}
	if waveHighCodes[code] {
		return model.SeverityHigh
	}
	return model.SeverityMedium
}

type waveItem struct {
	Description string `json:"description"`
	Count       int    `json:"count"`
}

type waveCategory struct {
	Items map[string]waveItem `json:"items"`
}

type waveResponse struct {
	Status struct {
		Success bool `json:"success"`
	} `json:"status"`
	Categories struct {
		Error   waveCategory `json:"error"`
		Alert   waveCategory `json:"alert"`
		Feature waveCategory `json:"feature"`
	} `json:"categories"`
}

func normalizeWave(payload []byte, page model.PageRef) ([]model.Violation, error) {
	var resp waveResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("wave: %w", err)
	}

	var violations []model.Violation
	for code, item := range resp.Categories.Error.Items {
		violations = append(violations, model.Violation{
			Code:            code,
			Message:         item.Description,
			Severity:        waveSeverity(code),
			WCAGCriterion:   waveWCAGMapping[code],
			WCAGLevel:       model.LevelAA,
			RemediationHint: waveRemediation[code],
			Scanners:        []model.ScannerKind{model.Wave},
			OccurrenceCount: maxInt(item.Count, 1),
			Page:            page,
		})
	}
	for code, item := range resp.Categories.Alert.Items {
		violations = append(violations, model.Violation{
			Code:            code,
			Message:         item.Description,
			Severity:        model.SeverityLow,
			WCAGCriterion:   waveWCAGMapping[code],
			WCAGLevel:       model.LevelAA,
			RemediationHint: waveRemediation[code],
			Scanners:        []model.ScannerKind{model.Wave},
			OccurrenceCount: maxInt(item.Count, 1),
			Page:            page,
		})
	}
	return violations, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
