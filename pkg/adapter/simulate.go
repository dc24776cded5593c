package adapter

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"

	"github.com/openaudit/a11yscan/pkg/model"
)

// simulateFixture returns a deterministic canned RawScanOutput for one
// ScannerKind and URL, so `mode: simulate` never makes an external call.
// The orchestrator's pipeline tests run on these fixtures.
func simulateFixture(kind model.ScannerKind, url string) model.RawScanOutput {
	seed := hash(url)

	switch kind {
	case model.Wave:
		payload, _ := json.Marshal(map[string]interface{}{
			"status": map[string]bool{"success": true},
			"categories": map[string]interface{}{
				"error": map[string]interface{}{"items": map[string]interface{}{
					"alt_missing": map[string]interface{}{"description": "Missing alternative text", "count": 1 + seed%3},
				}},
				"alert": map[string]interface{}{"items": map[string]interface{}{}},
			},
		})
		return model.SuccessOutput(payload)
	case model.Pa11y:
		payload, _ := json.Marshal(map[string]interface{}{
			"issues": []map[string]interface{}{
				{"type": "error", "code": "WCAG2AA.Principle1.Guideline1_3.1_3_1", "message": "Simulated issue", "selector": "div"},
			},
		})
		return model.SuccessOutput(payload)
	case model.Axe:
		payload, _ := json.Marshal(map[string]interface{}{
			"violations": []map[string]interface{}{
				{"id": "color-contrast", "impact": "serious", "description": "Simulated contrast issue", "tags": []string{"wcag143"}, "nodes": []map[string]interface{}{{"target": []string{"div"}}}},
			},
		})
		return model.SuccessOutput(payload)
	case model.Lighthouse:
		score := 0.0
		payload, _ := json.Marshal(map[string]interface{}{
			"audits": map[string]interface{}{
				"color-contrast": map[string]interface{}{"title": "Simulated contrast audit", "score": score},
			},
		})
		return model.SuccessOutput(payload)
	default:
		return model.FailureOutput(model.FailureProtocol, "unknown scanner kind")
	}
}

func hash(s string) int {
	h := sha256.Sum256([]byte(s))
	return int(binary.BigEndian.Uint32(h[:4]))
}
