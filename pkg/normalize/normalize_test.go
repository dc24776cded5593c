package normalize

import (
	"testing"

	"github.com/openaudit/a11yscan/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPage = model.PageRef{URL: "https://example.com/"}

func TestNormalizeWave(t *testing.T) {
	payload := []byte(`{
		"status": {"success": true},
		"categories": {
			"error": {"items": {"alt_missing": {"description": "Missing alt text", "count": 3}}},
			"alert": {"items": {"table_layout": {"description": "Layout table", "count": 1}}}
		}
	}`)

	violations, err := normalizeWave(payload, testPage)
	require.NoError(t, err)
	require.Len(t, violations, 2)

	byCode := map[string]model.Violation{}
	for _, v := range violations {
		byCode[v.Code] = v
	}

	alt := byCode["alt_missing"]
	assert.Equal(t, model.SeverityCritical, alt.Severity)
	assert.Equal(t, "1.1.1", alt.WCAGCriterion)
	assert.Equal(t, 3, alt.OccurrenceCount)
	assert.Contains(t, alt.Scanners, model.Wave)

	layout := byCode["table_layout"]
	assert.Equal(t, model.SeverityLow, layout.Severity, "alert category items are always low severity")
}

func TestNormalizeWaveMalformedReturnsError(t *testing.T) {
	_, err := normalizeWave([]byte(`not json`), testPage)
	assert.Error(t, err)
}

func TestNormalizePa11yWrappedIssues(t *testing.T) {
	payload := []byte(`{"issues": [
		{"type": "error", "code": "WCAG2AA.Principle1.Guideline1_1.1_1_1", "message": "missing alt", "selector": "img"}
	]}`)
	violations, err := normalizePa11y(payload, testPage)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, model.SeverityHigh, violations[0].Severity)
	assert.Equal(t, "1.1.1", violations[0].WCAGCriterion)
}

func TestNormalizePa11yBareArray(t *testing.T) {
	payload := []byte(`[{"type": "notice", "code": "WCAG2AA.Principle1.Guideline1_3.1_3_1", "message": "m"}]`)
	violations, err := normalizePa11y(payload, testPage)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, model.SeverityLow, violations[0].Severity)
}

func TestExtractWCAGFromCode(t *testing.T) {
	assert.Equal(t, "1.1.1", extractWCAGFromCode("WCAG2AA.Principle1.Guideline1_1.1_1_1"))
	assert.Equal(t, "", extractWCAGFromCode("too.short"))
}

func TestNormalizeAxe(t *testing.T) {
	payload := []byte(`{"violations": [
		{"id": "color-contrast", "impact": "serious", "description": "low contrast", "tags": ["wcag2aa", "wcag143"],
		 "nodes": [{"target": ["div.a"]}, {"target": ["div.b"]}]}
	]}`)
	violations, err := normalizeAxe(payload, testPage)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, model.SeverityHigh, v.Severity)
	assert.Equal(t, "1.4.3", v.WCAGCriterion)
	assert.Equal(t, "div.a", v.Selector)
	assert.Equal(t, 2, v.OccurrenceCount)
}

func TestExtractWCAGFromTags(t *testing.T) {
	assert.Equal(t, "1.4.3", extractWCAGFromTags([]string{"cat.color", "wcag143"}))
	assert.Equal(t, "1.4.11", extractWCAGFromTags([]string{"wcag1411"}))
	assert.Equal(t, "", extractWCAGFromTags([]string{"best-practice"}))
}

func TestNormalizeLighthouseSkipsNonCriticalAndPassingAudits(t *testing.T) {
	score0 := 0.0
	score1 := 1.0
	payload := []byte(`{"audits": {
		"color-contrast": {"title": "Contrast", "description": "fix it", "score": 0},
		"image-alt": {"title": "Alt text", "score": 1},
		"not-an-a11y-audit": {"title": "Irrelevant", "score": 0}
	}}`)
	_ = score0
	_ = score1

	violations, err := normalizeLighthouse(payload, testPage)
	require.NoError(t, err)
	require.Len(t, violations, 1, "only the failing, critical-listed audit should produce a violation")
	assert.Equal(t, "color-contrast", violations[0].Code)
	assert.Equal(t, model.SeverityHigh, violations[0].Severity)
	assert.Equal(t, "1.4.3", violations[0].WCAGCriterion)
}

func TestNormalizeDispatchesByKind(t *testing.T) {
	raw := model.SuccessOutput([]byte(`{"violations": []}`))
	violations := Normalize(model.Axe, raw, testPage)
	assert.Empty(t, violations)
}

func TestNormalizeSkipsFailureOutput(t *testing.T) {
	raw := model.FailureOutput(model.FailureTimeout, "timed out")
	assert.Nil(t, Normalize(model.Wave, raw, testPage))
}

func TestNormalizeUnknownKindReturnsNil(t *testing.T) {
	raw := model.SuccessOutput([]byte(`{}`))
	assert.Nil(t, Normalize(model.ScannerKind("unknown"), raw, testPage))
}

func TestNormalizeMalformedPayloadReturnsNilNotError(t *testing.T) {
	raw := model.SuccessOutput([]byte(`not json`))
	assert.Nil(t, Normalize(model.Axe, raw, testPage))
}
