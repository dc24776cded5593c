// Package normalize implements the Result Normalizer (C2): one pure
// function per ScannerKind that converts a raw scanner payload into the
// canonical Violation set. Any structural deviation in the input yields an
// empty list and a non-fatal log line, never an error to the caller. Real
// scanner output is frequently partial.
package normalize

import (
	"github.com/openaudit/a11yscan/pkg/model"
	"github.com/rs/zerolog/log"
)

// Normalize dispatches to the per-ScannerKind normalizer. raw must be a
// Success output; callers are expected to have already filtered out
// Failures (they contribute zero violations and a ScannerFailed event).
func Normalize(kind model.ScannerKind, raw model.RawScanOutput, page model.PageRef) []model.Violation {
	if !raw.Success {
		return nil
	}
	var violations []model.Violation
	var err error
	switch kind {
	case model.Wave:
		violations, err = normalizeWave(raw.Payload, page)
	case model.Pa11y:
		violations, err = normalizePa11y(raw.Payload, page)
	case model.Axe:
		violations, err = normalizeAxe(raw.Payload, page)
	case model.Lighthouse:
		violations, err = normalizeLighthouse(raw.Payload, page)
	default:
		log.Warn().Str("scanner", string(kind)).Msg("normalize: unknown scanner kind")
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Str("scanner", string(kind)).Str("page", page.URL).
			Msg("normalize: malformed scanner output, skipping (NormalizationSkip)")
		return nil
	}
	return violations
}
