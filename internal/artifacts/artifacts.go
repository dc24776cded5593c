// Package artifacts writes the per-scan on-disk output tree: one raw JSON
// file per (page, scanner), a summary.json with the final ScanResult, and an
// append-only events.ndjson log. Every write is best-effort: a disk error
// here never fails a scan, it only logs.
package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/openaudit/a11yscan/pkg/model"
	"github.com/rs/zerolog/log"
)

// Store writes each scan's artifact tree under <root>/<scanID>/.
type Store struct {
	root string

	mu      sync.Mutex
	eventFh *os.File
}

// New constructs a Store rooted at outputDir. The per-scan directory is
// created lazily on first write.
func New(outputDir string) *Store {
	if outputDir == "" {
		outputDir = "./scans"
	}
	return &Store{root: outputDir}
}

func (s *Store) scanDir(scanID string) string {
	return filepath.Join(s.root, scanID)
}

func (s *Store) ensureDir(scanID string) (string, error) {
	dir := s.scanDir(scanID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// WriteRaw persists one scanner's raw payload for one page, named
// <page-slug>.<scanner>.json under that scan's output directory.
func (s *Store) WriteRaw(scanID string, page model.PageRef, kind model.ScannerKind, raw model.RawScanOutput) {
	dir, err := s.ensureDir(scanID)
	if err != nil {
		log.Warn().Err(err).Str("scan", scanID).Msg("artifacts: could not create scan directory")
		return
	}

	name := slug(page.URL) + "." + string(kind) + ".json"
	path := filepath.Join(dir, name)

	var body []byte
	if raw.Success {
		body = raw.Payload
	} else {
		body, _ = json.MarshalIndent(raw.Failure, "", "  ")
	}

	if err := os.WriteFile(path, body, 0o644); err != nil {
		log.Warn().Err(err).Str("scan", scanID).Str("path", path).Msg("artifacts: could not write raw output")
	}
}

// WriteSummary persists the final ScanResult as summary.json.
func (s *Store) WriteSummary(scanID string, result *model.ScanResult) {
	dir, err := s.ensureDir(scanID)
	if err != nil {
		log.Warn().Err(err).Str("scan", scanID).Msg("artifacts: could not create scan directory")
		return
	}

	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Warn().Err(err).Str("scan", scanID).Msg("artifacts: could not marshal summary")
		return
	}

	path := filepath.Join(dir, "summary.json")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		log.Warn().Err(err).Str("scan", scanID).Str("path", path).Msg("artifacts: could not write summary")
	}
}

// AppendEvent appends one ScanEvent as a line of that scan's events.ndjson.
// The file is opened in append mode and closed again on every call, under
// the Store's mutex.
func (s *Store) AppendEvent(scanID string, event model.ScanEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.ensureDir(scanID)
	if err != nil {
		log.Warn().Err(err).Str("scan", scanID).Msg("artifacts: could not create scan directory")
		return
	}

	path := filepath.Join(dir, "events.ndjson")
	fh, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Warn().Err(err).Str("scan", scanID).Str("path", path).Msg("artifacts: could not open events log")
		return
	}
	defer fh.Close()

	line, err := json.Marshal(event)
	if err != nil {
		return
	}
	if _, err := fh.Write(append(line, '\n')); err != nil {
		log.Warn().Err(err).Str("scan", scanID).Msg("artifacts: could not append event")
	}
}

func slug(url string) string {
	replacer := strings.NewReplacer(
		"https://", "", "http://", "",
		"/", "_", "?", "_", "&", "_", "=", "_", ":", "_",
	)
	out := replacer.Replace(url)
	if out == "" {
		out = "root"
	}
	return out
}
