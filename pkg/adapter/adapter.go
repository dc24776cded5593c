// Package adapter implements the Scanner Adapter (C1): one implementation
// per ScannerKind behind a common interface, a shared retry-with-backoff
// harness, and simulate-mode canned output for deterministic tests.
package adapter

import (
	"context"
	"time"

	"github.com/openaudit/a11yscan/pkg/model"
)

// Config is per-call adapter configuration, derived from the ScanRequest and
// process-wide settings.
type Config struct {
	TimeoutMs  int
	Mode       model.ScanMode
	MaxRetries int
	RetryBase  time.Duration
	RetryCap   time.Duration
	OutputDir  string

	WaveAPIKey   string
	WaveBaseURL  string
	Pa11yBinary  string
	AxeBinary    string
	LighthouseBinary string
}

func (c *Config) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.RetryBase <= 0 {
		c.RetryBase = time.Second
	}
	if c.RetryCap <= 0 {
		c.RetryCap = 10 * time.Second
	}
}

// Adapter is the contract every ScannerKind implementation satisfies:
// scan one page, synchronously to the caller, honoring cancellation and its
// own hard deadline.
type Adapter interface {
	Kind() model.ScannerKind
	Scan(ctx context.Context, page model.PageRef, cfg Config) model.RawScanOutput
}

// For returns the adapter for one member of the closed ScannerKind set, or
// nil for any other kind.
func For(kind model.ScannerKind) Adapter {
	switch kind {
	case model.Wave:
		return &waveAdapter{}
	case model.Pa11y:
		return &subprocessAdapter{kind: model.Pa11y, binary: func(c Config) string { return c.Pa11yBinary }}
	case model.Axe:
		return &subprocessAdapter{kind: model.Axe, binary: func(c Config) string { return c.AxeBinary }}
	case model.Lighthouse:
		return &subprocessAdapter{kind: model.Lighthouse, binary: func(c Config) string { return c.LighthouseBinary }}
	default:
		return nil
	}
}

// WithRetry wraps a single invocation attempt with the exponential-backoff
// retry policy from §4.1: retryable failures are retried up to
// cfg.MaxRetries times, starting at RetryBase and doubling, capped at
// RetryCap; non-retryable failures short-circuit immediately.
func WithRetry(ctx context.Context, cfg Config, attempt func(ctx context.Context) model.RawScanOutput) model.RawScanOutput {
	cfg.applyDefaults()

	delay := cfg.RetryBase
	var last model.RawScanOutput
	for try := 0; try <= cfg.MaxRetries; try++ {
		last = attempt(ctx)
		if last.Success || last.Failure == nil || !last.Failure.Retryable {
			return last
		}
		if try == cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return last
		case <-time.After(delay):
		}
		delay *= 2
		if delay > cfg.RetryCap {
			delay = cfg.RetryCap
		}
	}
	return last
}

// deadline bounds ctx by cfg.TimeoutMs, per "must enforce its own hard
// deadline equal to cfg.timeoutMs".
func deadline(ctx context.Context, cfg Config) (context.Context, context.CancelFunc) {
	if cfg.TimeoutMs <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(cfg.TimeoutMs)*time.Millisecond)
}
