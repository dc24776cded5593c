// Package orchestrator implements the Scan Orchestrator (C5), the hard core
// of the engine: it drives one scan from admission through discovery,
// per-page scanner fan-out, normalization, and aggregation, emitting events
// on the Event Bus throughout and honoring cooperative cancellation.
//
// The shape follows a familiar scan-engine pattern: crawl, then per-item
// scheduling, then wait-for-completion, then finalize task status.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/openaudit/a11yscan/internal/artifacts"
	"github.com/openaudit/a11yscan/pkg/adapter"
	"github.com/openaudit/a11yscan/pkg/aggregate"
	"github.com/openaudit/a11yscan/pkg/discovery"
	"github.com/openaudit/a11yscan/pkg/eventbus"
	"github.com/openaudit/a11yscan/pkg/model"
	"github.com/openaudit/a11yscan/pkg/normalize"
	"github.com/openaudit/a11yscan/pkg/registry"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// Options configures an Orchestrator; zero values fall back to the §5
// defaults.
type Options struct {
	PerScanPageConcurrency int
	CancelGracePeriod      time.Duration

	DiscoveryConcurrency  int
	DiscoveryFetchTimeout time.Duration
	DiscoveryPhaseTimeout time.Duration
	DeniedExtensions      []string

	AdapterMaxRetries int
	AdapterRetryBase  time.Duration
	AdapterRetryCap   time.Duration
	AdapterOutputDir  string
	WaveAPIKey        string
	WaveBaseURL       string
	Pa11yBinary       string
	AxeBinary         string
	LighthouseBinary  string
}

func (o *Options) applyDefaults() {
	if o.PerScanPageConcurrency <= 0 {
		o.PerScanPageConcurrency = 1
	}
	if o.CancelGracePeriod <= 0 {
		o.CancelGracePeriod = 5 * time.Second
	}
}

// Archiver receives every terminal ScanState, for the optional supplemental
// persistence layer (internal/store). Satisfied by *store.Store.
type Archiver interface {
	Archive(model.ScanState) error
}

// Orchestrator drives scans against a Registry and Event Bus.
type Orchestrator struct {
	reg       *registry.Registry
	bus       *eventbus.Bus
	artifacts *artifacts.Store
	archiver  Archiver
	opts      Options
	cancels   sync.Map // scanID -> context.CancelFunc
}

// New constructs an Orchestrator. artifactStore may be nil, in which case
// no on-disk artifacts are written.
func New(reg *registry.Registry, bus *eventbus.Bus, artifactStore *artifacts.Store, opts Options) *Orchestrator {
	opts.applyDefaults()
	return &Orchestrator{reg: reg, bus: bus, artifacts: artifactStore, opts: opts}
}

// SetArchiver wires an optional archive sink; every terminal scan state is
// handed to it after the Registry has already recorded it.
func (o *Orchestrator) SetArchiver(a Archiver) {
	o.archiver = a
}

func (o *Orchestrator) archive(scanID string) {
	if o.archiver == nil {
		return
	}
	state, err := o.reg.Get(scanID)
	if err != nil {
		return
	}
	if err := o.archiver.Archive(state); err != nil {
		log.Warn().Err(err).Str("scan", scanID).Msg("orchestrator: could not archive scan")
	}
}

// StartScan admits the request and runs the pipeline on a background
// goroutine, returning the scan id immediately. Admission errors (§8
// property 9) surface synchronously without allocating a scan id.
func (o *Orchestrator) StartScan(req model.ScanRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	state, err := o.reg.Admit()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.cancels.Store(state.ScanID, cancel)

	go o.runScan(ctx, state.ScanID, req)

	return state.ScanID, nil
}

// CancelScan sets the flag that is checked before each new Adapter dispatch
// and signals already-running Adapters via the scan's context. Per §8
// property 8, no further ScannerStarted is emitted once this returns.
func (o *Orchestrator) CancelScan(scanID string) error {
	if v, ok := o.cancels.Load(scanID); ok {
		v.(context.CancelFunc)()
	}
	return o.reg.Cancel(scanID)
}

// publish fans out to the Event Bus and, when an artifact store is
// configured, appends the same event to that scan's events.ndjson.
func (o *Orchestrator) publish(scanID string, eventType model.EventType, payload interface{}) {
	event := o.bus.Publish(scanID, eventType, payload)
	if o.artifacts != nil {
		o.artifacts.AppendEvent(scanID, event)
	}
}

func (o *Orchestrator) cleanup(scanID string) {
	if v, ok := o.cancels.LoadAndDelete(scanID); ok {
		v.(context.CancelFunc)()
	}
}

func (o *Orchestrator) runScan(ctx context.Context, scanID string, req model.ScanRequest) {
	defer o.cleanup(scanID)
	start := time.Now()

	if err := o.reg.UpdateState(scanID, model.PhaseRunning, 0, "scan started"); err != nil {
		log.Error().Err(err).Str("scan", scanID).Msg("orchestrator: could not start scan")
		return
	}
	o.publish(scanID, model.EventScanStarted, nil)

	pageRefs, err := discovery.Discover(ctx, discovery.Input{
		Seed:             req.URL,
		MaxPages:         req.MaxPages,
		MaxDepth:         req.MaxDepth,
		Concurrency:      o.opts.DiscoveryConcurrency,
		FetchTimeout:     o.opts.DiscoveryFetchTimeout,
		PhaseTimeout:     o.opts.DiscoveryPhaseTimeout,
		DeniedExtensions: o.opts.DeniedExtensions,
	})
	if err != nil || len(pageRefs) == 0 {
		o.fail(scanID, "seed_unreachable")
		return
	}
	o.progress(scanID, 10, "discovery complete")

	enabledScanners := req.Scanners.Enabled()
	pages := o.scanPages(ctx, scanID, req, pageRefs, enabledScanners)

	if ctx.Err() != nil {
		o.cancelled(scanID, pages)
		return
	}

	o.publish(scanID, model.EventAggregationStarted, nil)
	o.progress(scanID, 90, "aggregating results")

	violations, metrics, recs := aggregate.Aggregate(pages, req)

	successByScanner, totalByScanner := tallyScanners(pages)
	totalSuccess := 0
	for _, c := range successByScanner {
		totalSuccess += c
	}

	result := &model.ScanResult{
		ScanID:                scanID,
		Request:               req,
		Pages:                 pages,
		Violations:            violations,
		Metrics:               metrics,
		Recommendations:       recs,
		StartedAt:             start,
		EndedAt:               time.Now(),
		SuccessCountByScanner: successByScanner,
		TotalCountByScanner:   totalByScanner,
	}

	if totalSuccess == 0 {
		_ = o.reg.SetResult(scanID, result)
		o.fail(scanID, "scanner_unavailable")
		return
	}

	_ = o.reg.SetResult(scanID, result)
	if o.artifacts != nil {
		o.artifacts.WriteSummary(scanID, result)
	}
	if err := o.reg.UpdateState(scanID, model.PhaseCompleted, 100, "scan completed"); err != nil {
		log.Error().Err(err).Str("scan", scanID).Msg("orchestrator: could not finalize scan")
		return
	}
	o.publish(scanID, model.EventScanCompleted, model.ScanCompletedPayload{Metrics: metrics})
	o.bus.Close(scanID)
	o.archive(scanID)
}

// scanPages implements §4.5 steps 4-6: pages run sequentially by default
// (PerScanPageConcurrency=1); within a page, enabled scanners fan out in
// parallel bounded by their count.
func (o *Orchestrator) scanPages(ctx context.Context, scanID string, req model.ScanRequest, pageRefs []model.PageRef, enabled []model.ScannerKind) []model.PageResult {
	totalUnits := len(pageRefs) * len(enabled)
	if totalUnits == 0 {
		totalUnits = 1
	}
	var completedUnits int
	var progressMu sync.Mutex

	pagePool := pool.New().WithContext(ctx).WithMaxGoroutines(o.opts.PerScanPageConcurrency)
	var pagesMu sync.Mutex
	pages := make([]model.PageResult, 0, len(pageRefs))

	for i, pageRef := range pageRefs {
		index, page := i, pageRef
		pagePool.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			o.publish(scanID, model.EventPageStarted, model.PageStartedPayload{
				URL: page.URL, Index: index, Total: len(pageRefs),
			})

			pr := o.scanOnePage(ctx, scanID, req, page, enabled, &completedUnits, &progressMu, totalUnits)

			pagesMu.Lock()
			pages = append(pages, *pr)
			pagesMu.Unlock()
			return nil
		})
	}
	o.waitOrAbandon(ctx, scanID, pagePool.Wait)

	pagesMu.Lock()
	defer pagesMu.Unlock()
	snapshot := make([]model.PageResult, len(pages))
	copy(snapshot, pages)
	return snapshot
}

// waitOrAbandon blocks on wait (a pool's Wait method) until it returns, but
// gives up at most CancelGracePeriod after ctx is cancelled: a straggling
// Adapter that ignores ctx leaks only its own goroutine/child process, it no
// longer holds up the scan. Returns immediately if ctx was never cancelled.
func (o *Orchestrator) waitOrAbandon(ctx context.Context, scanID string, wait func() error) {
	done := make(chan struct{})
	go func() {
		_ = wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
	}

	select {
	case <-done:
	case <-time.After(o.opts.CancelGracePeriod):
		log.Warn().Str("scan", scanID).Dur("grace_period", o.opts.CancelGracePeriod).
			Msg("orchestrator: abandoning straggling adapters after cancel grace period")
	}
}

func (o *Orchestrator) scanOnePage(ctx context.Context, scanID string, req model.ScanRequest, page model.PageRef, enabled []model.ScannerKind, completedUnits *int, progressMu *sync.Mutex, totalUnits int) *model.PageResult {
	pr := model.NewPageResult(page)
	if len(enabled) == 0 {
		return pr
	}

	var mu sync.Mutex
	scannerPool := pool.New().WithContext(ctx).WithMaxGoroutines(len(enabled))

	for _, k := range enabled {
		kind := k
		scannerPool.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				mu.Lock()
				pr.ScannerStatus[kind] = model.StatusSkipped
				mu.Unlock()
				return nil
			default:
			}

			o.publish(scanID, model.EventScannerStarted, model.ScannerStartedPayload{Page: page.URL, Scanner: kind})

			cfg := o.adapterConfig(req, kind)
			started := time.Now()
			raw := adapter.For(kind).Scan(ctx, page, cfg)
			elapsed := time.Since(started).Milliseconds()

			if o.artifacts != nil {
				o.artifacts.WriteRaw(scanID, page, kind, raw)
			}

			mu.Lock()
			pr.ElapsedMsByScanner[kind] = elapsed
			if raw.Success {
				violations := normalize.Normalize(kind, raw, page)
				pr.ScannerStatus[kind] = model.StatusOK
				pr.Violations = append(pr.Violations, violations...)
				mu.Unlock()
				o.publish(scanID, model.EventScannerCompleted, model.ScannerCompletedPayload{
					Page: page.URL, Scanner: kind, Violations: len(violations), ElapsedMs: elapsed,
				})
			} else {
				status := model.StatusFailed
				if raw.Failure.Kind == model.FailureTimeout {
					status = model.StatusTimeout
				}
				pr.ScannerStatus[kind] = status
				mu.Unlock()
				o.publish(scanID, model.EventScannerFailed, model.ScannerFailedPayload{
					Page: page.URL, Scanner: kind, Reason: string(raw.Failure.Kind), Critical: false,
				})
			}

			progressMu.Lock()
			*completedUnits++
			pct := 10 + int(80*float64(*completedUnits)/float64(totalUnits))
			progressMu.Unlock()
			o.progress(scanID, pct, "scanning")
			return nil
		})
	}
	_ = scannerPool.Wait()
	return pr
}

func (o *Orchestrator) adapterConfig(req model.ScanRequest, kind model.ScannerKind) adapter.Config {
	return adapter.Config{
		TimeoutMs:        req.TimeoutMs,
		Mode:             req.Mode,
		MaxRetries:       o.opts.AdapterMaxRetries,
		RetryBase:        o.opts.AdapterRetryBase,
		RetryCap:         o.opts.AdapterRetryCap,
		OutputDir:        o.opts.AdapterOutputDir,
		WaveAPIKey:       o.opts.WaveAPIKey,
		WaveBaseURL:      o.opts.WaveBaseURL,
		Pa11yBinary:      o.opts.Pa11yBinary,
		AxeBinary:        o.opts.AxeBinary,
		LighthouseBinary: o.opts.LighthouseBinary,
	}
}

func (o *Orchestrator) progress(scanID string, pct int, message string) {
	if err := o.reg.UpdateState(scanID, model.PhaseRunning, pct, message); err != nil {
		log.Debug().Err(err).Str("scan", scanID).Msg("orchestrator: progress update rejected")
	}
}

func (o *Orchestrator) fail(scanID, reason string) {
	state, err := o.reg.Get(scanID)
	if err == nil && state.Phase == model.PhaseCancelled {
		return
	}
	_ = o.reg.SetFailureReason(scanID, reason)
	_ = o.reg.UpdateState(scanID, model.PhaseFailed, 100, reason)
	o.publish(scanID, model.EventScanFailed, model.ScanFailedPayload{Reason: reason})
	o.bus.Close(scanID)
	o.archive(scanID)
}

func (o *Orchestrator) cancelled(scanID string, partial []model.PageResult) {
	state, err := o.reg.Get(scanID)
	if err == nil && state.Phase != model.PhaseCancelled {
		_ = o.reg.UpdateState(scanID, model.PhaseCancelled, 100, "cancelled")
	}
	o.publish(scanID, model.EventScanCancelled, model.ScanCancelledPayload{Partial: partial})
	o.bus.Close(scanID)
	o.archive(scanID)
}

func tallyScanners(pages []model.PageResult) (success map[model.ScannerKind]int, total map[model.ScannerKind]int) {
	success = make(map[model.ScannerKind]int)
	total = make(map[model.ScannerKind]int)
	for _, p := range pages {
		for kind, status := range p.ScannerStatus {
			total[kind]++
			if status == model.StatusOK {
				success[kind]++
			}
		}
	}
	return success, total
}
