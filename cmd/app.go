package cmd

import (
	"sync"
	"time"

	"github.com/openaudit/a11yscan/internal/artifacts"
	"github.com/openaudit/a11yscan/internal/store"
	"github.com/openaudit/a11yscan/pkg/eventbus"
	"github.com/openaudit/a11yscan/pkg/orchestrator"
	"github.com/openaudit/a11yscan/pkg/registry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// app bundles the process-wide owned singletons the CLI drives, built
// lazily from viper config the first time a command needs them, so
// `a11yscan config dump` never has to touch a registry.
type app struct {
	registry     *registry.Registry
	bus          *eventbus.Bus
	artifacts    *artifacts.Store
	orchestrator *orchestrator.Orchestrator
}

var (
	appOnce sync.Once
	appInst *app
)

func getApp() *app {
	appOnce.Do(func() {
		reg := registry.New(
			viper.GetInt("registry.max_concurrent_scans"),
			viper.GetDuration("registry.retention"),
		)
		bus := eventbus.New(
			viper.GetInt("eventbus.history_size"),
			viper.GetInt("eventbus.subscriber_queue_bound"),
			viper.GetDuration("eventbus.grace_window"),
		)
		artifactStore := artifacts.New(viper.GetString("adapters.output_dir"))

		orch := orchestrator.New(reg, bus, artifactStore, orchestrator.Options{
			PerScanPageConcurrency: viper.GetInt("scan.per_scan_page_concurrency"),
			CancelGracePeriod:      viper.GetDuration("scan.cancel_grace_period"),

			DiscoveryConcurrency:  viper.GetInt("discovery.concurrency"),
			DiscoveryFetchTimeout: viper.GetDuration("discovery.fetch_timeout"),
			DiscoveryPhaseTimeout: viper.GetDuration("discovery.phase_timeout"),
			DeniedExtensions:      viper.GetStringSlice("discovery.denied_extensions"),

			AdapterMaxRetries: viper.GetInt("adapters.max_retries"),
			AdapterRetryBase:  viper.GetDuration("adapters.retry_base_delay"),
			AdapterRetryCap:   viper.GetDuration("adapters.retry_max_delay"),
			AdapterOutputDir:  viper.GetString("adapters.output_dir"),
			WaveAPIKey:        viper.GetString("adapters.wave.api_key"),
			WaveBaseURL:       viper.GetString("adapters.wave.base_url"),
			Pa11yBinary:       viper.GetString("adapters.pa11y.binary"),
			AxeBinary:         viper.GetString("adapters.axe.binary"),
			LighthouseBinary:  viper.GetString("adapters.lighthouse.binary"),
		})

		if viper.GetBool("store.enabled") {
			archive, err := store.Open(store.Config{
				Type: viper.GetString("store.type"),
				DSN:  viper.GetString("store.dsn"),
			})
			if err != nil {
				log.Error().Err(err).Msg("cmd: could not open scan archive, continuing without it")
			} else {
				orch.SetArchiver(archive)
			}
		}

		appInst = &app{registry: reg, bus: bus, artifacts: artifactStore, orchestrator: orch}

		go sweepLoop(reg, viper.GetDuration("registry.sweep_interval"))
	})
	return appInst
}

func sweepLoop(reg *registry.Registry, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		reg.Sweep()
	}
}
