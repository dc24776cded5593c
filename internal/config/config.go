// Package config loads process configuration from /etc/a11yscan/config.yaml
// (or ./config.yaml), environment variables, and defaults, via viper.
package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/a11yscan/")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("A11YSCAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warn().Msg("config file not found, using defaults")
		} else {
			log.Panic().Err(err).Msg("fatal error reading config file")
		}
	}
	SetDefaultConfig()
}

func SetDefaultConfig() {
	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.console.format", "pretty")
	viper.SetDefault("logging.file.enabled", false)
	viper.SetDefault("logging.file.path", "a11yscan.log")

	// Registry / admission (C7)
	viper.SetDefault("registry.max_concurrent_scans", 10)
	viper.SetDefault("registry.retention", "1h")
	viper.SetDefault("registry.sweep_interval", "5m")

	// Event bus (C6)
	viper.SetDefault("eventbus.history_size", 500)
	viper.SetDefault("eventbus.subscriber_queue_bound", 100)
	viper.SetDefault("eventbus.grace_window", "30m")

	// Orchestrator / concurrency (C5, §5)
	viper.SetDefault("scan.per_scan_page_concurrency", 1)
	viper.SetDefault("scan.cancel_grace_period", "5s")

	// Discovery (C4)
	viper.SetDefault("discovery.concurrency", 5)
	viper.SetDefault("discovery.fetch_timeout", "10s")
	viper.SetDefault("discovery.phase_timeout", "60s")
	viper.SetDefault("discovery.denied_extensions", []string{
		".pdf", ".jpg", ".jpeg", ".png", ".gif", ".zip", ".exe", ".dmg",
		".mp4", ".mp3", ".avi", ".mov", ".doc", ".docx", ".xls", ".xlsx",
		".ppt", ".pptx", ".rar", ".7z", ".tar.gz", ".iso", ".svg", ".css",
		".js", ".woff", ".woff2", ".ttf",
	})

	// Adapters (C1)
	viper.SetDefault("adapters.wave.api_key", "")
	viper.SetDefault("adapters.wave.base_url", "https://wave.webaim.org/api/request")
	viper.SetDefault("adapters.pa11y.binary", "pa11y")
	viper.SetDefault("adapters.axe.binary", "axe")
	viper.SetDefault("adapters.lighthouse.binary", "lighthouse")
	viper.SetDefault("adapters.max_retries", 2)
	viper.SetDefault("adapters.retry_base_delay", "1s")
	viper.SetDefault("adapters.retry_max_delay", "10s")
	viper.SetDefault("adapters.default_timeout_ms", 30000)
	viper.SetDefault("adapters.output_dir", "./scans")

	// Supplemental persistence (internal/store)
	viper.SetDefault("store.enabled", false)
	viper.SetDefault("store.type", "sqlite")
	viper.SetDefault("store.dsn", "a11yscan.db")
}
