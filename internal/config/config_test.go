package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestSetDefaultConfigPopulatesExpectedKeys(t *testing.T) {
	viper.Reset()
	SetDefaultConfig()

	assert.Equal(t, "info", viper.GetString("logging.level"))
	assert.Equal(t, 10, viper.GetInt("registry.max_concurrent_scans"))
	assert.Equal(t, 500, viper.GetInt("eventbus.history_size"))
	assert.Equal(t, 1, viper.GetInt("scan.per_scan_page_concurrency"))
	assert.Equal(t, 5, viper.GetInt("discovery.concurrency"))
	assert.Equal(t, 2, viper.GetInt("adapters.max_retries"))
	assert.False(t, viper.GetBool("store.enabled"))
	assert.Equal(t, "sqlite", viper.GetString("store.type"))
}

func TestSetDefaultConfigDeniedExtensionsIncludesCommonBinaryFormats(t *testing.T) {
	viper.Reset()
	SetDefaultConfig()

	denied := viper.GetStringSlice("discovery.denied_extensions")
	assert.Contains(t, denied, ".pdf")
	assert.Contains(t, denied, ".zip")
	assert.Contains(t, denied, ".svg")
}

func TestSetDefaultConfigDurationsParseable(t *testing.T) {
	viper.Reset()
	SetDefaultConfig()

	assert.Equal(t, "1h", viper.GetString("registry.retention"))
	assert.Greater(t, viper.GetDuration("registry.retention").Seconds(), float64(0))
	assert.Greater(t, viper.GetDuration("discovery.fetch_timeout").Seconds(), float64(0))
	assert.Greater(t, viper.GetDuration("eventbus.grace_window").Minutes(), float64(0))
}
