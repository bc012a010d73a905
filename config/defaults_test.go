package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, SimulationConfig{}, cfg.Simulation)
	assert.NotEqual(t, StoreConfig{}, cfg.Store)
	assert.NotEqual(t, MetricsConfig{}, cfg.Metrics)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
	assert.NotEmpty(t, cfg.Log.Level)
	assert.Empty(t, cfg.Content.Path, "empty path selects the built-in pack")

	require.NoError(t, cfg.Validate())
}

// --- Individual Default*Config functions ---

func TestDefaultSimulationConfig(t *testing.T) {
	cfg := DefaultSimulationConfig()
	assert.Equal(t, "person0", cfg.Initiator)
	assert.InDelta(t, 0.5, cfg.LullContinueChance, 0.001)
	assert.Equal(t, 100, cfg.MaxSteps)
	assert.Equal(t, 1, cfg.Conversations)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Zero(t, cfg.RatePerSecond)
	assert.Zero(t, cfg.Seed)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestDefaultStoreConfig(t *testing.T) {
	cfg := DefaultStoreConfig()
	assert.Equal(t, "memory", cfg.Driver)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "convosim:", cfg.KeyPrefix)
	assert.Zero(t, cfg.TTL)
	assert.Equal(t, 10, cfg.MaxOpenConns)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
}

func TestDefaultMetricsAndTelemetryConfig(t *testing.T) {
	m := DefaultMetricsConfig()
	assert.False(t, m.Enabled)
	assert.Equal(t, "convosim", m.Namespace)
	assert.Equal(t, ":9091", m.Addr)

	tel := DefaultTelemetryConfig()
	assert.False(t, tel.Enabled)
	assert.Equal(t, "convosim", tel.ServiceName)
	assert.InDelta(t, 0.1, tel.SampleRate, 0.001)
}
