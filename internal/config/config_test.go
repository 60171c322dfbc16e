package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "aerodrome.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.Minute, cfg.SnapshotInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 50.0, cfg.Billing.HighTierFee)
	assert.Equal(t, 20.0, cfg.Billing.LowTierFee)
	assert.False(t, cfg.Fuel.EnforceMaxQuantity)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aerodrome.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /var/lib/aerodrome/data.db
snapshot_interval: 30s
log:
  level: debug
  format: json
billing:
  high_tier_fee: 65
fuel:
  enforce_max_quantity: true
`), 0o600))

	t.Setenv(EnvConfigPath, path)
	t.Setenv("AERODROME_BILLING_LOW_TIER_FEE", "25.5")
	t.Setenv("AERODROME_HTTP_ADDR", "127.0.0.1:9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/aerodrome/data.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.SnapshotInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 65.0, cfg.Billing.HighTierFee)
	assert.Equal(t, 25.5, cfg.Billing.LowTierFee)
	assert.True(t, cfg.Fuel.EnforceMaxQuantity)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTPAddr)
}

func TestLoad_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unterminated"), 0o600))
	t.Setenv(EnvConfigPath, path)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBPath:           "a.db",
			HTTPAddr:         ":8080",
			SnapshotInterval: time.Minute,
			Log:              LogConfig{Level: "info", Format: "text"},
			Billing:          BillingConfig{HighTierFee: 50, LowTierFee: 20},
			RateLimit:        RateLimitConfig{RequestsPerSecond: 1, Burst: 1},
		}
	}
	require.NoError(t, validate(valid()))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"empty http addr", func(c *Config) { c.HTTPAddr = "" }},
		{"zero snapshot interval", func(c *Config) { c.SnapshotInterval = 0 }},
		{"negative fee", func(c *Config) { c.Billing.LowTierFee = -1 }},
		{"zero rate", func(c *Config) { c.RateLimit.RequestsPerSecond = 0 }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, validate(cfg))
		})
	}
}
