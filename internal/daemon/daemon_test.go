package daemon

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"aerodrome/internal/config"
	"aerodrome/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	datasets := filepath.Join("..", "database", "datasets")
	return &config.Config{
		DBPath:           filepath.Join(t.TempDir(), "daemon.db"),
		HTTPAddr:         "127.0.0.1:0",
		SnapshotInterval: time.Minute,
		Log:              config.LogConfig{Level: "info", Format: "text"},
		Billing:          config.BillingConfig{HighTierFee: 50, LowTierFee: 20},
		RateLimit:        config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		Seed: config.SeedConfig{
			FuelTypes:    filepath.Join(datasets, "fuel_types.csv"),
			ParkingSlots: filepath.Join(datasets, "parking_slots.csv"),
			Hangars:      filepath.Join(datasets, "hangars.csv"),
		},
	}
}

func TestDaemon_StartServeStop(t *testing.T) {
	d, err := New(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, d.Start())

	base := "http://" + d.Addr()
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(base + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(base + "/parking-slots")
	require.NoError(t, err)
	var slots []models.ParkingSlot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&slots))
	resp.Body.Close()
	assert.Len(t, slots, 30)

	resp, err = client.Get(base + "/fuel-types")
	require.NoError(t, err)
	var fuels []models.FuelType
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fuels))
	resp.Body.Close()
	assert.Len(t, fuels, 2)

	assert.Eventually(t, func() bool {
		return d.scheduler.Stats("occupancy_snapshot").Runs >= 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, d.Stop())

	_, open := <-d.Err()
	assert.False(t, open, "error channel closes after a clean shutdown")
}

func TestDaemon_SeedIsIdempotent(t *testing.T) {
	cfg := testConfig(t)

	d, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, d.Start())
	require.NoError(t, d.Stop())

	d, err = New(cfg)
	require.NoError(t, err)
	slots, err := d.database.Catalog().ListParkingSlots(d.ctx)
	require.NoError(t, err)
	assert.Len(t, slots, 30)
	require.NoError(t, d.database.Close())
}

func TestDaemon_MissingDataset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Seed.Hangars = filepath.Join(t.TempDir(), "missing.csv")

	_, err := New(cfg)
	assert.Error(t, err)
}
