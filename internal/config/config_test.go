package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2000, cfg.ETL.BatchSize)
	assert.Equal(t, 1, cfg.ETL.Workers)

	assert.Equal(t, 40.0, cfg.Validation.MinLat)
	assert.Equal(t, 42.0, cfg.Validation.MaxLat)
	assert.Equal(t, -75.0, cfg.Validation.MinLng)
	assert.Equal(t, -72.0, cfg.Validation.MaxLng)
	assert.Equal(t, 1440.0, cfg.Validation.MaxDurationMin)
	assert.Equal(t, 200.0, cfg.Validation.MaxDistanceKm)
	assert.Equal(t, 120.0, cfg.Validation.MaxSpeedKmh)
	assert.Equal(t, 8, cfg.Validation.MaxPassengers)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("MOBILITY_STORE_DRIVER", "sqlite")
	t.Setenv("MOBILITY_ETL_BATCH_SIZE", "500")
	t.Setenv("MOBILITY_VALIDATION_MAX_SPEED_KMH", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 500, cfg.ETL.BatchSize)
	assert.Equal(t, 90.0, cfg.Validation.MaxSpeedKmh)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
store:
  driver: sqlite
  database_url: trips.db
etl:
  batch_size: 100
  workers: 4
log:
  level: debug
  format: console
`), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "trips.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 100, cfg.ETL.BatchSize)
	assert.Equal(t, 4, cfg.ETL.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Values absent from the file keep their defaults.
	assert.Equal(t, 120.0, cfg.Validation.MaxSpeedKmh)
}

func TestLoadMalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [not a map"), 0o644))
	chdir(t, dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "shout", Format: "json"}))
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) }) //nolint:errcheck
}
