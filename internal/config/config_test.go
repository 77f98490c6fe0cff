package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardgrid/internal/config"
	"cardgrid/internal/domain"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDefaults_Valid(t *testing.T) {
	cfg := config.Defaults()
	require.NoError(t, cfg.Validate())

	spec, err := cfg.GridSpec()
	require.NoError(t, err)
	assert.Equal(t, 1504.0, spec.ContainerWidth())
	assert.Equal(t, 788.0, spec.ContainerHeight())
	assert.Equal(t, 16*time.Millisecond, cfg.Coalesce())
	assert.Equal(t, 150*time.Millisecond, cfg.WindowDebounce())
	assert.Equal(t, log.InfoLevel, cfg.LogLevel())
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Defaults().Grid, cfg.Grid)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
grid:
  columns: 20
  rows: 10
layout:
  coalesce_ms: 40
logging:
  level: debug
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Grid.Columns)
	assert.Equal(t, 10, cfg.Grid.Rows)
	assert.Equal(t, 32.0, cfg.Grid.CellSize, "unset keys keep defaults")
	assert.Equal(t, 40*time.Millisecond, cfg.Coalesce())
	assert.Equal(t, log.DebugLevel, cfg.LogLevel())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(config.EnvColumns, "12")
	t.Setenv(config.EnvDataDir, "/tmp/cards")
	t.Setenv(config.EnvRows, "not-a-number")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Grid.Columns)
	assert.Equal(t, 19, cfg.Grid.Rows)
	assert.Equal(t, filepath.Join("/tmp/cards", "cardgrid.db"), cfg.DatabasePath())
}

func TestLoad_RejectsInvalidGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "grid:\n  cell_size: 0\n")

	_, err := config.Load(path)
	assert.ErrorIs(t, err, domain.ErrInvalidGridSpec)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "grid: [")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.Defaults()
	cfg.Grid.Columns = 24
	cfg.Refresh.Default = "@every 5m"
	require.NoError(t, cfg.Save(path))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "grid:\n  columns: 37\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan config.Config, 4)
	require.NoError(t, config.Watch(ctx, path, log.New(os.Stderr), func(c config.Config) { got <- c }))

	writeFile(t, filepath.Join(dir, "other.yaml"), "ignored: true\n")
	writeFile(t, path, "grid:\n  columns: 30\n")

	select {
	case c := <-got:
		assert.Equal(t, 30, c.Grid.Columns)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
