// Package config loads the dashboard configuration from a YAML file in the
// user's config directory. Environment variables override file values at
// runtime and are never written back.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"cardgrid/internal/domain"
)

// GridConfig is the YAML form of domain.GridSpec.
type GridConfig struct {
	Columns           int     `yaml:"columns"`
	Rows              int     `yaml:"rows"`
	CellSize          float64 `yaml:"cell_size"`
	Gap               float64 `yaml:"gap"`
	PaddingVertical   float64 `yaml:"padding_vertical"`
	PaddingHorizontal float64 `yaml:"padding_horizontal"`
	// FitWindow recomputes columns and rows from the window size.
	FitWindow bool `yaml:"fit_window"`
}

type LayoutConfig struct {
	CoalesceMs       int     `yaml:"coalesce_ms"`
	WindowDebounceMs int     `yaml:"window_debounce_ms"`
	MinCardWidth     float64 `yaml:"min_card_width"`
	MinCardHeight    float64 `yaml:"min_card_height"`
	// LeftHandleMinSpan is the column span above which cards get a
	// bottom-left resize handle.
	LeftHandleMinSpan int `yaml:"left_handle_min_span"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type RefreshConfig struct {
	// Default is the cron spec used for cards without their own schedule.
	// Empty disables periodic refresh.
	Default string `yaml:"default"`
}

type MCPConfig struct {
	// Addr enables the HTTP transport when set, e.g. "127.0.0.1:7071".
	Addr string `yaml:"addr"`
}

// Config is the whole configuration file.
type Config struct {
	ConfigVersion int           `yaml:"config_version"`
	Grid          GridConfig    `yaml:"grid"`
	Layout        LayoutConfig  `yaml:"layout"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
	Refresh       RefreshConfig `yaml:"refresh"`
	MCP           MCPConfig     `yaml:"mcp"`
}

// Env var names used as overrides.
const (
	EnvDataDir        = "CARDGRID_DATA_DIR"
	EnvLogLevel       = "CARDGRID_LOG_LEVEL"
	EnvColumns        = "CARDGRID_COLUMNS"
	EnvRows           = "CARDGRID_ROWS"
	EnvCoalesceMs     = "CARDGRID_COALESCE_MS"
	EnvWindowDebounce = "CARDGRID_WINDOW_DEBOUNCE_MS"
	EnvRefresh        = "CARDGRID_REFRESH"
	EnvMCPAddr        = "CARDGRID_MCP_ADDR"
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	spec := domain.DefaultGridSpec()
	return Config{
		ConfigVersion: 1,
		Grid: GridConfig{
			Columns:           spec.Columns,
			Rows:              spec.Rows,
			CellSize:          spec.CellSize,
			Gap:               spec.Gap,
			PaddingVertical:   spec.PaddingVertical,
			PaddingHorizontal: spec.PaddingHorizontal,
		},
		Layout: LayoutConfig{
			CoalesceMs:        16,
			WindowDebounceMs:  150,
			MinCardWidth:      domain.MinCardWidth,
			MinCardHeight:     domain.MinCardHeight,
			LeftHandleMinSpan: 1,
		},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Logging: LoggingConfig{Level: "info"},
		Refresh: RefreshConfig{Default: ""},
	}
}

// DefaultPath returns ~/.config/cardgrid/config.yaml (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(dir, "cardgrid", "config.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cardgrid"
	}
	return filepath.Join(home, ".cardgrid")
}

// Load reads path on top of the defaults and applies env overrides. A
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes c to path, creating the directory if needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvRefresh); v != "" {
		c.Refresh.Default = v
	}
	if v := os.Getenv(EnvMCPAddr); v != "" {
		c.MCP.Addr = v
	}
	envInt(EnvColumns, &c.Grid.Columns)
	envInt(EnvRows, &c.Grid.Rows)
	envInt(EnvCoalesceMs, &c.Layout.CoalesceMs)
	envInt(EnvWindowDebounce, &c.Layout.WindowDebounceMs)
}

func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn("ignoring env override", "var", name, "value", v, "err", err)
		return
	}
	*dst = n
}

// Validate checks the values the rest of the program depends on.
func (c Config) Validate() error {
	if _, err := c.GridSpec(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if c.Layout.CoalesceMs < 0 || c.Layout.WindowDebounceMs < 0 {
		return fmt.Errorf("layout: delays must not be negative")
	}
	if c.Layout.MinCardWidth <= 0 || c.Layout.MinCardHeight <= 0 {
		return fmt.Errorf("layout: minimum card size must be positive")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// GridSpec converts the grid section into a validated spec.
func (c Config) GridSpec() (domain.GridSpec, error) {
	g := c.Grid
	return domain.NewGridSpec(g.Columns, g.Rows, g.CellSize, g.Gap, g.PaddingVertical, g.PaddingHorizontal)
}

// Coalesce returns the layout coalescing window.
func (c Config) Coalesce() time.Duration {
	return time.Duration(c.Layout.CoalesceMs) * time.Millisecond
}

// WindowDebounce returns the window-resize debounce delay.
func (c Config) WindowDebounce() time.Duration {
	return time.Duration(c.Layout.WindowDebounceMs) * time.Millisecond
}

// LogLevel returns the configured level, defaulting to info.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// DatabasePath is the SQLite file inside the data directory.
func (c Config) DatabasePath() string {
	return filepath.Join(c.Storage.DataDir, "cardgrid.db")
}
