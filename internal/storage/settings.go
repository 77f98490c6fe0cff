package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"cardgrid/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// App settings
// ─────────────────────────────────────────────────────────────
//
// Simple key-value rows in app_settings: the window size and the last grid
// spec applied, restored on the next start.

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	settingGridSpec     = "grid_spec"

	DefaultWindowWidth  = 1504
	DefaultWindowHeight = 828
	minWindowWidth      = 640
	minWindowHeight     = 480
)

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SettingsStore persists app-level settings.
type SettingsStore struct {
	db *DB
}

func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value of key and whether it was set.
func (s *SettingsStore) Get(key string) (string, bool, error) {
	var v string
	err := s.db.Conn().QueryRow(`SELECT value FROM app_settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key.
func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// LoadWindowSize returns the saved window dimensions, or the defaults.
func (s *SettingsStore) LoadWindowSize() WindowSize {
	size := WindowSize{Width: DefaultWindowWidth, Height: DefaultWindowHeight}
	if v, ok, _ := s.Get(settingWindowWidth); ok {
		if w, err := strconv.Atoi(v); err == nil && w >= minWindowWidth {
			size.Width = w
		}
	}
	if v, ok, _ := s.Get(settingWindowHeight); ok {
		if h, err := strconv.Atoi(v); err == nil && h >= minWindowHeight {
			size.Height = h
		}
	}
	return size
}

// SaveWindowSize persists the window dimensions.
func (s *SettingsStore) SaveWindowSize(width, height int) error {
	if err := s.Set(settingWindowWidth, strconv.Itoa(width)); err != nil {
		return err
	}
	return s.Set(settingWindowHeight, strconv.Itoa(height))
}

// LoadGridSpec returns the last saved grid spec. ok is false when none was
// saved or the stored value is no longer valid.
func (s *SettingsStore) LoadGridSpec() (spec domain.GridSpec, ok bool, err error) {
	v, found, err := s.Get(settingGridSpec)
	if err != nil || !found {
		return domain.GridSpec{}, false, err
	}
	if err := json.Unmarshal([]byte(v), &spec); err != nil {
		return domain.GridSpec{}, false, nil
	}
	return spec, true, nil
}

// SaveGridSpec stores spec.
func (s *SettingsStore) SaveGridSpec(spec domain.GridSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal grid spec: %w", err)
	}
	return s.Set(settingGridSpec, string(data))
}
