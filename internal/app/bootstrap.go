package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"cardgrid/internal/config"
	"cardgrid/internal/service"
	"cardgrid/internal/storage"
)

// dashboardOptions maps the configuration onto the dashboard's tuning knobs.
func dashboardOptions(cfg config.Config) (service.Options, error) {
	spec, err := cfg.GridSpec()
	if err != nil {
		return service.Options{}, err
	}
	return service.Options{
		Spec:              spec,
		MinCardWidth:      cfg.Layout.MinCardWidth,
		MinCardHeight:     cfg.Layout.MinCardHeight,
		Coalesce:          cfg.Coalesce(),
		WindowDebounce:    cfg.WindowDebounce(),
		LeftHandleMinSpan: cfg.Layout.LeftHandleMinSpan,
		FitWindow:         cfg.Grid.FitWindow,
		DefaultRefresh:    cfg.Refresh.Default,
	}, nil
}

// openDashboard opens the database and starts a dashboard over it. The
// caller shuts the dashboard down before closing the database.
func openDashboard(ctx context.Context, cfg config.Config, emitter service.EventEmitter, l *log.Logger) (*storage.DB, *storage.SettingsStore, *service.Dashboard, error) {
	opts, err := dashboardOptions(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := storage.New(cfg.DatabasePath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	settings := storage.NewSettingsStore(db)
	d := service.NewDashboard(service.Deps{
		Cards:    storage.NewCardStore(db),
		Settings: settings,
		Emitter:  emitter,
		Logger:   l.WithPrefix("dashboard"),
	}, opts)
	if err := d.Start(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("start dashboard: %w", err)
	}
	return db, settings, d, nil
}
