package app

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"cardgrid/internal/config"
	"cardgrid/internal/domain"
	mcpserver "cardgrid/internal/mcp"
	"cardgrid/internal/service"
	"cardgrid/internal/storage"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     config.Config
	cfgPath string
	log     *log.Logger

	db        *storage.DB
	settings  *storage.SettingsStore
	dashboard *service.Dashboard
	mcp       *mcpserver.Server

	// Grid spec of the last loaded config file. Only the watcher goroutine
	// touches it after start.
	configSpec domain.GridSpec
}

// New creates a new App. cfgPath is watched for changes; empty disables it.
func New(cfg config.Config, cfgPath string, l *log.Logger) *App {
	if l == nil {
		l = log.Default()
	}
	return &App{cfg: cfg, cfgPath: cfgPath, log: l}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	if err := a.start(ctx, wailsEmitter{}); err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to start dashboard: %v", err)
		return
	}
	size := a.settings.LoadWindowSize()
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.settings != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		if err := a.settings.SaveWindowSize(w, h); err != nil {
			a.log.Warn("save window size", "err", err)
		}
	}
	a.stop(ctx)
}

func (a *App) start(ctx context.Context, emitter service.EventEmitter) error {
	ctx, cancel := context.WithCancel(ctx)
	a.ctx, a.cancel = ctx, cancel

	db, settings, d, err := openDashboard(ctx, a.cfg, emitter, a.log)
	if err != nil {
		cancel()
		return err
	}
	a.db, a.settings, a.dashboard = db, settings, d
	a.configSpec, _ = a.cfg.GridSpec()

	a.mcp = mcpserver.New(ctx, mcpserver.Deps{
		Dashboard: d,
		Emitter:   emitter,
		Logger:    a.log.WithPrefix("mcp"),
	})
	if addr := a.cfg.MCP.Addr; addr != "" {
		go func() {
			if err := a.mcp.ServeHTTP(ctx, addr); err != nil {
				a.log.Error("mcp http server stopped", "addr", addr, "err", err)
			}
		}()
	}

	if a.cfgPath != "" {
		if err := config.Watch(ctx, a.cfgPath, a.log.WithPrefix("config"), a.onConfigChanged); err != nil {
			a.log.Warn("config hot reload disabled", "err", err)
		}
	}
	a.log.Info("dashboard started", "db", db.Path())
	return nil
}

func (a *App) stop(ctx context.Context) {
	if a.dashboard != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		a.dashboard.Shutdown(shutdownCtx)
		cancel()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// onConfigChanged applies a reloaded config file. The grid spec is only
// re-applied when the file's grid section changed, so a spec set from the
// UI survives unrelated edits.
func (a *App) onConfigChanged(cfg config.Config) {
	a.log.SetLevel(cfg.LogLevel())

	spec, err := cfg.GridSpec()
	if err != nil {
		a.log.Warn("reloaded grid config rejected", "err", err)
		return
	}
	if spec == a.configSpec {
		return
	}
	a.configSpec = spec
	if err := a.dashboard.ApplySpec(a.ctx, spec); err != nil {
		a.log.Warn("apply reloaded grid spec", "err", err)
	}
}

// ============================================================
// MCP approvals
// ============================================================

// ApproveMCPAction lets a pending destructive MCP tool call run.
func (a *App) ApproveMCPAction(actionID string) {
	a.mcp.Approve(actionID)
}

// RejectMCPAction refuses a pending destructive MCP tool call.
func (a *App) RejectMCPAction(actionID string) {
	a.mcp.Reject(actionID)
}
