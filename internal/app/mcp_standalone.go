package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"cardgrid/internal/config"
	mcpserver "cardgrid/internal/mcp"
	"cardgrid/internal/service"
)

// ServeMCP runs the dashboard as a standalone MCP server with no GUI. With
// addr set it serves streamable HTTP, otherwise stdin/stdout. Destructive
// tools run without approval since nobody is there to answer.
func ServeMCP(cfg config.Config, addr string, l *log.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	emitter := service.NopEmitter{}
	db, _, d, err := openDashboard(ctx, cfg, emitter, l)
	if err != nil {
		return err
	}
	defer db.Close()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		d.Shutdown(shutdownCtx)
	}()

	srv := mcpserver.New(ctx, mcpserver.Deps{
		Dashboard:   d,
		Emitter:     emitter,
		Logger:      l.WithPrefix("mcp"),
		AutoApprove: true,
	})
	if addr != "" {
		return srv.ServeHTTP(ctx, addr)
	}
	return srv.ServeStdio()
}
