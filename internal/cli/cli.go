// Package cli implements the cardgrid command line: the desktop dashboard,
// a standalone MCP server and a few config helpers.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"cardgrid/internal/app"
	"cardgrid/internal/config"
	"cardgrid/internal/grid"
)

// GUIRunner opens the desktop window for a. It lives in main because it
// needs the embedded frontend assets.
type GUIRunner func(a *app.App) error

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	Config     config.Config
	ConfigPath string

	runGUI  GUIRunner
	verbose bool
}

// New creates a CLI logging to w.
func New(w io.Writer, runGUI GUIRunner) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           log.InfoLevel,
		}),
		runGUI: runGUI,
	}
}

// RootCommand creates the root command. Without a subcommand it opens the GUI.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "cardgrid",
		Short:        "A card grid dashboard",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.gui()
		},
	}
	root.PersistentFlags().StringVarP(&c.ConfigPath, "config", "c", config.DefaultPath(), "config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(c.guiCommand())
	root.AddCommand(c.mcpCommand())
	root.AddCommand(c.specCommand())
	root.AddCommand(c.configCommand())
	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.SetLevel(cfg.LogLevel())
	if c.verbose {
		c.Logger.SetLevel(log.DebugLevel)
	}
	return nil
}

func (c *CLI) gui() error {
	if c.runGUI == nil {
		return errors.New("this build has no GUI")
	}
	return c.runGUI(app.New(c.Config, c.ConfigPath, c.Logger))
}

func (c *CLI) guiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the dashboard window (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.gui()
		},
	}
}

func (c *CLI) mcpCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the dashboard to MCP clients without a window",
		Long: `Serve the dashboard to MCP clients without a window.

By default the server talks MCP over stdin/stdout. With --http it serves the
streamable HTTP transport instead. Destructive tools run without approval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.MCP.Addr
			}
			return app.ServeMCP(c.Config, addr, c.Logger)
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address, e.g. 127.0.0.1:7071")
	return cmd
}

// specView is what the spec command prints.
type specView struct {
	Columns         int     `json:"columns"`
	Rows            int     `json:"rows"`
	CellSize        float64 `json:"cellSize"`
	Gap             float64 `json:"gap"`
	ContainerWidth  float64 `json:"containerWidth"`
	ContainerHeight float64 `json:"containerHeight"`
}

func (c *CLI) specCommand() *cobra.Command {
	var fitW, fitH float64
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Print the configured grid and its container size",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := c.Config.GridSpec()
			if err != nil {
				return err
			}
			if fitW > 0 || fitH > 0 {
				if fitW <= 0 {
					fitW = spec.ContainerWidth()
				}
				if fitH <= 0 {
					fitH = spec.ContainerHeight()
				}
				if spec, err = grid.FitSpec(spec, fitW, fitH); err != nil {
					return err
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(specView{
				Columns:         spec.Columns,
				Rows:            spec.Rows,
				CellSize:        spec.CellSize,
				Gap:             spec.Gap,
				ContainerWidth:  spec.ContainerWidth(),
				ContainerHeight: spec.ContainerHeight(),
			})
		},
	}
	cmd.Flags().Float64Var(&fitW, "fit-width", 0, "fit columns to this viewport width")
	cmd.Flags().Float64Var(&fitH, "fit-height", 0, "fit rows to this viewport height")
	return cmd
}

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.ConfigPath)
			return nil
		},
	})
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(c.ConfigPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", c.ConfigPath)
			}
			if err := config.Defaults().Save(c.ConfigPath); err != nil {
				return err
			}
			c.Logger.Info("config written", "path", c.ConfigPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
