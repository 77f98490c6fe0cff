package main

import (
	"embed"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	"cardgrid/internal/app"
	"cardgrid/internal/cli"
	"cardgrid/internal/storage"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	c := cli.New(os.Stderr, runGUI)
	if err := c.RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func runGUI(a *app.App) error {
	// macOS needs an Edit menu for Cmd+C/V/X/A to reach the WebView
	appMenu := menu.NewMenu()
	appMenu.Append(menu.EditMenu())

	return wails.Run(&options.App{
		Title:     "Card Grid",
		Width:     storage.DefaultWindowWidth,
		Height:    storage.DefaultWindowHeight,
		MinWidth:  640,
		MinHeight: 480,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 15, G: 15, B: 20, A: 1},
		Menu:             appMenu,
		OnStartup:        a.Startup,
		OnShutdown:       a.Shutdown,
		Bind: []interface{}{
			a,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				FullSizeContent:            true,
			},
			About: &mac.AboutInfo{
				Title:   "Card Grid",
				Message: "Card grid dashboard",
			},
		},
	})
}
