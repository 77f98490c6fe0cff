package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_dashboard",
		mcp.WithPromptDescription("Guide through filling the grid with a set of cards about a topic"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic or title for the dashboard"),
			mcp.RequiredArgument(),
		),
	), s.handleBuildDashboardPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_layout",
		mcp.WithPromptDescription("Snap free-form cards back to presets and close gaps"),
	), s.handleTidyLayoutPrompt)
}

func (s *Server) handleBuildDashboardPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a dashboard for: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a dashboard about "%s". Follow these steps:

1. Call get_grid_spec to see how many columns and rows are available
2. Use add_card with source "markdown" and sizeClass "extra-wide" for a heading: "# %s"
3. Add two or three "metric" cards (sizeClass "normal") for the key numbers
4. Add a "markdown" card with sizeClass "tall" for notes
5. Call get_layout and check that no card is unplaced

Cards are placed in the first free region, so add the most important ones first.
If add_card reports that a placement is out of bounds, pick a smaller size class.`, topic, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyLayoutPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Tidy the dashboard layout",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Tidy the dashboard. Follow these steps:

1. Call list_cards and find cards with "manual": true or "placed": false
2. For each manual card, call set_size_class with the preset closest to its width and height
3. Call request_layout so unplaced cards get another chance at a free region
4. Call get_layout and report any card that is still unplaced`,
				},
			},
		},
	}, nil
}
