package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"cardgrid/internal/domain"
	"cardgrid/internal/menu"
)

func (s *Server) registerGridTools() {
	// ── get_grid_spec ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_grid_spec",
		mcp.WithDescription("Get the grid geometry: columns, rows, cell size, gap, padding and the derived container size"),
	), s.handleGetGridSpec)

	// ── apply_grid_spec ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("apply_grid_spec",
		mcp.WithDescription("Change the grid geometry. Omitted fields keep their current value. Cards that no longer fit are left unplaced."),
		mcp.WithNumber("columns", mcp.Description("Number of columns")),
		mcp.WithNumber("rows", mcp.Description("Number of rows")),
		mcp.WithNumber("cellSize", mcp.Description("Cell edge in pixels")),
		mcp.WithNumber("gap", mcp.Description("Gap between cells in pixels")),
		mcp.WithNumber("paddingVertical", mcp.Description("Container padding above and below")),
		mcp.WithNumber("paddingHorizontal", mcp.Description("Container padding left and right")),
	), s.handleApplyGridSpec)

	// ── get_layout ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_layout",
		mcp.WithDescription("Get the rendered dashboard: grid spec, card geometry, open menu and unplaced cards"),
		mcp.WithBoolean("includeMarkup", mcp.Description("Include each card's final markup (default false)")),
	), s.handleGetLayout)

	// ── request_layout ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("request_layout",
		mcp.WithDescription("Schedule a layout pass. Requests made while one is pending are dropped."),
	), s.handleRequestLayout)

	// ── list_sources ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List the content sources cards can be created with"),
	), s.handleListSources)
}

func (s *Server) handleGetGridSpec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec, err := s.dashboard.Spec(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(spec)
}

func (s *Server) handleApplyGridSpec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	spec, err := s.dashboard.Spec(ctx)
	if err != nil {
		return nil, err
	}
	if v, ok := number(args, "columns"); ok {
		spec.Columns = int(v)
	}
	if v, ok := number(args, "rows"); ok {
		spec.Rows = int(v)
	}
	if v, ok := number(args, "cellSize"); ok {
		spec.CellSize = v
	}
	if v, ok := number(args, "gap"); ok {
		spec.Gap = v
	}
	if v, ok := number(args, "paddingVertical"); ok {
		spec.PaddingVertical = v
	}
	if v, ok := number(args, "paddingHorizontal"); ok {
		spec.PaddingHorizontal = v
	}
	spec, err = spec.Normalize()
	if err != nil {
		return nil, err
	}
	if err := s.dashboard.ApplySpec(ctx, spec); err != nil {
		return nil, err
	}
	return jsonResult(spec)
}

// layoutCard is a rendered card without markup unless asked for.
type layoutCard struct {
	domain.CardPlacement
	Title  string `json:"title"`
	Markup string `json:"markup,omitempty"`
}

func (s *Server) handleGetLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	withMarkup, _ := req.GetArguments()["includeMarkup"].(bool)
	st, err := s.dashboard.State(ctx)
	if err != nil {
		return nil, err
	}
	cards := make([]layoutCard, len(st.Cards))
	for i, rc := range st.Cards {
		cards[i] = layoutCard{CardPlacement: rc.Placement, Title: rc.Title}
		if withMarkup {
			cards[i].Markup = rc.Markup
		}
	}
	return jsonResult(map[string]any{
		"spec":     st.Spec,
		"cards":    cards,
		"openMenu": st.OpenMenu,
		"unplaced": st.Unplaced,
	})
}

func (s *Server) handleRequestLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.dashboard.RequestLayout() {
		return textResult("A layout pass is already pending."), nil
	}
	return textResult("Layout pass scheduled."), nil
}

func (s *Server) handleListSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.dashboard.SourceTypes())
}

func (s *Server) registerMenuTools() {
	// ── toggle_menu ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("toggle_menu",
		mcp.WithDescription("Open or close a card's menu. Opening one menu closes any other."),
		mcp.WithString("cardId", mcp.Description("Card ID"), mcp.Required()),
	), s.handleToggleMenu)

	// ── close_menus ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("close_menus",
		mcp.WithDescription("Close the open card menu, if any"),
	), s.handleCloseMenus)

	// ── select_menu_item ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_menu_item",
		mcp.WithDescription("Choose an item of the open card menu (e.g. size-wide). The menu must be open. Choosing remove requires user approval."),
		mcp.WithString("cardId", mcp.Description("Card ID whose menu is open"), mcp.Required()),
		mcp.WithString("itemId", mcp.Description("Menu item ID"), mcp.Required()),
	), s.handleSelectMenuItem)
}

func (s *Server) handleToggleMenu(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, err := requiredString(req.GetArguments(), "cardId")
	if err != nil {
		return nil, err
	}
	open, err := s.dashboard.ToggleMenu(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if !open {
		return textResult(fmt.Sprintf("Menu of %s is closed.", cardID)), nil
	}
	st, err := s.dashboard.OpenMenu(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(st)
}

func (s *Server) handleCloseMenus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.dashboard.CloseMenus(ctx); err != nil {
		return nil, err
	}
	return textResult("Menus closed."), nil
}

func (s *Server) handleSelectMenuItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cardID, err := requiredString(args, "cardId")
	if err != nil {
		return nil, err
	}
	itemID, err := requiredString(args, "itemId")
	if err != nil {
		return nil, err
	}
	if itemID == menu.RemoveItemID {
		if err := s.approval.Request(ctx, "select_menu_item", "Remove card "+cardID, cardID); err != nil {
			return nil, err
		}
	}
	if err := s.dashboard.SelectMenuItem(ctx, cardID, itemID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Selected %s on %s.", itemID, cardID)), nil
}
