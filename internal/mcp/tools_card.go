package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"

	"cardgrid/internal/domain"
	"cardgrid/internal/service"
)

func (s *Server) registerCardTools() {
	// ── list_cards ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_cards",
		mcp.WithDescription("List every card on the dashboard with its grid cells and pixel geometry. Unplaced cards come last."),
		mcp.WithString("source", mcp.Description("Filter by content source (optional)")),
	), s.handleListCards)

	// ── get_card ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_card",
		mcp.WithDescription("Get a card's record, including its source state"),
		mcp.WithString("cardId", mcp.Description("Card ID"), mcp.Required()),
	), s.handleGetCard)

	// ── add_card ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_card",
		mcp.WithDescription("Add a card. It is placed in the first free region, scanning rows top to bottom. Fails when the grid has no room."),
		mcp.WithString("source",
			mcp.Description("Content source: markdown, html, metric, text (see list_sources)"),
			mcp.Required(),
		),
		mcp.WithString("title", mcp.Description("Card title (optional, defaults to the source title)")),
		mcp.WithString("state", mcp.Description("Source state as JSON, e.g. {\"text\":\"# Hi\"} for markdown (optional)")),
		mcp.WithString("sizeClass", mcp.Description("normal (8×6 cells), wide (16×6), tall (8×12), extra-wide (24×6). Default normal.")),
		mcp.WithNumber("columnSpan", mcp.Description("Explicit column span (optional, overrides sizeClass together with rowSpan)")),
		mcp.WithNumber("rowSpan", mcp.Description("Explicit row span (optional)")),
		mcp.WithString("refresh", mcp.Description("Cron expression for periodic refresh (optional)")),
	), s.handleAddCard)

	// ── update_card_state ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_card_state",
		mcp.WithDescription("Replace a card's source state and re-render it"),
		mcp.WithString("cardId", mcp.Description("Card ID"), mcp.Required()),
		mcp.WithString("state", mcp.Description("New source state as JSON"), mcp.Required()),
	), s.handleUpdateCardState)

	// ── refresh_card ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("refresh_card",
		mcp.WithDescription("Fetch fresh content for a card"),
		mcp.WithString("cardId", mcp.Description("Card ID"), mcp.Required()),
	), s.handleRefreshCard)

	// ── remove_card (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_card",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a card from the dashboard. Requires user approval."),
		mcp.WithString("cardId", mcp.Description("Card ID to remove"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveCard)

	// ── resize_card ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_card",
		mcp.WithDescription("Resize a card to a free-form pixel size. The card stops following its grid cells."),
		mcp.WithString("cardId", mcp.Description("Card ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width in pixels (minimum 150)"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height in pixels (minimum 100)"), mcp.Required()),
		mcp.WithString("anchor", mcp.Description("bottom-right keeps the left edge, bottom-left keeps the right edge (default bottom-right)")),
	), s.handleResizeCard)

	// ── move_card ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_card",
		mcp.WithDescription("Move a card to a pixel position inside the grid container"),
		mcp.WithString("cardId", mcp.Description("Card ID"), mcp.Required()),
		mcp.WithNumber("left", mcp.Description("New left edge"), mcp.Required()),
		mcp.WithNumber("top", mcp.Description("New top edge"), mcp.Required()),
	), s.handleMoveCard)

	// ── set_size_class ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_size_class",
		mcp.WithDescription("Snap a card back to a preset size. Fails when the preset does not fit."),
		mcp.WithString("cardId", mcp.Description("Card ID"), mcp.Required()),
		mcp.WithString("sizeClass", mcp.Description("normal, wide, tall or extra-wide"), mcp.Required()),
	), s.handleSetSizeClass)
}

// cardSummary is the compact card shape returned to agents.
type cardSummary struct {
	ID         string           `json:"id"`
	Source     string           `json:"source"`
	Title      string           `json:"title,omitempty"`
	Placed     bool             `json:"placed"`
	Column     int              `json:"column"`
	Row        int              `json:"row"`
	ColumnSpan int              `json:"columnSpan"`
	RowSpan    int              `json:"rowSpan"`
	Left       float64          `json:"left"`
	Top        float64          `json:"top"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	SizeClass  domain.SizeClass `json:"sizeClass"`
	Manual     bool             `json:"manual,omitempty"`
	Refresh    string           `json:"refresh,omitempty"`
}

func summarizeCard(c domain.Card, placed bool) cardSummary {
	p := c.Placement
	return cardSummary{
		ID:         c.ID,
		Source:     c.Source,
		Title:      c.Title,
		Placed:     placed,
		Column:     p.Column,
		Row:        p.Row,
		ColumnSpan: p.ColumnSpan,
		RowSpan:    p.RowSpan,
		Left:       p.PixelLeft,
		Top:        p.PixelTop,
		Width:      p.PixelWidth,
		Height:     p.PixelHeight,
		SizeClass:  p.SizeClass,
		Manual:     p.Manual,
		Refresh:    c.Refresh,
	}
}

// listSummaries returns every card, unplaced ones last.
func (s *Server) listSummaries(ctx context.Context) ([]cardSummary, error) {
	cards, err := s.dashboard.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.dashboard.State(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(cards, func(c domain.Card, _ int) cardSummary {
		return summarizeCard(c, !lo.Contains(st.Unplaced, c.ID))
	}), nil
}

func (s *Server) handleListCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	summaries, err := s.listSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if source := optionalString(args, "source"); source != "" {
		summaries = lo.Filter(summaries, func(c cardSummary, _ int) bool { return c.Source == source })
	}
	if len(summaries) == 0 {
		return textResult("No cards on the dashboard."), nil
	}
	return jsonResult(summaries)
}

func (s *Server) handleGetCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, err := requiredString(req.GetArguments(), "cardId")
	if err != nil {
		return nil, err
	}
	c, err := s.dashboard.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return jsonResult(c)
}

func (s *Server) handleAddCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	source, err := requiredString(args, "source")
	if err != nil {
		return nil, err
	}
	in := service.AddCardInput{
		Source:    source,
		Title:     optionalString(args, "title"),
		State:     optionalString(args, "state"),
		SizeClass: domain.SizeClass(optionalString(args, "sizeClass")),
		Refresh:   optionalString(args, "refresh"),
	}
	if v, ok := number(args, "columnSpan"); ok {
		in.ColumnSpan = int(v)
	}
	if v, ok := number(args, "rowSpan"); ok {
		in.RowSpan = int(v)
	}

	c, err := s.dashboard.AddCard(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("card added via mcp", "card", c.ID, "source", c.Source)
	return jsonResult(summarizeCard(c, true))
}

func (s *Server) handleUpdateCardState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cardID, err := requiredString(args, "cardId")
	if err != nil {
		return nil, err
	}
	state, err := requiredString(args, "state")
	if err != nil {
		return nil, err
	}
	if err := s.dashboard.UpdateCardState(ctx, cardID, state); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Card %s updated.", cardID)), nil
}

func (s *Server) handleRefreshCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, err := requiredString(req.GetArguments(), "cardId")
	if err != nil {
		return nil, err
	}
	if err := s.dashboard.RefreshCard(ctx, cardID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Card %s refreshed.", cardID)), nil
}

func (s *Server) handleRemoveCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, err := requiredString(req.GetArguments(), "cardId")
	if err != nil {
		return nil, err
	}
	c, err := s.dashboard.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	label := strings.TrimSpace(c.Title)
	if label == "" {
		label = c.Source
	}
	if err := s.approval.Request(ctx, "remove_card", fmt.Sprintf("Remove card %q", label), cardID); err != nil {
		return nil, err
	}
	if err := s.dashboard.RemoveCard(ctx, cardID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Card %s removed.", cardID)), nil
}

func (s *Server) handleResizeCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cardID, err := requiredString(args, "cardId")
	if err != nil {
		return nil, err
	}
	width, err := requiredNumber(args, "width")
	if err != nil {
		return nil, err
	}
	height, err := requiredNumber(args, "height")
	if err != nil {
		return nil, err
	}
	anchor := domain.AnchorBottomRight
	if a := domain.Anchor(optionalString(args, "anchor")); a == domain.AnchorBottomLeft {
		anchor = a
	}
	p, err := s.dashboard.ResizeCard(ctx, cardID, width, height, anchor)
	if err != nil {
		return nil, err
	}
	return jsonResult(p)
}

func (s *Server) handleMoveCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cardID, err := requiredString(args, "cardId")
	if err != nil {
		return nil, err
	}
	left, err := requiredNumber(args, "left")
	if err != nil {
		return nil, err
	}
	top, err := requiredNumber(args, "top")
	if err != nil {
		return nil, err
	}
	p, err := s.dashboard.MoveCard(ctx, cardID, left, top)
	if err != nil {
		return nil, err
	}
	return jsonResult(p)
}

func (s *Server) handleSetSizeClass(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cardID, err := requiredString(args, "cardId")
	if err != nil {
		return nil, err
	}
	class, err := requiredString(args, "sizeClass")
	if err != nil {
		return nil, err
	}
	p, err := s.dashboard.SetSizeClass(ctx, cardID, domain.SizeClass(class))
	if err != nil {
		return nil, err
	}
	return jsonResult(p)
}
