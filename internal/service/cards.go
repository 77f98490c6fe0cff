package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"

	"github.com/google/uuid"

	"cardgrid/internal/domain"
	"cardgrid/internal/render"
	"cardgrid/internal/sources"
)

// ─────────────────────────────────────────────────────────────
// Card lifecycle
// ─────────────────────────────────────────────────────────────

// AddCardInput describes a new card.
type AddCardInput struct {
	Source    string           `json:"source"`
	Title     string           `json:"title"`
	State     string           `json:"state"`
	SizeClass domain.SizeClass `json:"sizeClass"`
	// ColumnSpan and RowSpan override SizeClass when both are set.
	ColumnSpan int    `json:"columnSpan"`
	RowSpan    int    `json:"rowSpan"`
	Refresh    string `json:"refresh"`
}

// AddCard places and renders a new card. When the grid has no room the card
// is neither placed nor saved and the error wraps domain.ErrOutOfBounds.
func (d *Dashboard) AddCard(ctx context.Context, in AddCardInput) (domain.Card, error) {
	var out domain.Card
	err := d.call(ctx, func() error {
		if _, err := d.sources.Get(in.Source); err != nil {
			return fmt.Errorf("add card: %w", err)
		}
		cols, rows := in.ColumnSpan, in.RowSpan
		if cols <= 0 || rows <= 0 {
			class := in.SizeClass
			if class == "" {
				class = domain.SizeNormal
			}
			var ok bool
			if cols, rows, ok = class.Span(); !ok {
				return fmt.Errorf("add card: unknown size class %q", class)
			}
		}

		id := uuid.New().String()
		p, err := d.grid.Place(id, cols, rows)
		if err != nil {
			return fmt.Errorf("add card: %w", err)
		}
		c := &domain.Card{
			ID:        id,
			Source:    in.Source,
			Title:     in.Title,
			State:     in.State,
			Refresh:   in.Refresh,
			Placement: p,
		}
		if err := d.store.CreateCard(c); err != nil {
			d.grid.Remove(id)
			return fmt.Errorf("add card: %w", err)
		}
		d.records[id] = c
		d.renderCard(id)
		d.scheduleRefresh(c)
		d.log.Info("card added", "card", id, "source", c.Source, "span", fmt.Sprintf("%d×%d", cols, rows))
		out = *c
		return nil
	})
	if err == nil {
		d.layout.RequestLayout(MainContainer)
	}
	return out, err
}

// RemoveCard deletes a card and releases its cells.
func (d *Dashboard) RemoveCard(ctx context.Context, cardID string) error {
	return d.call(ctx, func() error { return d.removeCard(cardID) })
}

func (d *Dashboard) removeCard(cardID string) error {
	if _, ok := d.records[cardID]; !ok {
		return fmt.Errorf("remove card %s: %w", cardID, domain.ErrCardNotFound)
	}
	if err := d.store.DeleteCard(cardID); err != nil {
		return fmt.Errorf("remove card: %w", err)
	}
	d.gestures.CancelCard(cardID)
	d.menus.Forget(cardID)
	d.grid.Remove(cardID)
	d.refresh.Unschedule(cardID)
	delete(d.records, cardID)
	delete(d.content, cardID)
	delete(d.rendered, cardID)
	d.log.Info("card removed", "card", cardID)
	d.emit(EventCardRemoved, cardID)
	d.layout.RequestLayout(MainContainer)
	return nil
}

// GetCard returns a card record with its current placement.
func (d *Dashboard) GetCard(ctx context.Context, cardID string) (domain.Card, error) {
	var out domain.Card
	err := d.call(ctx, func() error {
		c, ok := d.records[cardID]
		if !ok {
			return fmt.Errorf("get card %s: %w", cardID, domain.ErrCardNotFound)
		}
		out = *c
		if p, ok := d.grid.Get(cardID); ok {
			out.Placement = p
		}
		return nil
	})
	return out, err
}

// ListCards returns every card in placement order, unplaced cards last.
func (d *Dashboard) ListCards(ctx context.Context) ([]domain.Card, error) {
	var out []domain.Card
	err := d.call(ctx, func() error {
		for _, p := range d.grid.List() {
			c := *d.records[p.ID]
			c.Placement = p
			out = append(out, c)
		}
		for _, id := range d.grid.Unplaced() {
			out = append(out, *d.records[id])
		}
		return nil
	})
	return out, err
}

// UpdateCardState replaces a card's source state and re-renders it.
func (d *Dashboard) UpdateCardState(ctx context.Context, cardID, state string) error {
	return d.call(ctx, func() error {
		c, ok := d.records[cardID]
		if !ok {
			return fmt.Errorf("update card %s: %w", cardID, domain.ErrCardNotFound)
		}
		c.State = state
		if err := d.store.UpdateCard(c); err != nil {
			return fmt.Errorf("update card: %w", err)
		}
		d.renderCard(cardID)
		return nil
	})
}

// RefreshCard fetches fresh content for a card.
func (d *Dashboard) RefreshCard(ctx context.Context, cardID string) error {
	return d.call(ctx, func() error {
		if _, ok := d.records[cardID]; !ok {
			return fmt.Errorf("refresh card %s: %w", cardID, domain.ErrCardNotFound)
		}
		d.renderCard(cardID)
		return nil
	})
}

func (d *Dashboard) refreshOnLoop(cardID string) {
	if _, ok := d.records[cardID]; ok {
		d.renderCard(cardID)
	}
}

// ControlChanged forwards a value from a card control to the control's handler.
func (d *Dashboard) ControlChanged(ctx context.Context, cardID, controlID, value string) error {
	return d.call(ctx, func() error {
		content, ok := d.content[cardID]
		if !ok {
			return fmt.Errorf("control %s: %w", controlID, domain.ErrMissingCardContext)
		}
		ctl, ok := content.FindControl(controlID)
		if !ok || ctl.OnChange == nil {
			return fmt.Errorf("control %s on %s: no handler", controlID, cardID)
		}
		ctl.OnChange(value)
		return nil
	})
}

// onMetricRange runs on the loop from a metric card's range selector.
func (d *Dashboard) onMetricRange(cardID, value string) {
	c, ok := d.records[cardID]
	if !ok {
		return
	}
	state := map[string]any{}
	if c.State != "" {
		if err := json.Unmarshal([]byte(c.State), &state); err != nil {
			d.log.Warn("metric state unreadable", "card", cardID, "err", err)
			return
		}
	}
	state["range"] = value
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	c.State = string(data)
	if err := d.store.UpdateCard(c); err != nil {
		d.log.Warn("save metric range", "card", cardID, "err", err)
	}
	d.renderCard(cardID)
}

// ── Rendering ──────────────────────────────────────────────

// renderCard runs the source and the pipeline for a placed card and emits
// card:rendered. A failing source yields a placeholder card.
func (d *Dashboard) renderCard(cardID string) {
	c, ok := d.records[cardID]
	if !ok || !d.grid.Has(cardID) {
		return
	}
	st := sources.State{CardID: cardID, Title: c.Title, Data: c.State}

	var content domain.CardContent
	src, err := d.sources.Get(c.Source)
	if err == nil {
		var report render.Report
		content, report, err = d.pipeline.Render(d.ctx, src, st)
		if err == nil && len(report.Failed) > 0 {
			d.log.Debug("card rendered with skipped steps", "card", cardID, "skipped", report.Failed)
		}
	}
	if err != nil {
		d.log.Warn("card content unavailable", "card", cardID, "err", err)
		content, _ = d.pipeline.Apply(placeholder(c, err))
	}
	d.content[cardID] = content
	d.rebuild(cardID)
}

// rebuild regenerates markup from cached content, e.g. after a geometry change.
func (d *Dashboard) rebuild(cardID string) {
	content, ok := d.content[cardID]
	if !ok {
		return
	}
	p, ok := d.grid.Get(cardID)
	if !ok {
		return
	}
	title := ""
	if content.TitleRegion != nil {
		title = content.TitleRegion.Text
	}
	rc := domain.RenderedCard{
		Placement: p,
		Title:     title,
		Markup: render.Markup(render.Build(content, p, render.BuildOptions{
			LeftHandleMinSpan: d.opts.LeftHandleMinSpan,
		})),
	}
	d.rendered[cardID] = rc
	d.emit(EventCardRendered, rc)
}

func placeholder(c *domain.Card, err error) domain.CardContent {
	title := c.Title
	if title == "" {
		title = c.Source
	}
	return domain.CardContent{
		CardID:     c.ID,
		Title:      title,
		BodyMarkup: `<div class="card-error">` + html.EscapeString(err.Error()) + `</div>`,
		Classes:    []string{"card--error"},
	}
}

// ── Geometry ───────────────────────────────────────────────

// ResizeCard sets a card's pixel size directly (MCP and keyboard paths).
func (d *Dashboard) ResizeCard(ctx context.Context, cardID string, width, height float64, anchor domain.Anchor) (domain.CardPlacement, error) {
	var out domain.CardPlacement
	err := d.call(ctx, func() error {
		p, err := d.grid.ResizeTo(cardID, width, height, anchor)
		if err != nil {
			return err
		}
		out = d.commitPlacement(p)
		return nil
	})
	return out, err
}

// MoveCard sets a card's pixel position directly.
func (d *Dashboard) MoveCard(ctx context.Context, cardID string, left, top float64) (domain.CardPlacement, error) {
	var out domain.CardPlacement
	err := d.call(ctx, func() error {
		p, err := d.grid.MoveTo(cardID, left, top)
		if err != nil {
			return err
		}
		out = d.commitPlacement(p)
		return nil
	})
	return out, err
}

// SetSizeClass re-places a card with a preset span.
func (d *Dashboard) SetSizeClass(ctx context.Context, cardID string, class domain.SizeClass) (domain.CardPlacement, error) {
	var out domain.CardPlacement
	err := d.call(ctx, func() error {
		var err error
		out, err = d.setSizeClass(cardID, class)
		return err
	})
	return out, err
}

func (d *Dashboard) setSizeClass(cardID string, class domain.SizeClass) (domain.CardPlacement, error) {
	p, err := d.grid.SetSizeClass(cardID, class)
	if err != nil {
		return domain.CardPlacement{}, err
	}
	d.menus.Invalidate(cardID)
	return d.commitPlacement(p), nil
}

// commitPlacement saves a changed placement and redraws the card.
func (d *Dashboard) commitPlacement(p domain.CardPlacement) domain.CardPlacement {
	if c, ok := d.records[p.ID]; ok {
		c.Placement = p
	}
	if err := d.store.UpdatePlacement(p); err != nil {
		d.log.Warn("save placement", "card", p.ID, "err", err)
	}
	d.rebuild(p.ID)
	d.layout.RequestLayout(MainContainer)
	return p
}

func (d *Dashboard) sizeClassOf(cardID string) domain.SizeClass {
	p, ok := d.grid.Get(cardID)
	if !ok || p.Manual {
		return domain.SizeCustom
	}
	return p.SizeClass
}
