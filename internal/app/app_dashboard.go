package app

import (
	"cardgrid/internal/domain"
	"cardgrid/internal/service"
)

// ============================================================
// Dashboard
// ============================================================

// GetDashboard returns the grid spec and every rendered card.
func (a *App) GetDashboard() (domain.DashboardState, error) {
	st, err := a.dashboard.State(a.ctx)
	if err != nil {
		return domain.DashboardState{}, err
	}
	if st.Cards == nil {
		st.Cards = []domain.RenderedCard{}
	}
	return st, nil
}

func (a *App) GetGridSpec() (domain.GridSpec, error) {
	return a.dashboard.Spec(a.ctx)
}

func (a *App) ApplyGridSpec(spec domain.GridSpec) error {
	return a.dashboard.ApplySpec(a.ctx, spec)
}

// WindowResized is called by the frontend on every window resize event.
func (a *App) WindowResized(width, height float64) {
	a.dashboard.WindowResized(width, height)
}

func (a *App) ListSources() []string {
	return a.dashboard.SourceTypes()
}

// ============================================================
// Cards
// ============================================================

func (a *App) ListCards() ([]domain.Card, error) {
	cards, err := a.dashboard.ListCards(a.ctx)
	if cards == nil {
		cards = []domain.Card{}
	}
	return cards, err
}

func (a *App) AddCard(in service.AddCardInput) (domain.Card, error) {
	return a.dashboard.AddCard(a.ctx, in)
}

func (a *App) RemoveCard(cardID string) error {
	return a.dashboard.RemoveCard(a.ctx, cardID)
}

func (a *App) UpdateCardState(cardID, state string) error {
	return a.dashboard.UpdateCardState(a.ctx, cardID, state)
}

func (a *App) RefreshCard(cardID string) error {
	return a.dashboard.RefreshCard(a.ctx, cardID)
}

func (a *App) SetSizeClass(cardID string, class domain.SizeClass) (domain.CardPlacement, error) {
	return a.dashboard.SetSizeClass(a.ctx, cardID, class)
}

// ControlChanged forwards a change of a card control (e.g. a range select).
func (a *App) ControlChanged(cardID, controlID, value string) error {
	return a.dashboard.ControlChanged(a.ctx, cardID, controlID, value)
}

// ============================================================
// Menus
// ============================================================

func (a *App) ToggleMenu(cardID string) (bool, error) {
	return a.dashboard.ToggleMenu(a.ctx, cardID)
}

func (a *App) CloseMenus() error {
	return a.dashboard.CloseMenus(a.ctx)
}

func (a *App) SelectMenuItem(cardID, itemID string) error {
	return a.dashboard.SelectMenuItem(a.ctx, cardID, itemID)
}

// ============================================================
// Pointer gestures
// ============================================================

// PointerDown starts a drag ("drag") or a resize ("bottom-right", "bottom-left").
func (a *App) PointerDown(cardID, handle string, x, y float64) (bool, error) {
	return a.dashboard.PointerDown(a.ctx, cardID, handle, x, y)
}

func (a *App) PointerMove(x, y float64) error {
	return a.dashboard.PointerMove(a.ctx, x, y)
}

func (a *App) PointerUp(x, y float64) (domain.CardPlacement, error) {
	return a.dashboard.PointerUp(a.ctx, x, y)
}

func (a *App) PointerCancel() error {
	return a.dashboard.PointerCancel(a.ctx)
}
