package service

import (
	"context"
	"errors"
	"fmt"

	"cardgrid/internal/domain"
	"cardgrid/internal/menu"
	"cardgrid/internal/resize"
)

// ─────────────────────────────────────────────────────────────
// Menus
// ─────────────────────────────────────────────────────────────

// MenuState is the payload of menu:changed.
type MenuState struct {
	Open string     `json:"open"`
	Menu *menu.Menu `json:"menu,omitempty"`
}

// ToggleMenu opens or closes a card's menu. It reports whether the menu is
// open afterwards. Unknown cards are ignored.
func (d *Dashboard) ToggleMenu(ctx context.Context, cardID string) (bool, error) {
	var open bool
	err := d.call(ctx, func() error {
		open = d.menus.Toggle(cardID)
		return nil
	})
	return open, err
}

// CloseMenus closes the open menu, if any.
func (d *Dashboard) CloseMenus(ctx context.Context) error {
	return d.call(ctx, func() error {
		d.menus.CloseAll()
		return nil
	})
}

// OpenMenu returns the open menu.
func (d *Dashboard) OpenMenu(ctx context.Context) (MenuState, error) {
	var st MenuState
	err := d.call(ctx, func() error {
		st = d.menuState()
		return nil
	})
	return st, err
}

// SelectMenuItem carries out an item of the open menu.
func (d *Dashboard) SelectMenuItem(ctx context.Context, cardID, itemID string) error {
	return d.call(ctx, func() error {
		item, err := d.menus.Select(cardID, itemID)
		if err != nil {
			return err
		}
		switch item.Kind {
		case menu.ItemSizeClass:
			_, err = d.setSizeClass(cardID, item.SizeClass)
		case menu.ItemRemove:
			err = d.removeCard(cardID)
		default:
			err = fmt.Errorf("menu item %s: unsupported kind %q", item.ID, item.Kind)
		}
		return err
	})
}

func (d *Dashboard) onMenuChanged(string) {
	d.emit(EventMenuChanged, d.menuState())
}

func (d *Dashboard) menuState() MenuState {
	open, ok := d.menus.Open()
	if !ok {
		return MenuState{}
	}
	st := MenuState{Open: open}
	if m, ok := d.menus.Menu(open); ok {
		st.Menu = &m
	}
	return st
}

// ─────────────────────────────────────────────────────────────
// Pointer gestures
// ─────────────────────────────────────────────────────────────

// Gesture handles passed by the frontend to PointerDown.
const (
	HandleDrag        = "drag"
	HandleBottomRight = string(domain.AnchorBottomRight)
	HandleBottomLeft  = string(domain.AnchorBottomLeft)
)

// PointerDown starts a gesture on a card. handle is "drag" or one of the
// resize anchors. It reports false when the gesture was ignored because
// another one is running or the card is unknown.
func (d *Dashboard) PointerDown(ctx context.Context, cardID, handle string, x, y float64) (bool, error) {
	var started bool
	err := d.call(ctx, func() error {
		at := resize.Point{X: x, Y: y}
		if handle == HandleDrag {
			started = d.gestures.BeginDrag(cardID, at)
		} else {
			started = d.gestures.BeginResize(cardID, domain.Anchor(handle), at)
		}
		if started {
			d.menus.CloseAll()
		}
		return nil
	})
	return started, err
}

// PointerMove updates the running gesture. The frame is only drawn, never saved.
func (d *Dashboard) PointerMove(ctx context.Context, x, y float64) error {
	return d.call(ctx, func() error {
		if f, ok := d.gestures.Move(resize.Point{X: x, Y: y}); ok {
			d.emit(EventGestureFrame, f)
		}
		return nil
	})
}

// PointerUp ends the running gesture and commits its geometry. A pointer-up
// without a gesture is ignored.
func (d *Dashboard) PointerUp(ctx context.Context, x, y float64) (domain.CardPlacement, error) {
	var out domain.CardPlacement
	err := d.call(ctx, func() error {
		s, active := d.gestures.Active()
		p, err := d.gestures.End(resize.Point{X: x, Y: y})
		switch {
		case errors.Is(err, domain.ErrMissingCardContext):
			d.log.Debug("pointer up ignored", "err", err)
			return nil
		case err != nil:
			return err
		}
		if active && s.StartPointer == (resize.Point{X: x, Y: y}) {
			out = p
			d.rebuild(p.ID)
			return nil
		}
		out = d.commitPlacement(p)
		return nil
	})
	return out, err
}

// PointerCancel drops the running gesture; the card is redrawn where it was.
func (d *Dashboard) PointerCancel(ctx context.Context) error {
	return d.call(ctx, func() error {
		s, ok := d.gestures.Active()
		d.gestures.Cancel()
		if ok {
			d.rebuild(s.CardID)
		}
		return nil
	})
}
