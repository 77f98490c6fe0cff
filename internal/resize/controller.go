// Package resize implements the pointer gestures that change a card's pixel
// geometry: resizing from a bottom corner and dragging the whole card.
//
// The controller is Idle or Dragging one session. Pointer moves only produce
// presentation frames; the grid model sees a single commit on pointer-up.
package resize

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"cardgrid/internal/domain"
)

// Kind is the gesture of a session.
type Kind string

const (
	KindResize Kind = "resize"
	KindDrag   Kind = "drag"
)

// Point is a pointer position in container pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Session is the state captured on pointer-down.
type Session struct {
	CardID       string
	Kind         Kind
	Anchor       domain.Anchor
	StartPointer Point
	StartLeft    float64
	StartTop     float64
	StartWidth   float64
	StartHeight  float64
}

// Frame is the geometry to draw for the current pointer position.
type Frame struct {
	CardID string  `json:"cardId"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Grid is the part of the grid model the controller reads and commits to.
type Grid interface {
	Get(cardID string) (domain.CardPlacement, bool)
	MinimumSize() (w, h float64)
	ResizeTo(cardID string, width, height float64, anchor domain.Anchor) (domain.CardPlacement, error)
	MoveTo(cardID string, left, top float64) (domain.CardPlacement, error)
}

// Controller runs at most one gesture session. It is confined to the event loop.
type Controller struct {
	grid    Grid
	session *Session
	log     *log.Logger
}

// New creates an idle controller.
func New(grid Grid, l *log.Logger) *Controller {
	if l == nil {
		l = log.Default()
	}
	return &Controller{grid: grid, log: l}
}

// BeginResize starts a resize session from one of the bottom corners. It is
// ignored, returning false, while another session is active or when the card
// does not exist.
func (c *Controller) BeginResize(cardID string, anchor domain.Anchor, at Point) bool {
	if anchor != domain.AnchorBottomLeft {
		anchor = domain.AnchorBottomRight
	}
	return c.begin(cardID, KindResize, anchor, at)
}

// BeginDrag starts moving a card.
func (c *Controller) BeginDrag(cardID string, at Point) bool {
	return c.begin(cardID, KindDrag, "", at)
}

func (c *Controller) begin(cardID string, kind Kind, anchor domain.Anchor, at Point) bool {
	if c.session != nil {
		c.log.Debug("gesture ignored", "card", cardID, "active", c.session.CardID, "err", domain.ErrSessionConflict)
		return false
	}
	p, ok := c.grid.Get(cardID)
	if !ok {
		c.log.Debug("gesture ignored", "card", cardID, "err", domain.ErrMissingCardContext)
		return false
	}
	c.session = &Session{
		CardID:       cardID,
		Kind:         kind,
		Anchor:       anchor,
		StartPointer: at,
		StartLeft:    p.PixelLeft,
		StartTop:     p.PixelTop,
		StartWidth:   p.PixelWidth,
		StartHeight:  p.PixelHeight,
	}
	return true
}

// Active returns a copy of the running session.
func (c *Controller) Active() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Move computes the frame for a pointer position. It returns false when idle.
func (c *Controller) Move(at Point) (Frame, bool) {
	if c.session == nil {
		return Frame{}, false
	}
	return c.frameFor(c.session, at), true
}

// End finishes the session and commits its geometry. A pointer-up at the
// start position leaves the card untouched.
func (c *Controller) End(at Point) (domain.CardPlacement, error) {
	s := c.session
	if s == nil {
		return domain.CardPlacement{}, fmt.Errorf("end gesture: %w: no active session", domain.ErrMissingCardContext)
	}
	c.session = nil

	if at == s.StartPointer {
		p, ok := c.grid.Get(s.CardID)
		if !ok {
			return domain.CardPlacement{}, fmt.Errorf("end gesture on %s: %w", s.CardID, domain.ErrCardNotFound)
		}
		return p, nil
	}

	f := c.frameFor(s, at)
	if s.Kind == KindDrag {
		return c.grid.MoveTo(s.CardID, f.Left, f.Top)
	}
	return c.grid.ResizeTo(s.CardID, f.Width, f.Height, s.Anchor)
}

// Cancel drops the session without committing.
func (c *Controller) Cancel() {
	c.session = nil
}

// CancelCard drops the session if it belongs to cardID, e.g. when the card is removed.
func (c *Controller) CancelCard(cardID string) {
	if c.session != nil && c.session.CardID == cardID {
		c.session = nil
	}
}

func (c *Controller) frameFor(s *Session, at Point) Frame {
	dx, dy := at.X-s.StartPointer.X, at.Y-s.StartPointer.Y
	f := Frame{CardID: s.CardID, Left: s.StartLeft, Top: s.StartTop, Width: s.StartWidth, Height: s.StartHeight}

	if s.Kind == KindDrag {
		f.Left += dx
		f.Top += dy
		return f
	}

	minW, minH := c.grid.MinimumSize()
	f.Height = math.Max(minH, s.StartHeight+dy)
	if s.Anchor == domain.AnchorBottomLeft {
		f.Width = math.Max(minW, s.StartWidth-dx)
		f.Left = s.StartLeft + (s.StartWidth - f.Width)
	} else {
		f.Width = math.Max(minW, s.StartWidth+dx)
	}
	return f
}
