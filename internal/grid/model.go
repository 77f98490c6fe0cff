// Package grid owns card placements on a fixed cell grid.
//
// Cards are first placed on whole cells (Place, PlaceAt, SetSizeClass). After
// that their pixel geometry can be changed free-form by interaction code through
// ResizeTo and MoveTo, bounded only by the minimum card size and the container.
// The model never moves other cards out of the way: a manually resized card may
// overlap its neighbours.
//
// A Model is not safe for concurrent use. The dashboard service confines it to
// the UI event loop.
package grid

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"cardgrid/internal/domain"
)

// Model is the single owner of every CardPlacement.
type Model struct {
	spec    domain.GridSpec
	cards   map[string]*domain.CardPlacement
	order   []string
	pending []pendingCard
	minW    float64
	minH    float64
}

// pendingCard is a card that lost its cells after the grid shrank.
type pendingCard struct {
	id      string
	colSpan int
	rowSpan int
}

// Option configures a Model.
type Option func(*Model)

// WithMinimumSize overrides the 150×100 resize floor.
func WithMinimumSize(w, h float64) Option {
	return func(m *Model) {
		if w > 0 {
			m.minW = w
		}
		if h > 0 {
			m.minH = h
		}
	}
}

// New creates an empty Model for spec.
func New(spec domain.GridSpec, opts ...Option) *Model {
	m := &Model{
		spec:  spec,
		cards: make(map[string]*domain.CardPlacement),
		minW:  domain.MinCardWidth,
		minH:  domain.MinCardHeight,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Spec returns the current grid spec.
func (m *Model) Spec() domain.GridSpec { return m.spec }

// MinimumSize returns the resize floor.
func (m *Model) MinimumSize() (w, h float64) { return m.minW, m.minH }

// Get returns a copy of a card's placement.
func (m *Model) Get(cardID string) (domain.CardPlacement, bool) {
	p, ok := m.cards[cardID]
	if !ok {
		return domain.CardPlacement{}, false
	}
	return *p, true
}

// Has reports whether cardID is currently placed.
func (m *Model) Has(cardID string) bool {
	_, ok := m.cards[cardID]
	return ok
}

// List returns copies of all placements in placement order.
func (m *Model) List() []domain.CardPlacement {
	out := make([]domain.CardPlacement, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.cards[id])
	}
	return out
}

// Unplaced returns the ids of cards waiting for free cells.
func (m *Model) Unplaced() []string {
	return lo.Map(m.pending, func(p pendingCard, _ int) string { return p.id })
}

// Place puts a card on the first free region of colSpan×rowSpan cells,
// scanning rows top-to-bottom and columns left-to-right. A card that is
// already placed is re-placed.
func (m *Model) Place(cardID string, colSpan, rowSpan int) (domain.CardPlacement, error) {
	if err := m.checkSpan(colSpan, rowSpan); err != nil {
		return domain.CardPlacement{}, err
	}
	col, row, ok := m.findFree(colSpan, rowSpan, cardID)
	if !ok {
		return domain.CardPlacement{}, fmt.Errorf("place %s (%d×%d): %w: no free region", cardID, colSpan, rowSpan, domain.ErrOutOfBounds)
	}
	return m.put(cardID, col, row, colSpan, rowSpan), nil
}

// Park records a card that has no room yet, keeping its span. The next
// Reflow tries to place it. Parking a placed card does nothing.
func (m *Model) Park(cardID string, colSpan, rowSpan int) {
	if m.Has(cardID) {
		return
	}
	m.pending = lo.Reject(m.pending, func(p pendingCard, _ int) bool { return p.id == cardID })
	m.pending = append(m.pending, pendingCard{id: cardID, colSpan: colSpan, rowSpan: rowSpan})
}

// PlaceAt puts a card on an explicit region, e.g. when restoring a saved layout.
func (m *Model) PlaceAt(cardID string, col, row, colSpan, rowSpan int) (domain.CardPlacement, error) {
	if err := m.checkSpan(colSpan, rowSpan); err != nil {
		return domain.CardPlacement{}, err
	}
	if col < 0 || row < 0 || col+colSpan > m.spec.Columns || row+rowSpan > m.spec.Rows {
		return domain.CardPlacement{}, fmt.Errorf("place %s at (%d,%d): %w", cardID, col, row, domain.ErrOutOfBounds)
	}
	if !m.regionFree(col, row, colSpan, rowSpan, cardID) {
		return domain.CardPlacement{}, fmt.Errorf("place %s at (%d,%d): %w", cardID, col, row, domain.ErrCellOccupied)
	}
	return m.put(cardID, col, row, colSpan, rowSpan), nil
}

// Restore re-installs a saved placement as-is, including free-form pixel
// geometry. The cells must be free and inside the grid.
func (m *Model) Restore(p domain.CardPlacement) (domain.CardPlacement, error) {
	placed, err := m.PlaceAt(p.ID, p.Column, p.Row, p.ColumnSpan, p.RowSpan)
	if err != nil {
		return placed, err
	}
	if p.Manual {
		cur := m.cards[p.ID]
		cur.Manual = true
		cur.PixelLeft, cur.PixelTop = p.PixelLeft, p.PixelTop
		cur.PixelWidth, cur.PixelHeight = p.PixelWidth, p.PixelHeight
		m.clampManual(cur)
		placed = *cur
	}
	return placed, nil
}

// SetSizeClass changes a card to a preset footprint. The card keeps its
// top-left cell when the new span fits there, otherwise it moves to the first
// free region. Free-form geometry is discarded.
func (m *Model) SetSizeClass(cardID string, class domain.SizeClass) (domain.CardPlacement, error) {
	p, ok := m.cards[cardID]
	if !ok {
		return domain.CardPlacement{}, fmt.Errorf("set size class %s: %w", cardID, domain.ErrCardNotFound)
	}
	cols, rows, ok := class.Span()
	if !ok {
		return domain.CardPlacement{}, fmt.Errorf("set size class %s: unknown class %q", cardID, class)
	}
	if err := m.checkSpan(cols, rows); err != nil {
		return domain.CardPlacement{}, err
	}
	if p.Column+cols <= m.spec.Columns && p.Row+rows <= m.spec.Rows && m.regionFree(p.Column, p.Row, cols, rows, cardID) {
		return m.put(cardID, p.Column, p.Row, cols, rows), nil
	}
	col, row, ok := m.findFree(cols, rows, cardID)
	if !ok {
		return domain.CardPlacement{}, fmt.Errorf("set size class %s to %s: %w", cardID, class, domain.ErrOutOfBounds)
	}
	return m.put(cardID, col, row, cols, rows), nil
}

// ResizeTo sets a card's pixel size directly. The size is clamped to the
// minimum floor and to the container. With AnchorBottomLeft the right edge
// stays where it was and the left edge follows the new width. When the floor
// does not fit in the room left, the card is shifted back inside the
// container and the anchored edge moves with it.
func (m *Model) ResizeTo(cardID string, width, height float64, anchor domain.Anchor) (domain.CardPlacement, error) {
	p, ok := m.cards[cardID]
	if !ok {
		return domain.CardPlacement{}, fmt.Errorf("resize %s: %w", cardID, domain.ErrCardNotFound)
	}
	minX, minY, maxX, maxY := m.bounds()

	switch anchor {
	case domain.AnchorBottomLeft:
		right := p.Right()
		p.PixelWidth = clamp(width, m.minW, right-minX)
		p.PixelLeft = right - p.PixelWidth
	default:
		p.PixelWidth = clamp(width, m.minW, maxX-p.PixelLeft)
	}
	p.PixelHeight = clamp(height, m.minH, maxY-p.PixelTop)
	p.PixelLeft = math.Max(minX, math.Min(p.PixelLeft, maxX-p.PixelWidth))
	p.PixelTop = math.Max(minY, math.Min(p.PixelTop, maxY-p.PixelHeight))
	p.Manual = true
	return *p, nil
}

// MoveTo sets a card's pixel position directly, keeping it inside the container.
func (m *Model) MoveTo(cardID string, left, top float64) (domain.CardPlacement, error) {
	p, ok := m.cards[cardID]
	if !ok {
		return domain.CardPlacement{}, fmt.Errorf("move %s: %w", cardID, domain.ErrCardNotFound)
	}
	minX, minY, maxX, maxY := m.bounds()
	p.PixelLeft = math.Max(minX, math.Min(left, maxX-p.PixelWidth))
	p.PixelTop = math.Max(minY, math.Min(top, maxY-p.PixelHeight))
	p.Manual = true
	return *p, nil
}

// Remove releases a card's cells. Removing an unknown card is a no-op.
func (m *Model) Remove(cardID string) {
	delete(m.cards, cardID)
	m.order = lo.Without(m.order, cardID)
	m.pending = lo.Reject(m.pending, func(p pendingCard, _ int) bool { return p.id == cardID })
}

// ── internals ──────────────────────────────────────────────

func (m *Model) checkSpan(colSpan, rowSpan int) error {
	if colSpan < 1 || rowSpan < 1 || colSpan > m.spec.Columns || rowSpan > m.spec.Rows {
		return fmt.Errorf("span %d×%d on %d×%d grid: %w", colSpan, rowSpan, m.spec.Columns, m.spec.Rows, domain.ErrOutOfBounds)
	}
	return nil
}

func (m *Model) put(cardID string, col, row, colSpan, rowSpan int) domain.CardPlacement {
	p, exists := m.cards[cardID]
	if !exists {
		p = &domain.CardPlacement{ID: cardID}
		m.cards[cardID] = p
		m.order = append(m.order, cardID)
		m.pending = lo.Reject(m.pending, func(pc pendingCard, _ int) bool { return pc.id == cardID })
	}
	p.Column, p.Row = col, row
	p.ColumnSpan, p.RowSpan = colSpan, rowSpan
	p.SizeClass = domain.ClassifySpan(colSpan, rowSpan)
	p.Manual = false
	m.snapToCells(p)
	return *p
}

// snapToCells derives pixel geometry from the occupied cells.
func (m *Model) snapToCells(p *domain.CardPlacement) {
	p.PixelLeft = m.spec.CellLeft(p.Column)
	p.PixelTop = m.spec.CellTop(p.Row)
	p.PixelWidth = m.spec.SpanWidth(p.ColumnSpan)
	p.PixelHeight = m.spec.SpanHeight(p.RowSpan)
}

// clampManual keeps free-form geometry inside the container after a spec change.
func (m *Model) clampManual(p *domain.CardPlacement) {
	minX, minY, maxX, maxY := m.bounds()
	p.PixelWidth = clamp(p.PixelWidth, m.minW, maxX-minX)
	p.PixelHeight = clamp(p.PixelHeight, m.minH, maxY-minY)
	p.PixelLeft = math.Max(minX, math.Min(p.PixelLeft, maxX-p.PixelWidth))
	p.PixelTop = math.Max(minY, math.Min(p.PixelTop, maxY-p.PixelHeight))
}

// bounds returns the drawable area inside the container padding.
func (m *Model) bounds() (minX, minY, maxX, maxY float64) {
	return m.spec.PaddingHorizontal, m.spec.PaddingVertical,
		m.spec.ContainerWidth() - m.spec.PaddingHorizontal,
		m.spec.ContainerHeight() - m.spec.PaddingVertical
}

func (m *Model) findFree(colSpan, rowSpan int, except string) (int, int, bool) {
	for row := 0; row+rowSpan <= m.spec.Rows; row++ {
		for col := 0; col+colSpan <= m.spec.Columns; col++ {
			if m.regionFree(col, row, colSpan, rowSpan, except) {
				return col, row, true
			}
		}
	}
	return 0, 0, false
}

func (m *Model) regionFree(col, row, colSpan, rowSpan int, except string) bool {
	for id, p := range m.cards {
		if id == except {
			continue
		}
		if col < p.Column+p.ColumnSpan && col+colSpan > p.Column &&
			row < p.Row+p.RowSpan && row+rowSpan > p.Row {
			return false
		}
	}
	return true
}

// clamp bounds v to [floor, ceil]; the floor wins when ceil < floor.
func clamp(v, floor, ceil float64) float64 {
	return math.Max(floor, math.Min(v, ceil))
}
