package resize_test

import (
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardgrid/internal/domain"
	"cardgrid/internal/grid"
	"cardgrid/internal/resize"
)

// fakeGrid records commits instead of clamping to a container.
type fakeGrid struct {
	cards   map[string]domain.CardPlacement
	commits int
}

func newFakeGrid(cards ...domain.CardPlacement) *fakeGrid {
	g := &fakeGrid{cards: map[string]domain.CardPlacement{}}
	for _, c := range cards {
		g.cards[c.ID] = c
	}
	return g
}

func (g *fakeGrid) Get(id string) (domain.CardPlacement, bool) {
	p, ok := g.cards[id]
	return p, ok
}

func (g *fakeGrid) MinimumSize() (float64, float64) { return domain.MinCardWidth, domain.MinCardHeight }

func (g *fakeGrid) ResizeTo(id string, w, h float64, anchor domain.Anchor) (domain.CardPlacement, error) {
	g.commits++
	p := g.cards[id]
	if anchor == domain.AnchorBottomLeft {
		p.PixelLeft = p.Right() - w
	}
	p.PixelWidth, p.PixelHeight, p.Manual = w, h, true
	g.cards[id] = p
	return p, nil
}

func (g *fakeGrid) MoveTo(id string, left, top float64) (domain.CardPlacement, error) {
	g.commits++
	p := g.cards[id]
	p.PixelLeft, p.PixelTop, p.Manual = left, top, true
	g.cards[id] = p
	return p, nil
}

func quiet() *log.Logger { return log.New(io.Discard) }

func card300x200() domain.CardPlacement {
	return domain.CardPlacement{ID: "c", PixelLeft: 400, PixelTop: 100, PixelWidth: 300, PixelHeight: 200}
}

// ─────────────────────────────────────────────────────────────
// Anchor formulas
// ─────────────────────────────────────────────────────────────

func TestBottomLeftDrag(t *testing.T) {
	g := newFakeGrid(card300x200())
	c := resize.New(g, quiet())

	require.True(t, c.BeginResize("c", domain.AnchorBottomLeft, resize.Point{X: 400, Y: 300}))
	f, ok := c.Move(resize.Point{X: 350, Y: 320})
	require.True(t, ok)
	assert.Equal(t, 350.0, f.Width)
	assert.Equal(t, 220.0, f.Height)
	assert.Equal(t, 350.0, f.Left)
	assert.Equal(t, 0, g.commits, "moves do not commit")

	p, err := c.End(resize.Point{X: 350, Y: 320})
	require.NoError(t, err)
	assert.Equal(t, 350.0, p.PixelWidth)
	assert.Equal(t, 220.0, p.PixelHeight)
	assert.Equal(t, 350.0, p.PixelLeft)
	assert.Equal(t, 700.0, p.Right())
	assert.Equal(t, 1, g.commits)

	_, active := c.Active()
	assert.False(t, active)
}

func TestBottomRightDrag(t *testing.T) {
	c := resize.New(newFakeGrid(card300x200()), quiet())
	c.BeginResize("c", domain.AnchorBottomRight, resize.Point{X: 700, Y: 300})

	f, _ := c.Move(resize.Point{X: 740, Y: 290})
	assert.Equal(t, resize.Frame{CardID: "c", Left: 400, Top: 100, Width: 340, Height: 190}, f)
}

func TestFramesNeverBelowFloor(t *testing.T) {
	c := resize.New(newFakeGrid(card300x200()), quiet())
	r := rand.New(rand.NewSource(3))

	for _, anchor := range []domain.Anchor{domain.AnchorBottomRight, domain.AnchorBottomLeft} {
		require.True(t, c.BeginResize("c", anchor, resize.Point{}))
		for i := 0; i < 500; i++ {
			f, _ := c.Move(resize.Point{X: (r.Float64() - 0.5) * 1e5, Y: (r.Float64() - 0.5) * 1e5})
			require.GreaterOrEqual(t, f.Width, domain.MinCardWidth)
			require.GreaterOrEqual(t, f.Height, domain.MinCardHeight)
			if anchor == domain.AnchorBottomLeft {
				require.InDelta(t, 700.0, f.Left+f.Width, 1e-9)
			} else {
				require.Equal(t, 400.0, f.Left)
			}
		}
		c.Cancel()
	}
}

// ─────────────────────────────────────────────────────────────
// Session rules
// ─────────────────────────────────────────────────────────────

func TestSecondSessionIgnored(t *testing.T) {
	other := domain.CardPlacement{ID: "d", PixelWidth: 200, PixelHeight: 150}
	c := resize.New(newFakeGrid(card300x200(), other), quiet())

	require.True(t, c.BeginResize("c", domain.AnchorBottomRight, resize.Point{X: 1, Y: 2}))
	before, _ := c.Active()

	assert.False(t, c.BeginResize("d", domain.AnchorBottomLeft, resize.Point{X: 9, Y: 9}))
	assert.False(t, c.BeginDrag("c", resize.Point{X: 5, Y: 5}))

	after, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestUnknownCardIgnored(t *testing.T) {
	c := resize.New(newFakeGrid(), quiet())
	assert.False(t, c.BeginResize("ghost", domain.AnchorBottomRight, resize.Point{}))
	_, ok := c.Move(resize.Point{X: 10})
	assert.False(t, ok)

	_, err := c.End(resize.Point{})
	assert.ErrorIs(t, err, domain.ErrMissingCardContext)
}

func TestZeroDeltaLeavesCardUntouched(t *testing.T) {
	g := newFakeGrid(card300x200())
	c := resize.New(g, quiet())
	c.BeginResize("c", domain.AnchorBottomLeft, resize.Point{X: 5, Y: 5})

	p, err := c.End(resize.Point{X: 5, Y: 5})
	require.NoError(t, err)
	assert.Equal(t, card300x200(), p)
	assert.Equal(t, 0, g.commits)
}

func TestCancelCard(t *testing.T) {
	g := newFakeGrid(card300x200())
	c := resize.New(g, quiet())
	c.BeginDrag("c", resize.Point{})

	c.CancelCard("other")
	_, ok := c.Active()
	assert.True(t, ok)

	c.CancelCard("c")
	_, ok = c.Active()
	assert.False(t, ok)
	assert.Equal(t, 0, g.commits)
}

// ─────────────────────────────────────────────────────────────
// Against the real grid model
// ─────────────────────────────────────────────────────────────

func TestCommitClampsToGrid(t *testing.T) {
	m := grid.New(domain.DefaultGridSpec())
	_, err := m.Place("a", 8, 6)
	require.NoError(t, err)
	c := resize.New(m, quiet())

	c.BeginResize("a", domain.AnchorBottomRight, resize.Point{X: 328, Y: 250})
	p, err := c.End(resize.Point{X: -5000, Y: -5000})
	require.NoError(t, err)
	assert.Equal(t, 150.0, p.PixelWidth)
	assert.Equal(t, 100.0, p.PixelHeight)
	assert.True(t, p.Manual)

	c.BeginDrag("a", resize.Point{X: 100, Y: 100})
	f, _ := c.Move(resize.Point{X: 5100, Y: 100})
	assert.Equal(t, 5016.0, f.Left, "frames are not clamped")
	p, err = c.End(resize.Point{X: 5100, Y: 100})
	require.NoError(t, err)
	assert.Equal(t, 1488.0-150.0, p.PixelLeft)
}
