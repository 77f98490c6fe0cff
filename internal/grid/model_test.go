package grid_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardgrid/internal/domain"
	"cardgrid/internal/grid"
)

func newModel(t *testing.T) *grid.Model {
	t.Helper()
	return grid.New(domain.DefaultGridSpec())
}

// ─────────────────────────────────────────────────────────────
// Place / PlaceAt
// ─────────────────────────────────────────────────────────────

func TestPlace_FirstCardTopLeft(t *testing.T) {
	m := newModel(t)
	p, err := m.Place("a", 8, 6)
	require.NoError(t, err)

	assert.Equal(t, 0, p.Column)
	assert.Equal(t, 0, p.Row)
	assert.Equal(t, 16.0, p.PixelLeft)
	assert.Equal(t, 18.0, p.PixelTop)
	assert.Equal(t, 312.0, p.PixelWidth) // 8*32 + 7*8
	assert.Equal(t, 232.0, p.PixelHeight)
	assert.Equal(t, domain.SizeNormal, p.SizeClass)
	assert.False(t, p.Manual)
}

func TestPlace_ScansRowsThenColumns(t *testing.T) {
	m := newModel(t)
	_, err := m.Place("a", 8, 6)
	require.NoError(t, err)
	b, err := m.Place("b", 8, 6)
	require.NoError(t, err)

	assert.Equal(t, 8, b.Column)
	assert.Equal(t, 0, b.Row)
	assert.Equal(t, 16.0+8*40, b.PixelLeft)
}

func TestPlace_OutOfBoundsWhenFull(t *testing.T) {
	m := newModel(t)
	// 37 columns hold 4 normal cards per band, 19 rows hold 3 bands.
	for i := 0; i < 12; i++ {
		_, err := m.Place(string(rune('a'+i)), 8, 6)
		require.NoError(t, err, "card %d", i)
	}
	_, err := m.Place("overflow", 8, 6)
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)
	assert.False(t, m.Has("overflow"), "failed placement must not register the card")
}

func TestPlace_SpanLargerThanGrid(t *testing.T) {
	m := newModel(t)
	_, err := m.Place("huge", 38, 1)
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)
	_, err = m.Place("zero", 0, 1)
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)
}

func TestPlaceAt_Occupied(t *testing.T) {
	m := newModel(t)
	_, err := m.PlaceAt("a", 0, 0, 8, 6)
	require.NoError(t, err)

	_, err = m.PlaceAt("b", 4, 2, 8, 6)
	assert.ErrorIs(t, err, domain.ErrCellOccupied)

	_, err = m.PlaceAt("c", 30, 0, 8, 6)
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)
}

func TestRemove_ReleasesCells(t *testing.T) {
	m := newModel(t)
	_, err := m.Place("a", 8, 6)
	require.NoError(t, err)
	m.Remove("a")
	m.Remove("never-placed")

	b, err := m.Place("b", 8, 6)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Column)
	assert.Len(t, m.List(), 1)
}

// ─────────────────────────────────────────────────────────────
// ResizeTo / MoveTo
// ─────────────────────────────────────────────────────────────

func TestResizeTo_NeverBelowFloor(t *testing.T) {
	m := newModel(t)
	_, err := m.PlaceAt("a", 10, 4, 8, 6)
	require.NoError(t, err)

	r := rand.New(rand.NewSource(1))
	anchors := []domain.Anchor{domain.AnchorBottomRight, domain.AnchorBottomLeft}
	for i := 0; i < 1000; i++ {
		w := (r.Float64() - 0.5) * 1e5
		h := (r.Float64() - 0.5) * 1e5
		p, err := m.ResizeTo("a", w, h, anchors[i%2])
		require.NoError(t, err)
		if p.PixelWidth < 150 || p.PixelHeight < 100 {
			t.Fatalf("resize(%v, %v) gave %v×%v", w, h, p.PixelWidth, p.PixelHeight)
		}
	}
}

func TestResizeTo_BottomLeftKeepsRightEdge(t *testing.T) {
	m := newModel(t)
	before, err := m.PlaceAt("a", 10, 4, 8, 6)
	require.NoError(t, err)

	after, err := m.ResizeTo("a", before.PixelWidth+60, before.PixelHeight, domain.AnchorBottomLeft)
	require.NoError(t, err)
	assert.Equal(t, before.Right(), after.Right())
	assert.Equal(t, before.PixelLeft-60, after.PixelLeft)
	assert.True(t, after.Manual)
}

func TestResizeTo_ClampedToContainer(t *testing.T) {
	m := newModel(t)
	_, err := m.Place("a", 8, 6)
	require.NoError(t, err)

	p, err := m.ResizeTo("a", 10000, 10000, domain.AnchorBottomRight)
	require.NoError(t, err)
	assert.Equal(t, 1504.0-16, p.Right())
	assert.Equal(t, 788.0-18, p.Bottom())

	p, err = m.ResizeTo("a", 10000, 200, domain.AnchorBottomLeft)
	require.NoError(t, err)
	assert.Equal(t, 16.0, p.PixelLeft)
}

func TestResizeTo_FloorShiftsCardInside(t *testing.T) {
	m := newModel(t)

	// 1×1 cell at the left edge, shrunk below the floor from the left handle.
	_, err := m.PlaceAt("left", 0, 0, 1, 1)
	require.NoError(t, err)
	p, err := m.ResizeTo("left", 50, 50, domain.AnchorBottomLeft)
	require.NoError(t, err)
	assert.Equal(t, 150.0, p.PixelWidth)
	assert.Equal(t, 16.0, p.PixelLeft)
	assert.Equal(t, 166.0, p.Right())

	// 1×1 cell in the last column and row, grown to the floor from the right handle.
	_, err = m.PlaceAt("corner", 36, 18, 1, 1)
	require.NoError(t, err)
	p, err = m.ResizeTo("corner", 50, 50, domain.AnchorBottomRight)
	require.NoError(t, err)
	assert.Equal(t, 150.0, p.PixelWidth)
	assert.Equal(t, 100.0, p.PixelHeight)
	assert.Equal(t, 1504.0-16, p.Right())
	assert.Equal(t, 788.0-18, p.Bottom())
	assert.Equal(t, 1338.0, p.PixelLeft)
	assert.Equal(t, 670.0, p.PixelTop)
}

func TestResizeTo_OverlapIsKept(t *testing.T) {
	m := newModel(t)
	_, err := m.Place("a", 8, 6)
	require.NoError(t, err)
	b, err := m.Place("b", 8, 6)
	require.NoError(t, err)

	a, err := m.ResizeTo("a", 600, 300, domain.AnchorBottomRight)
	require.NoError(t, err)
	assert.Greater(t, a.Right(), b.PixelLeft, "cards are allowed to overlap")

	still, _ := m.Get("b")
	assert.Equal(t, b, still, "neighbour must not be moved")
}

func TestResizeTo_UnknownCard(t *testing.T) {
	_, err := newModel(t).ResizeTo("ghost", 300, 200, domain.AnchorBottomRight)
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestMoveTo_ClampedToContainer(t *testing.T) {
	m := newModel(t)
	_, err := m.Place("a", 8, 6)
	require.NoError(t, err)

	p, err := m.MoveTo("a", -500, 5000)
	require.NoError(t, err)
	assert.Equal(t, 16.0, p.PixelLeft)
	assert.Equal(t, 788.0-18, p.Bottom())
}

// ─────────────────────────────────────────────────────────────
// Size classes
// ─────────────────────────────────────────────────────────────

func TestSetSizeClass_GrowsInPlace(t *testing.T) {
	m := newModel(t)
	_, err := m.Place("a", 8, 6)
	require.NoError(t, err)
	_, err = m.ResizeTo("a", 500, 500, domain.AnchorBottomRight)
	require.NoError(t, err)

	p, err := m.SetSizeClass("a", domain.SizeWide)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Column)
	assert.Equal(t, 16, p.ColumnSpan)
	assert.Equal(t, domain.SizeWide, p.SizeClass)
	assert.False(t, p.Manual, "preset discards free-form geometry")
}

func TestSetSizeClass_MovesWhenBlocked(t *testing.T) {
	m := newModel(t)
	_, err := m.Place("a", 8, 6)
	require.NoError(t, err)
	_, err = m.Place("b", 8, 6)
	require.NoError(t, err)

	p, err := m.SetSizeClass("a", domain.SizeWide)
	require.NoError(t, err)
	assert.Equal(t, 16, p.Column)
	assert.Equal(t, 0, p.Row)
}
