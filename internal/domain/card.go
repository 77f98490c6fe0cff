package domain

import "time"

// SizeClass is the preset footprint a card is shown with.
type SizeClass string

const (
	SizeNormal    SizeClass = "normal"
	SizeWide      SizeClass = "wide"
	SizeTall      SizeClass = "tall"
	SizeExtraWide SizeClass = "extra-wide"
	SizeCustom    SizeClass = "custom"
)

// sizePresets maps each preset to its cell span (columns, rows).
var sizePresets = map[SizeClass][2]int{
	SizeNormal:    {8, 6},
	SizeWide:      {16, 6},
	SizeTall:      {8, 12},
	SizeExtraWide: {24, 6},
}

// Span returns the cell span of a preset. ok is false for SizeCustom and unknown classes.
func (c SizeClass) Span() (cols, rows int, ok bool) {
	s, ok := sizePresets[c]
	return s[0], s[1], ok
}

// ClassifySpan returns the preset matching a span, or SizeCustom.
func ClassifySpan(cols, rows int) SizeClass {
	for class, s := range sizePresets {
		if s[0] == cols && s[1] == rows {
			return class
		}
	}
	return SizeCustom
}

// SizeClasses lists the presets in menu order.
func SizeClasses() []SizeClass {
	return []SizeClass{SizeNormal, SizeWide, SizeTall, SizeExtraWide}
}

// Anchor is the corner a resize gesture keeps fixed on the opposite side.
// AnchorBottomRight drags the bottom-right handle (left edge fixed);
// AnchorBottomLeft drags the bottom-left handle (right edge fixed).
type Anchor string

const (
	AnchorBottomRight Anchor = "bottom-right"
	AnchorBottomLeft  Anchor = "bottom-left"
)

// Minimum card size enforced for every free-form resize.
const (
	MinCardWidth  = 150.0
	MinCardHeight = 100.0
)

// CardPlacement is the grid-owned geometry of one card.
// Column/Row/ColumnSpan/RowSpan are the occupied cells; the pixel fields are
// what the card is drawn with. Manual is set once the pixel geometry has been
// changed by a resize or drag and no longer follows the cells.
type CardPlacement struct {
	ID          string    `json:"id"`
	Column      int       `json:"column"`
	Row         int       `json:"row"`
	ColumnSpan  int       `json:"columnSpan"`
	RowSpan     int       `json:"rowSpan"`
	PixelWidth  float64   `json:"pixelWidth"`
	PixelHeight float64   `json:"pixelHeight"`
	PixelLeft   float64   `json:"pixelLeft"`
	PixelTop    float64   `json:"pixelTop"`
	SizeClass   SizeClass `json:"sizeClass"`
	Manual      bool      `json:"manual"`
}

// Right returns the pixel x of the right edge.
func (p CardPlacement) Right() float64 { return p.PixelLeft + p.PixelWidth }

// Bottom returns the pixel y of the bottom edge.
func (p CardPlacement) Bottom() float64 { return p.PixelTop + p.PixelHeight }

// Card is the persisted record of a card on the dashboard.
type Card struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`  // content source type, e.g. "markdown"
	Title     string        `json:"title"`   // falls back to the source title when empty
	State     string        `json:"state"`   // source-specific JSON
	Refresh   string        `json:"refresh"` // optional cron expression
	Placement CardPlacement `json:"placement"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type CardStore interface {
	CreateCard(c *Card) error
	GetCard(id string) (*Card, error)
	ListCards() ([]Card, error)
	UpdateCard(c *Card) error
	UpdatePlacement(p CardPlacement) error
	DeleteCard(id string) error
}
