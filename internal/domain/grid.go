package domain

import (
	"encoding/json"
	"fmt"
)

// GridSpec describes the fixed coordinate system cards are placed on.
// The derived container size is computed in NewGridSpec and never set directly,
// so a GridSpec value can always be read without seeing a torn geometry.
type GridSpec struct {
	Columns           int     `json:"columns" yaml:"columns"`
	Rows              int     `json:"rows" yaml:"rows"`
	CellSize          float64 `json:"cellSize" yaml:"cell_size"`
	Gap               float64 `json:"gap" yaml:"gap"`
	PaddingVertical   float64 `json:"paddingVertical" yaml:"padding_vertical"`
	PaddingHorizontal float64 `json:"paddingHorizontal" yaml:"padding_horizontal"`

	containerWidth  float64
	containerHeight float64
}

// DefaultGridSpec matches the 1504×788 dashboard container.
func DefaultGridSpec() GridSpec {
	spec, _ := NewGridSpec(37, 19, 32, 8, 18, 16)
	return spec
}

// NewGridSpec validates the fields and computes the container size.
func NewGridSpec(columns, rows int, cellSize, gap, padV, padH float64) (GridSpec, error) {
	s := GridSpec{
		Columns:           columns,
		Rows:              rows,
		CellSize:          cellSize,
		Gap:               gap,
		PaddingVertical:   padV,
		PaddingHorizontal: padH,
	}
	return s.Normalize()
}

// Normalize validates s and returns a copy with the derived pair recomputed.
// Use it after decoding a GridSpec from JSON or YAML.
func (s GridSpec) Normalize() (GridSpec, error) {
	switch {
	case s.Columns < 1 || s.Rows < 1:
		return GridSpec{}, fmt.Errorf("%w: columns and rows must be positive (got %d×%d)", ErrInvalidGridSpec, s.Columns, s.Rows)
	case s.CellSize <= 0:
		return GridSpec{}, fmt.Errorf("%w: cell size must be positive (got %v)", ErrInvalidGridSpec, s.CellSize)
	case s.Gap < 0 || s.PaddingVertical < 0 || s.PaddingHorizontal < 0:
		return GridSpec{}, fmt.Errorf("%w: gap and padding must not be negative", ErrInvalidGridSpec)
	}
	s.containerWidth = span(s.Columns, s.CellSize, s.Gap) + 2*s.PaddingHorizontal
	s.containerHeight = span(s.Rows, s.CellSize, s.Gap) + 2*s.PaddingVertical
	return s, nil
}

// WithColumns returns a copy of s with a new column count.
func (s GridSpec) WithColumns(columns int) (GridSpec, error) {
	s.Columns = columns
	return s.Normalize()
}

// WithRows returns a copy of s with a new row count.
func (s GridSpec) WithRows(rows int) (GridSpec, error) {
	s.Rows = rows
	return s.Normalize()
}

// ContainerWidth is columns*cellSize + (columns-1)*gap + 2*paddingHorizontal.
func (s GridSpec) ContainerWidth() float64 { return s.containerWidth }

// ContainerHeight is rows*cellSize + (rows-1)*gap + 2*paddingVertical.
func (s GridSpec) ContainerHeight() float64 { return s.containerHeight }

// IsZero reports whether s was never normalized.
func (s GridSpec) IsZero() bool { return s.Columns == 0 && s.containerWidth == 0 }

// SpanWidth returns the pixel width covered by n adjacent columns.
func (s GridSpec) SpanWidth(n int) float64 { return span(n, s.CellSize, s.Gap) }

// SpanHeight returns the pixel height covered by n adjacent rows.
func (s GridSpec) SpanHeight(n int) float64 { return span(n, s.CellSize, s.Gap) }

// CellLeft returns the pixel x of a column's left edge.
func (s GridSpec) CellLeft(col int) float64 {
	return s.PaddingHorizontal + float64(col)*(s.CellSize+s.Gap)
}

// CellTop returns the pixel y of a row's top edge.
func (s GridSpec) CellTop(row int) float64 {
	return s.PaddingVertical + float64(row)*(s.CellSize+s.Gap)
}

func span(n int, cell, gap float64) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n)*cell + float64(n-1)*gap
}

type gridSpecJSON struct {
	Columns           int     `json:"columns"`
	Rows              int     `json:"rows"`
	CellSize          float64 `json:"cellSize"`
	Gap               float64 `json:"gap"`
	PaddingVertical   float64 `json:"paddingVertical"`
	PaddingHorizontal float64 `json:"paddingHorizontal"`
	ContainerWidth    float64 `json:"containerWidth"`
	ContainerHeight   float64 `json:"containerHeight"`
}

// MarshalJSON includes the derived container size for the frontend.
func (s GridSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(gridSpecJSON{
		Columns:           s.Columns,
		Rows:              s.Rows,
		CellSize:          s.CellSize,
		Gap:               s.Gap,
		PaddingVertical:   s.PaddingVertical,
		PaddingHorizontal: s.PaddingHorizontal,
		ContainerWidth:    s.containerWidth,
		ContainerHeight:   s.containerHeight,
	})
}

// UnmarshalJSON ignores any container size in the input and recomputes it.
func (s *GridSpec) UnmarshalJSON(data []byte) error {
	var raw gridSpecJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	spec, err := NewGridSpec(raw.Columns, raw.Rows, raw.CellSize, raw.Gap, raw.PaddingVertical, raw.PaddingHorizontal)
	if err != nil {
		return err
	}
	*s = spec
	return nil
}
