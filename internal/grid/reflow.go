package grid

import (
	"fmt"
	"math"

	"cardgrid/internal/domain"
)

// ReflowResult is the outcome of one layout pass.
type ReflowResult struct {
	Placements []domain.CardPlacement
	// Unplaced lists cards that no longer fit anywhere. They keep their
	// span and are retried on the next pass.
	Unplaced []string
}

// ApplySpec is the single entry point for changing grid geometry. The new
// spec replaces the old one in one step and every placement is reflowed.
func (m *Model) ApplySpec(spec domain.GridSpec) (ReflowResult, error) {
	spec, err := spec.Normalize()
	if err != nil {
		return ReflowResult{}, fmt.Errorf("apply spec: %w", err)
	}
	m.spec = spec
	return m.Reflow(), nil
}

// Reflow recomputes every placement against the current spec. Cards whose
// cells still fit keep them; cell-based cards are snapped to their cells and
// free-form cards are clamped to the container. Cards that no longer fit are
// moved to the first free region or, failing that, parked as unplaced.
func (m *Model) Reflow() ReflowResult {
	var evicted []pendingCard
	kept := m.order[:0:0]
	for _, id := range m.order {
		p := m.cards[id]
		if p.Column+p.ColumnSpan <= m.spec.Columns && p.Row+p.RowSpan <= m.spec.Rows {
			kept = append(kept, id)
			continue
		}
		evicted = append(evicted, pendingCard{id: id, colSpan: p.ColumnSpan, rowSpan: p.RowSpan})
		delete(m.cards, id)
	}
	m.order = kept

	for _, id := range m.order {
		p := m.cards[id]
		if p.Manual {
			m.clampManual(p)
		} else {
			m.snapToCells(p)
		}
	}

	retry := append(m.pending, evicted...)
	m.pending = nil
	for _, pc := range retry {
		if pc.colSpan > m.spec.Columns || pc.rowSpan > m.spec.Rows {
			m.pending = append(m.pending, pc)
			continue
		}
		col, row, ok := m.findFree(pc.colSpan, pc.rowSpan, pc.id)
		if !ok {
			m.pending = append(m.pending, pc)
			continue
		}
		m.put(pc.id, col, row, pc.colSpan, pc.rowSpan)
	}

	return ReflowResult{Placements: m.List(), Unplaced: m.Unplaced()}
}

// FitSpec returns spec with as many columns and rows as fit in a viewport of
// the given size, keeping cell size, gap and padding. At least one column and
// one row are always kept.
func FitSpec(spec domain.GridSpec, viewportW, viewportH float64) (domain.GridSpec, error) {
	spec.Columns = fitCount(viewportW-2*spec.PaddingHorizontal, spec.CellSize, spec.Gap)
	spec.Rows = fitCount(viewportH-2*spec.PaddingVertical, spec.CellSize, spec.Gap)
	return spec.Normalize()
}

// fitCount solves n*cell + (n-1)*gap <= avail for the largest n >= 1.
func fitCount(avail, cell, gap float64) int {
	if cell <= 0 {
		return 1
	}
	n := int(math.Floor((avail + gap) / (cell + gap)))
	if n < 1 {
		return 1
	}
	return n
}
