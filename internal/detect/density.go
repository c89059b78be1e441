package detect

import "github.com/sheetbridge/sheetbridge/internal/grid"

// Profile holds per-row and per-column fill densities for a grid, plus the
// cutoffs that decide whether a row or column counts as part of the table.
//
// A Profile is ephemeral: it is recomputed for every analysis call and never
// persisted.
type Profile struct {
	// Rows[i] is filledCount/totalCount for row i over the grid's full
	// column bounds.
	Rows []float64

	// Cols[j] is filledCount/totalCount for column j over the grid's full
	// row bounds.
	Cols []float64

	// RowCutoff and ColCutoff are the table-membership thresholds derived
	// from the densest row and column: max(floor, top*0.7), with floors of
	// 0.5 for rows and 0.3 for columns.
	RowCutoff float64
	ColCutoff float64
}

// Densities computes the fill density profile over the grid's full bounds.
// Every row and every column is measured; there is no sampling.
func Densities(g *grid.Grid) Profile {
	rows := g.RowCount()
	cols := g.ColCount()

	p := Profile{
		Rows: make([]float64, rows),
		Cols: make([]float64, cols),
	}
	if rows == 0 || cols == 0 {
		return p
	}

	colFilled := make([]int, cols)
	for r := 0; r < rows; r++ {
		rowFilled := 0
		for c := 0; c < cols; c++ {
			if g.Filled(r, c) {
				rowFilled++
				colFilled[c]++
			}
		}
		p.Rows[r] = float64(rowFilled) / float64(cols)
	}
	for c := 0; c < cols; c++ {
		p.Cols[c] = float64(colFilled[c]) / float64(rows)
	}

	p.RowCutoff = max(0.5, maxDensity(p.Rows)*0.7)
	p.ColCutoff = max(0.3, maxDensity(p.Cols)*0.7)

	return p
}

// TableRowCount returns how many rows meet the row membership cutoff. It is
// a coarse size estimate used for diagnostics, not for boundary decisions.
func (p Profile) TableRowCount() int {
	n := 0
	for _, d := range p.Rows {
		if d >= p.RowCutoff {
			n++
		}
	}
	return n
}

// TableColCount mirrors TableRowCount for columns.
func (p Profile) TableColCount() int {
	n := 0
	for _, d := range p.Cols {
		if d >= p.ColCutoff {
			n++
		}
	}
	return n
}
