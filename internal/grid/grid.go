// Package grid provides the read-only cell matrix that all analysis runs
// against.
//
// A Grid is built once per source file and never mutated afterwards. Every
// downstream consumer (detection, header extraction, row slicing) reads the
// same snapshot, so row and column indices stay valid across the whole
// pipeline. Rebuilding a Grid from the raw file between detection and
// extraction would desynchronize previously computed indices.
package grid

import "strings"

// Grid is an immutable rectangular view of one sheet.
//
// Cells are addressed by (row, column), zero-based. The grid is normalized to
// a rectangle: rows shorter than the widest row read as absent cells. Absent
// cells and cells holding only whitespace are both considered empty for
// density purposes, but Present distinguishes a cell that exists in the
// source from one outside the ragged row data.
type Grid struct {
	cells    [][]string
	rowCount int
	colCount int
}

// New builds a Grid from raw rows. The input is copied; later changes to
// rows do not affect the Grid.
func New(rows [][]string) *Grid {
	g := &Grid{rowCount: len(rows)}
	g.cells = make([][]string, len(rows))
	for i, row := range rows {
		g.cells[i] = append([]string(nil), row...)
		if len(row) > g.colCount {
			g.colCount = len(row)
		}
	}
	return g
}

// RowCount returns the number of rows in the grid's bounding range.
func (g *Grid) RowCount() int { return g.rowCount }

// ColCount returns the number of columns in the grid's bounding range.
func (g *Grid) ColCount() int { return g.colCount }

// Value returns the raw cell content at (row, col), or "" when the cell is
// absent or out of bounds.
func (g *Grid) Value(row, col int) string {
	if row < 0 || row >= g.rowCount || col < 0 {
		return ""
	}
	r := g.cells[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// Present reports whether (row, col) exists in the source data, even if it
// holds an empty string. Cells beyond a ragged row's width are not present.
func (g *Grid) Present(row, col int) bool {
	if row < 0 || row >= g.rowCount || col < 0 {
		return false
	}
	return col < len(g.cells[row])
}

// Filled reports whether the cell at (row, col) holds non-blank content.
func (g *Grid) Filled(row, col int) bool {
	return strings.TrimSpace(g.Value(row, col)) != ""
}

// Row returns a copy of row r padded to the grid's column count.
// Out-of-range rows return nil.
func (g *Grid) Row(r int) []string {
	if r < 0 || r >= g.rowCount {
		return nil
	}
	row := make([]string, g.colCount)
	copy(row, g.cells[r])
	return row
}

// IsEmpty reports whether the grid holds no rows or no filled cells.
func (g *Grid) IsEmpty() bool {
	for r := 0; r < g.rowCount; r++ {
		for c := 0; c < len(g.cells[r]); c++ {
			if strings.TrimSpace(g.cells[r][c]) != "" {
				return false
			}
		}
	}
	return true
}

// CleanCell removes common spreadsheet export artifacts from a cell value:
//   - surrounding whitespace
//   - Excel formula prefix (="value")
//   - surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	// Remove leading '='
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	// Remove any surrounding quotes
	s = strings.Trim(s, `"'`)

	return s
}
