// Package detect locates the tabular data region inside an arbitrary grid of
// cells without prior knowledge of the layout.
//
// Partner exports rarely start at A1: title blocks, contact details and blank
// padding precede the real table, and totals rows trail it. Detection works
// from fill density alone (the fraction of non-empty cells per row and per
// column), so it needs no format-specific configuration.
//
// Detection is a pure function of the grid. It never fails with an error: when
// no plausible table exists the returned Section carries Confidence 0 and a
// Reason explaining why. Callers must check Confidence before trusting the
// indices.
package detect

import (
	"sort"
	"strings"

	"github.com/sheetbridge/sheetbridge/internal/grid"
)

// Section describes the detected table region within a grid.
//
// When a header row is found, DataStart == HeaderRow+1 and
// EndCol >= StartCol always hold. A Section is computed once per file
// content; every later consumer must slice the same grid snapshot, since
// indices do not survive re-reading the file through a different
// normalization.
type Section struct {
	// HeaderRow is the row believed to contain column names, -1 if none.
	HeaderRow int `json:"headerRow"`

	// StartCol and EndCol bound the table's column span, inclusive.
	StartCol int `json:"startCol"`
	EndCol   int `json:"endCol"`

	// DataStart and DataEnd bound the data rows, inclusive, with trailing
	// summary rows excluded. DataEnd < DataStart means the table has a
	// header but no data rows.
	DataStart int `json:"dataStart"`
	DataEnd   int `json:"dataEnd"`

	// Confidence is in [0,1]. Zero means detection failed; Reason says why.
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// HasHeader reports whether a header row was detected.
func (s Section) HasHeader() bool { return s.HeaderRow >= 0 }

// DataRowCount returns the number of detected data rows.
func (s Section) DataRowCount() int {
	if n := s.DataEnd - s.DataStart + 1; n > 0 {
		return n
	}
	return 0
}

// Params tunes detection. The defaults encode the thresholds the detection
// heuristics were calibrated with; override only for unusual sheet shapes.
type Params struct {
	// HeaderMinDensity is the minimum fill density for a header row.
	HeaderMinDensity float64

	// StartColMinDensity is the minimum fill density for the start column.
	StartColMinDensity float64

	// MaxHeaderGap is the number of consecutive empty header cells
	// tolerated inside the column span, provided content resumes after.
	MaxHeaderGap int

	// SummaryMinDensity is the minimum fill density for a trailing row to
	// be considered a totals row.
	SummaryMinDensity float64

	// SummaryKeywords are lowercased substrings identifying totals rows.
	SummaryKeywords []string
}

// DefaultParams returns the standard detection thresholds.
func DefaultParams() Params {
	return Params{
		HeaderMinDensity:   0.7,
		StartColMinDensity: 0.2,
		MaxHeaderGap:       2,
		SummaryMinDensity:  0.7,
		SummaryKeywords: []string{
			"grand total", "subtotal", "total", "totaal", "totale",
			"summe", "som", "sum", "gesamt", "eindtotaal",
		},
	}
}

// Detect finds the table region in g using the default parameters.
func Detect(g *grid.Grid) Section {
	return DetectWithParams(g, DefaultParams())
}

// DetectWithParams finds the table region in g.
//
// The algorithm:
//  1. Compute fill density for every row and column (no sampling).
//  2. Derive membership cutoffs from the densest row/column.
//  3. Pick the densest row exceeding HeaderMinDensity as the header;
//     without one, detection fails.
//  4. Pick the densest column exceeding StartColMinDensity as the start
//     column.
//  5. Scan rightward along the header row for the contiguous run of
//     non-empty cells, tolerating gaps of up to MaxHeaderGap cells.
//  6. Scan downward within the column span for the last non-empty row.
//  7. Clip trailing summary rows (dense rows whose text contains a totals
//     keyword).
//  8. Score confidence from header density, start-column density and data
//     length adequacy.
func DetectWithParams(g *grid.Grid, p Params) Section {
	none := Section{HeaderRow: -1, StartCol: -1, EndCol: -1, DataStart: -1, DataEnd: -1}

	if g == nil || g.RowCount() == 0 || g.ColCount() == 0 {
		none.Reason = "sheet is empty"
		return none
	}

	prof := Densities(g)

	if maxDensity(prof.Rows) == 0 {
		none.Reason = "no filled cells found"
		return none
	}

	headerRow := densest(prof.Rows, p.HeaderMinDensity)
	if headerRow < 0 {
		none.Reason = "no row is dense enough to be a header"
		return none
	}

	startCol := densest(prof.Cols, p.StartColMinDensity)
	if startCol < 0 {
		none.Reason = "no column is dense enough to anchor the table"
		return none
	}

	endCol := headerRunEnd(g, headerRow, startCol, p.MaxHeaderGap)

	dataStart := headerRow + 1
	dataEnd := lastFilledRow(g, headerRow, startCol, endCol)

	if summary := firstSummaryRow(g, dataStart, dataEnd, startCol, endCol, p); summary >= 0 {
		dataEnd = summary - 1
	}

	sec := Section{
		HeaderRow: headerRow,
		StartCol:  startCol,
		EndCol:    endCol,
		DataStart: dataStart,
		DataEnd:   dataEnd,
	}
	sec.Confidence = confidence(sec, prof, g.RowCount())
	return sec
}

// densest returns the index of the highest-density entry exceeding minimum,
// or -1. Ties resolve to the earliest index because the density-descending
// sort is stable.
func densest(vals []float64, minimum float64) int {
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return vals[idx[a]] > vals[idx[b]]
	})

	if len(idx) == 0 {
		return -1
	}
	best := idx[0]
	if vals[best] <= minimum {
		return -1
	}
	return best
}

// headerRunEnd scans rightward from startCol along the header row and returns
// the last column of the contiguous non-empty run. Gaps of up to maxGap
// consecutive empty cells are tolerated when content resumes after them; a
// wider gap or the sheet boundary ends the run.
func headerRunEnd(g *grid.Grid, headerRow, startCol, maxGap int) int {
	end := startCol
	gap := 0

	for col := startCol; col < g.ColCount(); col++ {
		if g.Filled(headerRow, col) {
			end = col
			gap = 0
			continue
		}
		gap++
		if gap > maxGap {
			break
		}
	}

	return end
}

// lastFilledRow returns the last row at or below headerRow with any non-empty
// cell inside the column span. Returns headerRow itself when no data rows
// exist below it.
func lastFilledRow(g *grid.Grid, headerRow, startCol, endCol int) int {
	last := headerRow
	for row := headerRow + 1; row < g.RowCount(); row++ {
		for col := startCol; col <= endCol; col++ {
			if g.Filled(row, col) {
				last = row
				break
			}
		}
	}
	return last
}

// firstSummaryRow returns the earliest row in [dataStart, dataEnd] that looks
// like a totals row: fill density within the column span above
// SummaryMinDensity and lowercased concatenated text containing one of the
// summary keywords. Returns -1 when no such row exists.
func firstSummaryRow(g *grid.Grid, dataStart, dataEnd, startCol, endCol int, p Params) int {
	span := endCol - startCol + 1
	if span <= 0 {
		return -1
	}

	for row := dataStart; row <= dataEnd; row++ {
		filled := 0
		var text strings.Builder
		for col := startCol; col <= endCol; col++ {
			v := g.Value(row, col)
			if strings.TrimSpace(v) != "" {
				filled++
				text.WriteString(v)
				text.WriteByte(' ')
			}
		}

		if float64(filled)/float64(span) <= p.SummaryMinDensity {
			continue
		}

		rowText := strings.ToLower(text.String())
		for _, kw := range p.SummaryKeywords {
			if strings.Contains(rowText, kw) {
				return row
			}
		}
	}

	return -1
}

// confidence combines header density, start-column density and a data length
// adequacy factor. Finding both a header row and a start column earns a fixed
// 1.2 boost. The result is clamped to [0,1].
func confidence(sec Section, prof Profile, totalRows int) float64 {
	headerDensity := prof.Rows[sec.HeaderRow]
	startColDensity := prof.Cols[sec.StartCol]

	// Adequacy: the table should occupy a meaningful share of the sheet.
	// The span counts the header row, so a grid whose only filled row is
	// the header still yields a usable length-1 section instead of
	// degrading to zero. A table filling at least half the rows scores
	// full marks.
	adequacy := 0.0
	if totalRows > 0 {
		span := float64(sec.DataEnd - sec.HeaderRow + 1)
		if span < 1 {
			span = 1
		}
		adequacy = span / (float64(totalRows) * 0.5)
		if adequacy > 1 {
			adequacy = 1
		}
	}

	score := headerDensity * startColDensity * adequacy * 1.2

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func maxDensity(vals []float64) float64 {
	top := 0.0
	for _, v := range vals {
		if v > top {
			top = v
		}
	}
	return top
}
