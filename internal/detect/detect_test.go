package detect

import (
	"fmt"
	"testing"

	"github.com/sheetbridge/sheetbridge/internal/grid"
)

// messySheet builds a realistic partner export: a title block, blank padding,
// a 10-column header at row 3, 20 data rows, and a dense totals row.
func messySheet() *grid.Grid {
	rows := [][]string{
		{"Commission statement Q1"},
		{},
		{},
	}

	header := make([]string, 10)
	for c := range header {
		header[c] = fmt.Sprintf("Header %d", c+1)
	}
	rows = append(rows, header)

	for r := 0; r < 20; r++ {
		data := make([]string, 10)
		for c := range data {
			data[c] = fmt.Sprintf("v%d-%d", r, c)
		}
		rows = append(rows, data)
	}

	totals := make([]string, 10)
	totals[0] = "Totaal"
	for c := 1; c < 10; c++ {
		totals[c] = "9999"
	}
	rows = append(rows, totals)

	return grid.New(rows)
}

// ----------------------------------------------------------------------------
// Detect Tests
// ----------------------------------------------------------------------------

func TestDetectMessySheet(t *testing.T) {
	sec := Detect(messySheet())

	if sec.HeaderRow != 3 {
		t.Errorf("HeaderRow = %d, want 3", sec.HeaderRow)
	}
	if sec.StartCol != 0 {
		t.Errorf("StartCol = %d, want 0", sec.StartCol)
	}
	if sec.EndCol != 9 {
		t.Errorf("EndCol = %d, want 9", sec.EndCol)
	}
	if sec.DataStart != 4 {
		t.Errorf("DataStart = %d, want 4", sec.DataStart)
	}
	// The dense "Totaal" row at the bottom must be excluded.
	if sec.DataEnd != 23 {
		t.Errorf("DataEnd = %d, want 23 (totals row should be clipped)", sec.DataEnd)
	}
	if sec.DataRowCount() != 20 {
		t.Errorf("DataRowCount() = %d, want 20", sec.DataRowCount())
	}
	if sec.Confidence < 0.7 {
		t.Errorf("Confidence = %f, want >= 0.7", sec.Confidence)
	}
	if sec.Reason != "" {
		t.Errorf("Reason = %q, want empty on success", sec.Reason)
	}
}

func TestDetectIdempotent(t *testing.T) {
	g := messySheet()
	first := Detect(g)
	second := Detect(g)

	if first != second {
		t.Errorf("repeated detection differs:\n first = %+v\nsecond = %+v", first, second)
	}
}

func TestDetectEmptySheet(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{"no rows", nil},
		{"only blank cells", [][]string{{"", ""}, {" ", ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec := Detect(grid.New(tt.rows))

			if sec.Confidence != 0 {
				t.Errorf("Confidence = %f, want 0", sec.Confidence)
			}
			if sec.Reason == "" {
				t.Error("Reason is empty, want an explanation")
			}
			if sec.HasHeader() {
				t.Error("HasHeader() = true, want false")
			}
		})
	}
}

func TestDetectSingleFilledRow(t *testing.T) {
	sec := Detect(grid.New([][]string{{"A", "B", "C"}}))

	if sec.HeaderRow != 0 {
		t.Errorf("HeaderRow = %d, want 0", sec.HeaderRow)
	}
	if sec.DataRowCount() != 0 {
		t.Errorf("DataRowCount() = %d, want 0", sec.DataRowCount())
	}
	// A lone header row is degraded but still usable, not a failure.
	if sec.Confidence <= 0 {
		t.Errorf("Confidence = %f, want > 0", sec.Confidence)
	}
}

func TestDetectHeaderTieResolvesToFirst(t *testing.T) {
	// All rows have identical density; the earliest must win so detection
	// is deterministic.
	sec := Detect(grid.New([][]string{
		{"a", "b"},
		{"c", "d"},
		{"e", "f"},
	}))

	if sec.HeaderRow != 0 {
		t.Errorf("HeaderRow = %d, want 0 (first of equal-density rows)", sec.HeaderRow)
	}
}

func TestDetectLeadingEmptyColumns(t *testing.T) {
	// The table is indented one column to the right.
	rows := [][]string{
		{"", "Name", "Amount", "Status", "Owner"},
		{"", "x", "1", "open", "jan"},
		{"", "y", "2", "open", "piet"},
		{"", "z", "3", "done", "kees"},
	}
	sec := Detect(grid.New(rows))

	if sec.StartCol != 1 {
		t.Errorf("StartCol = %d, want 1", sec.StartCol)
	}
	if sec.EndCol != 4 {
		t.Errorf("EndCol = %d, want 4", sec.EndCol)
	}
}

func TestDetectSparseTotalsRowKept(t *testing.T) {
	// A trailing row that mentions a totals keyword but is mostly empty is
	// regular data, not a summary row.
	rows := [][]string{
		make([]string, 10),
		make([]string, 10),
	}
	for c := 0; c < 10; c++ {
		rows[0][c] = fmt.Sprintf("H%d", c)
		rows[1][c] = "v"
	}
	sparse := make([]string, 10)
	sparse[0] = "Totaal"
	rows = append(rows, sparse)

	sec := Detect(grid.New(rows))
	if sec.DataEnd != 2 {
		t.Errorf("DataEnd = %d, want 2 (sparse totals row should stay)", sec.DataEnd)
	}
}

func TestDetectTotalsKeywords(t *testing.T) {
	labels := []string{
		"Sum", "Som", "Summe", "Totaal", "Totale",
		"Grand Total", "Subtotal", "Gesamt", "Eindtotaal",
	}

	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			rows := make([][]string, 0, 7)
			header := make([]string, 10)
			for c := range header {
				header[c] = fmt.Sprintf("H%d", c)
			}
			rows = append(rows, header)
			for r := 0; r < 5; r++ {
				data := make([]string, 10)
				for c := range data {
					data[c] = fmt.Sprintf("v%d-%d", r, c)
				}
				rows = append(rows, data)
			}
			totals := make([]string, 10)
			totals[0] = label
			for c := 1; c < 10; c++ {
				totals[c] = "9999"
			}
			rows = append(rows, totals)

			sec := Detect(grid.New(rows))
			if sec.DataEnd != 5 {
				t.Errorf("DataEnd = %d, want 5 (dense %q totals row should be clipped)", sec.DataEnd, label)
			}
			if sec.DataRowCount() != 5 {
				t.Errorf("DataRowCount() = %d, want 5", sec.DataRowCount())
			}
		})
	}
}

func TestDetectNoHeaderDenseEnough(t *testing.T) {
	// Every row is mostly empty; nothing qualifies as a header.
	rows := [][]string{
		{"a", "", "", "", ""},
		{"b", "", "", "", ""},
	}
	sec := Detect(grid.New(rows))

	if sec.Confidence != 0 {
		t.Errorf("Confidence = %f, want 0", sec.Confidence)
	}
	if sec.Reason == "" {
		t.Error("Reason is empty, want an explanation")
	}
}

// ----------------------------------------------------------------------------
// headerRunEnd Tests
// ----------------------------------------------------------------------------

func TestHeaderRunEnd(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		maxGap int
		want   int
	}{
		{"contiguous", []string{"a", "b", "c"}, 2, 2},
		{"gap within tolerance", []string{"a", "b", "", "", "c"}, 2, 4},
		{"gap too wide", []string{"a", "", "", "", "b"}, 2, 0},
		{"trailing gap ignored", []string{"a", "b", "", ""}, 2, 1},
		{"zero tolerance", []string{"a", "", "b"}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := grid.New([][]string{tt.header})
			if got := headerRunEnd(g, 0, 0, tt.maxGap); got != tt.want {
				t.Errorf("headerRunEnd(%v, maxGap=%d) = %d, want %d", tt.header, tt.maxGap, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Density Profile Tests
// ----------------------------------------------------------------------------

func TestDensities(t *testing.T) {
	g := grid.New([][]string{
		{"a", "b", ""},
		{"c", "", ""},
	})

	p := Densities(g)

	wantRows := []float64{2.0 / 3.0, 1.0 / 3.0}
	for i, want := range wantRows {
		if got := p.Rows[i]; got != want {
			t.Errorf("Rows[%d] = %f, want %f", i, got, want)
		}
	}

	wantCols := []float64{1.0, 0.5, 0.0}
	for i, want := range wantCols {
		if got := p.Cols[i]; got != want {
			t.Errorf("Cols[%d] = %f, want %f", i, got, want)
		}
	}
}

func TestTableRowColCounts(t *testing.T) {
	g := messySheet()
	p := Densities(g)

	// Header plus 20 data rows plus the totals row are fully dense; the
	// title block falls below the cutoff.
	if got := p.TableRowCount(); got != 22 {
		t.Errorf("TableRowCount() = %d, want 22", got)
	}
	if got := p.TableColCount(); got != 10 {
		t.Errorf("TableColCount() = %d, want 10", got)
	}
}
