package grid

import "testing"

// ----------------------------------------------------------------------------
// Grid Tests
// ----------------------------------------------------------------------------

func TestGridBounds(t *testing.T) {
	g := New([][]string{
		{"a", "b", "c"},
		{"d"},
		{},
	})

	if got := g.RowCount(); got != 3 {
		t.Errorf("RowCount() = %d, want 3", got)
	}
	if got := g.ColCount(); got != 3 {
		t.Errorf("ColCount() = %d, want 3", got)
	}
}

func TestGridValue(t *testing.T) {
	g := New([][]string{
		{"a", "b"},
		{"c"},
	})

	tests := []struct {
		name string
		row  int
		col  int
		want string
	}{
		{"existing cell", 0, 1, "b"},
		{"ragged row padding", 1, 1, ""},
		{"row out of range", 5, 0, ""},
		{"col out of range", 0, 9, ""},
		{"negative row", -1, 0, ""},
		{"negative col", 0, -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Value(tt.row, tt.col); got != tt.want {
				t.Errorf("Value(%d, %d) = %q, want %q", tt.row, tt.col, got, tt.want)
			}
		})
	}
}

func TestGridPresentVsFilled(t *testing.T) {
	g := New([][]string{
		{"a", "", "  "},
		{"b"},
	})

	// An empty string cell exists in the source but is not filled.
	if !g.Present(0, 1) {
		t.Error("Present(0, 1) = false, want true")
	}
	if g.Filled(0, 1) {
		t.Error("Filled(0, 1) = true, want false")
	}

	// Whitespace-only cells are not filled.
	if g.Filled(0, 2) {
		t.Error("Filled(0, 2) = true, want false")
	}

	// Cells beyond a ragged row's width are not present.
	if g.Present(1, 1) {
		t.Error("Present(1, 1) = true, want false")
	}
}

func TestGridRowPadding(t *testing.T) {
	g := New([][]string{
		{"a", "b", "c"},
		{"d"},
	})

	row := g.Row(1)
	if len(row) != 3 {
		t.Fatalf("Row(1) length = %d, want 3", len(row))
	}
	if row[0] != "d" || row[1] != "" || row[2] != "" {
		t.Errorf("Row(1) = %v, want [d  ]", row)
	}

	if g.Row(-1) != nil {
		t.Error("Row(-1) should be nil")
	}
	if g.Row(5) != nil {
		t.Error("Row(5) should be nil")
	}
}

func TestGridImmutableFromInput(t *testing.T) {
	rows := [][]string{{"a"}}
	g := New(rows)
	rows[0][0] = "changed"

	if got := g.Value(0, 0); got != "a" {
		t.Errorf("Value(0, 0) = %q after input mutation, want %q", got, "a")
	}
}

func TestGridIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want bool
	}{
		{"no rows", nil, true},
		{"only blanks", [][]string{{"", "  "}, {""}}, true},
		{"one filled cell", [][]string{{"", ""}, {"", "x"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.rows).IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain value", "hello", "hello"},
		{"surrounding whitespace", "  hello  ", "hello"},
		{"excel formula string", `="12345"`, "12345"},
		{"bare equals prefix", "=12345", "12345"},
		{"double quotes", `"hello"`, "hello"},
		{"single quotes", "'hello'", "hello"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CSV Loading Tests
// ----------------------------------------------------------------------------

func TestFromCSV(t *testing.T) {
	data := []byte("a,b,c\n1,2,3\n4,5\n")

	g, err := FromCSV(data)
	if err != nil {
		t.Fatalf("FromCSV() error = %v", err)
	}

	if g.RowCount() != 3 {
		t.Errorf("RowCount() = %d, want 3", g.RowCount())
	}
	if g.ColCount() != 3 {
		t.Errorf("ColCount() = %d, want 3", g.ColCount())
	}
	if got := g.Value(1, 2); got != "3" {
		t.Errorf("Value(1, 2) = %q, want %q", got, "3")
	}
	// Ragged third row reads as absent cells.
	if got := g.Value(2, 2); got != "" {
		t.Errorf("Value(2, 2) = %q, want empty", got)
	}
}

func TestFromCSVStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name,amount\nx,1\n")...)

	g, err := FromCSV(data)
	if err != nil {
		t.Fatalf("FromCSV() error = %v", err)
	}
	if got := g.Value(0, 0); got != "name" {
		t.Errorf("Value(0, 0) = %q, want %q (BOM not stripped)", got, "name")
	}
}

func TestFromCSVInvalidUTF8(t *testing.T) {
	// 0xFF is never valid UTF-8; it must be replaced, not abort the load.
	data := []byte("a,b\nval\xFFue,2\n")

	g, err := FromCSV(data)
	if err != nil {
		t.Fatalf("FromCSV() error = %v", err)
	}
	if got := g.Value(1, 0); got != "val�ue" {
		t.Errorf("Value(1, 0) = %q, want replacement rune inserted", got)
	}
}

func TestFromCSVLazyQuotes(t *testing.T) {
	data := []byte("a,b\nsay \"hi\" there,2\n")

	g, err := FromCSV(data)
	if err != nil {
		t.Fatalf("FromCSV() error = %v", err)
	}
	if g.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2", g.RowCount())
	}
}

func TestSanitizeUTF8ValidPassthrough(t *testing.T) {
	data := []byte("héllo wörld")
	got := sanitizeUTF8(data)
	if string(got) != string(data) {
		t.Errorf("sanitizeUTF8 changed valid input: %q", got)
	}
}
