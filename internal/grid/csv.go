package grid

// csv.go loads CSV exports into a Grid.
//
// Partner CSV exports are messy: BOMs, broken UTF-8 from legacy encodings,
// ragged rows, and unbalanced quotes all occur in real files. The reader is
// configured to accept all of them and the bytes are sanitized up front so a
// single bad cell cannot abort loading.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"
)

// utf8BOM is the byte order mark some exports prepend to UTF-8 files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FromCSV parses raw CSV bytes into a Grid.
func FromCSV(data []byte) (*Grid, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	return New(records), nil
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the replacement rune.
// Valid input is returned unchanged without copying.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
