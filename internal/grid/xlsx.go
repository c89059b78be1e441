package grid

// xlsx.go loads Excel workbooks into a Grid using excelize. Only the rendered
// cell values matter here; formulas, styles and merged-cell metadata are
// resolved by excelize before we see them.

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// FromXLSX reads one sheet of an xlsx workbook into a Grid.
// An empty sheetName selects the workbook's first sheet.
func FromXLSX(data []byte, sheetName string) (*Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return New(nil), nil
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}

	return New(rows), nil
}

// SheetNames lists the sheets of an xlsx workbook in workbook order.
func SheetNames(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}
