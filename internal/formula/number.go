package formula

// number.go parses and formats numbers the way partner spreadsheets write
// them. Dutch and German exports use "." as a thousands separator and "," as
// the decimal separator ("1.234,56"); others use plain decimal points. Both
// must round-trip through the engine without configuration.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// thousandsDotPattern matches digit groups joined purely by "." thousands
// separators, e.g. "1.000" or "12.345.678".
var thousandsDotPattern = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})+$`)

// ParseNumber parses numeric text, accepting European formatting.
//
// When both "." and "," appear, the text is read as European: all dots are
// removed and the remaining comma becomes the decimal point. A lone comma is
// a decimal comma. A lone dot is a decimal point, unless the digit grouping
// marks it unambiguously as a thousands separator ("1.000" is one thousand).
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	case hasDot && thousandsDotPattern.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// roundTo rounds v to the given number of decimal places, half away from
// zero.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// formatNumber renders a float without trailing zeros.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
