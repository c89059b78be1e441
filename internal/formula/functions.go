package formula

// functions.go holds the closed function catalog. Every callable name is a
// variant of the fn enum with its evaluator in call; names outside the enum
// are rejected by Check at parse time and degrade to "" at evaluation time.
// All user-facing indices are 1-based and converted internally.

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

type fn int

const (
	// Text functions
	fnLeft fn = iota
	fnRight
	fnMid
	fnFind
	fnRegex
	fnSplit
	fnTrim
	fnUpper
	fnLower
	fnReplace
	fnConcat
	fnContains
	fnStartsWith
	fnEndsWith
	fnLength
	fnIsEmpty

	// Math functions
	fnRound
	fnAbs
	fnMin
	fnMax
	fnCeiling
	fnFloor

	// Logic functions
	fnIf
	fnAnd
	fnOr
	fnNot
)

// catalog is the fixed allow-list of callable function names.
var catalog = map[string]fn{
	"LEFT":       fnLeft,
	"RIGHT":      fnRight,
	"MID":        fnMid,
	"FIND":       fnFind,
	"REGEX":      fnRegex,
	"SPLIT":      fnSplit,
	"TRIM":       fnTrim,
	"UPPER":      fnUpper,
	"LOWER":      fnLower,
	"REPLACE":    fnReplace,
	"CONCAT":     fnConcat,
	"CONTAINS":   fnContains,
	"STARTSWITH": fnStartsWith,
	"ENDSWITH":   fnEndsWith,
	"LENGTH":     fnLength,
	"ISEMPTY":    fnIsEmpty,
	"ROUND":      fnRound,
	"ABS":        fnAbs,
	"MIN":        fnMin,
	"MAX":        fnMax,
	"CEILING":    fnCeiling,
	"FLOOR":      fnFloor,
	"IF":         fnIf,
	"AND":        fnAnd,
	"OR":         fnOr,
	"NOT":        fnNot,
}

// FunctionNames returns the allow-listed function names, for validation
// messages and documentation endpoints.
func FunctionNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return names
}

// call dispatches an allow-listed function. Argument strings are evaluated
// lazily per function so IF can skip the untaken branch and AND/OR can
// treat each argument as an independent condition.
func (e *Evaluator) call(f fn, rawArgs string, depth int) any {
	if depth > MaxDepth {
		return ""
	}
	args := splitArgs(rawArgs)

	text := func(i int) string {
		if i >= len(args) {
			return ""
		}
		return toText(e.eval(args[i], depth))
	}
	num := func(i int) (float64, bool) {
		if i >= len(args) {
			return 0, false
		}
		return toNumber(e.eval(args[i], depth))
	}

	switch f {
	case fnLeft:
		if len(args) < 2 {
			return ""
		}
		n, ok := num(1)
		if !ok || n < 0 {
			return ""
		}
		r := []rune(text(0))
		if int(n) < len(r) {
			r = r[:int(n)]
		}
		return string(r)

	case fnRight:
		if len(args) < 2 {
			return ""
		}
		n, ok := num(1)
		if !ok || n < 0 {
			return ""
		}
		r := []rune(text(0))
		if int(n) < len(r) {
			r = r[len(r)-int(n):]
		}
		return string(r)

	case fnMid:
		if len(args) < 3 {
			return ""
		}
		start, ok1 := num(1)
		length, ok2 := num(2)
		if !ok1 || !ok2 || start < 1 || length < 0 {
			return ""
		}
		r := []rune(text(0))
		from := int(start) - 1
		if from >= len(r) {
			return ""
		}
		to := from + int(length)
		if to > len(r) {
			to = len(r)
		}
		return string(r[from:to])

	case fnFind:
		if len(args) < 2 {
			return ""
		}
		needle, haystack := text(0), text(1)
		idx := strings.Index(haystack, needle)
		if idx < 0 {
			return float64(0)
		}
		return float64(utf8.RuneCountInString(haystack[:idx]) + 1)

	case fnRegex:
		if len(args) < 2 {
			return ""
		}
		// Patterns arrive with doubled backslashes from the mapping's
		// serialized form; unescape before compiling.
		pattern := strings.ReplaceAll(text(1), `\\`, `\`)
		re, err := regexp.Compile(pattern)
		if err != nil {
			return ""
		}
		m := re.FindStringSubmatch(text(0))
		if m == nil {
			return ""
		}
		group := 0
		if len(m) > 1 {
			group = 1
		}
		if len(args) >= 3 {
			if g, ok := num(2); ok {
				group = int(g)
			}
		}
		if group < 0 || group >= len(m) {
			return ""
		}
		return m[group]

	case fnSplit:
		if len(args) < 3 {
			return ""
		}
		idx, ok := num(2)
		if !ok || idx < 1 {
			return ""
		}
		parts := strings.Split(text(0), text(1))
		if int(idx) > len(parts) {
			return ""
		}
		return parts[int(idx)-1]

	case fnTrim:
		return strings.TrimSpace(text(0))

	case fnUpper:
		return strings.ToUpper(text(0))

	case fnLower:
		return strings.ToLower(text(0))

	case fnReplace:
		if len(args) < 3 {
			return ""
		}
		return strings.ReplaceAll(text(0), text(1), text(2))

	case fnConcat:
		var b strings.Builder
		for i := range args {
			b.WriteString(text(i))
		}
		return b.String()

	case fnContains:
		return strings.Contains(text(0), text(1))

	case fnStartsWith:
		return strings.HasPrefix(text(0), text(1))

	case fnEndsWith:
		return strings.HasSuffix(text(0), text(1))

	case fnLength:
		return float64(utf8.RuneCountInString(text(0)))

	case fnIsEmpty:
		return strings.TrimSpace(text(0)) == ""

	case fnRound:
		n, ok := num(0)
		if !ok {
			return ""
		}
		decimals := 2.0
		if len(args) >= 2 {
			if d, dok := num(1); dok {
				decimals = d
			}
		}
		return roundTo(n, int(decimals))

	case fnAbs:
		n, ok := num(0)
		if !ok {
			return ""
		}
		return math.Abs(n)

	case fnMin, fnMax:
		if len(args) == 0 {
			return ""
		}
		best, ok := num(0)
		if !ok {
			return ""
		}
		for i := 1; i < len(args); i++ {
			n, nok := num(i)
			if !nok {
				return ""
			}
			if (f == fnMin && n < best) || (f == fnMax && n > best) {
				best = n
			}
		}
		return best

	case fnCeiling:
		n, ok := num(0)
		if !ok {
			return ""
		}
		return math.Ceil(n)

	case fnFloor:
		n, ok := num(0)
		if !ok {
			return ""
		}
		return math.Floor(n)

	case fnIf:
		if len(args) < 2 {
			return ""
		}
		if e.condition(args[0], depth) {
			return e.eval(args[1], depth)
		}
		if len(args) >= 3 {
			return e.eval(args[2], depth)
		}
		return ""

	case fnAnd:
		if len(args) == 0 {
			return false
		}
		for _, a := range args {
			if !e.condition(a, depth) {
				return false
			}
		}
		return true

	case fnOr:
		for _, a := range args {
			if e.condition(a, depth) {
				return true
			}
		}
		return false

	case fnNot:
		if len(args) == 0 {
			return ""
		}
		return !e.condition(args[0], depth)
	}

	// Defense in depth: an enum value without an evaluator is a programming
	// error, but the batch still must not abort.
	return ""
}

// Check validates an expression at parse time without evaluating it. It
// rejects any call whose name is outside the function catalog, recursing
// into arguments and parenthesized sub-expressions. Row references cannot be
// validated here since no row context exists yet.
func Check(expr string) error {
	return check(expr, 0)
}

func check(expr string, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("formula: expression nests deeper than %d levels", MaxDepth)
	}

	for _, seg := range Segment(expr) {
		if name, rawArgs, ok := parseCall(seg); ok {
			if _, known := catalog[name]; !known {
				return fmt.Errorf("formula: unknown function %q", name)
			}
			for _, arg := range splitArgs(rawArgs) {
				if err := check(arg, depth+1); err != nil {
					return err
				}
			}
			continue
		}
		if strings.HasPrefix(seg, "(") && strings.HasSuffix(seg, ")") {
			if err := check(seg[1:len(seg)-1], depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
