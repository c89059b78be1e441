// Package formula evaluates the per-field expression language that derives
// output values from source columns: string manipulation, arithmetic and
// conditionals, without custom code per source format.
//
// An Evaluator is constructed per data row; the row context is an explicit
// argument, never ambient state, so evaluation is reentrant and safe to run
// concurrently across rows.
//
// The engine never returns an error to the caller. Every internal failure,
// from a malformed regex to arithmetic on non-numeric text, is caught at the
// smallest possible scope and degrades to an empty string.
// One broken formula on one row must not abort a batch of thousands.
package formula

import (
	"regexp"
	"strings"
)

// MaxDepth bounds recursive evaluation of nested calls, conditions and
// parenthesized sub-expressions. Expressions deeper than this degrade to "".
const MaxDepth = 64

// callPattern matches a whole segment shaped like NAME(args). The function
// name must span the segment start; partial text matches never count as
// calls.
var callPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)\((.*)\)$`)

// Evaluator evaluates expressions against one data row.
type Evaluator struct {
	row map[string]string
}

// NewEvaluator returns an Evaluator bound to the given row. The map is used
// as-is and must not be mutated during evaluation.
func NewEvaluator(row map[string]string) *Evaluator {
	return &Evaluator{row: row}
}

// Evaluate evaluates expr to a scalar: string, float64 or bool.
// Failures degrade to "" rather than returning an error.
func (e *Evaluator) Evaluate(expr string) (result any) {
	defer func() {
		if r := recover(); r != nil {
			result = ""
		}
	}()
	return e.eval(expr, 0)
}

// EvaluateText evaluates expr and renders the result as a string.
func (e *Evaluator) EvaluateText(expr string) string {
	return toText(e.Evaluate(expr))
}

func (e *Evaluator) eval(expr string, depth int) any {
	if depth > MaxDepth {
		return ""
	}

	segs := Segment(expr)
	switch len(segs) {
	case 0:
		return ""
	case 1:
		return e.resolve(segs[0], depth)
	default:
		return e.fold(segs, depth)
	}
}

// fold evaluates a multi-segment expression left to right with no operator
// precedence: each operand is resolved and folded into a running accumulator
// strictly in textual order. A comparison operator short-circuits: the
// accumulator is compared against the folded remainder and the boolean is
// returned immediately. A pure-math fold result is rounded to 4 decimal
// places.
func (e *Evaluator) fold(segs []string, depth int) any {
	// A leading + or - acts on an implicit zero.
	if isOperatorRune([]rune(segs[0])[0]) && len(segs[0]) <= 2 {
		segs = append([]string{"0"}, segs...)
	}

	left := e.resolve(segs[0], depth)

	for i := 1; i < len(segs); i += 2 {
		op := segs[i]
		if i+1 >= len(segs) {
			return "" // trailing operator, missing operand
		}

		if isComparisonOp(op) {
			var right any
			if rest := segs[i+1:]; len(rest) == 1 {
				right = e.resolve(rest[0], depth)
			} else {
				right = e.fold(rest, depth)
			}
			return compare(op, left, right)
		}

		ln, lok := toNumber(left)
		rn, rok := toNumber(e.resolve(segs[i+1], depth))
		if !lok || !rok {
			return ""
		}

		switch op {
		case "+":
			left = ln + rn
		case "-":
			left = ln - rn
		case "×", "*":
			left = ln * rn
		case "÷", "/":
			if rn == 0 {
				return ""
			}
			left = ln / rn
		default:
			return ""
		}
	}

	if f, ok := left.(float64); ok {
		return roundTo(f, 4)
	}
	return left
}

// resolve evaluates one segment. Resolution order: allow-listed function
// call, parenthesized sub-expression, quoted literal, exact row key, numeric
// literal, then the literal text itself.
func (e *Evaluator) resolve(seg string, depth int) any {
	if name, args, ok := parseCall(seg); ok {
		f, known := catalog[name]
		if !known {
			// A name outside the catalog is not treated as a parse
			// error at evaluation time; it degrades like any other
			// formula failure.
			return ""
		}
		return e.call(f, args, depth+1)
	}

	if strings.HasPrefix(seg, "(") && strings.HasSuffix(seg, ")") {
		return e.eval(seg[1:len(seg)-1], depth+1)
	}

	if unquoted, ok := unquote(seg); ok {
		return unquoted
	}

	if v, ok := e.row[seg]; ok {
		return v
	}

	if n, ok := ParseNumber(seg); ok {
		return n
	}

	return seg
}

// parseCall matches NAME(args) call syntax against a whole segment.
// The name is uppercased for catalog lookup.
func parseCall(seg string) (name, args string, ok bool) {
	m := callPattern.FindStringSubmatch(seg)
	if m == nil {
		return "", "", false
	}
	return strings.ToUpper(m[1]), m[2], true
}

// unquote strips one pair of matching surrounding quotes.
func unquote(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// compare applies a comparison operator to two resolved values. When both
// sides parse as numbers the comparison is numeric, otherwise textual.
func compare(op string, left, right any) bool {
	ln, lok := toNumber(left)
	rn, rok := toNumber(right)

	if lok && rok {
		switch op {
		case "=", "==":
			return ln == rn
		case "!=", "≠":
			return ln != rn
		case ">":
			return ln > rn
		case "<":
			return ln < rn
		case ">=":
			return ln >= rn
		case "<=":
			return ln <= rn
		}
		return false
	}

	ls, rs := toText(left), toText(right)
	switch op {
	case "=", "==":
		return ls == rs
	case "!=", "≠":
		return ls != rs
	case ">":
		return ls > rs
	case "<":
		return ls < rs
	case ">=":
		return ls >= rs
	case "<=":
		return ls <= rs
	}
	return false
}

// condition evaluates an argument of IF, AND, OR or NOT as a boolean.
//
// Comparison conditions are written with spaced operators and split on the
// literal substrings " = ", " ≠ ", " > " and " < ". Nested function calls
// recurse; anything else resolves to plain truthiness, where an empty
// string, "0", numeric zero and nil are false.
func (e *Evaluator) condition(arg string, depth int) bool {
	if depth > MaxDepth {
		return false
	}

	for _, c := range []struct{ sep, op string }{
		{" = ", "="},
		{" ≠ ", "≠"},
		{" > ", ">"},
		{" < ", "<"},
	} {
		if idx := indexOutsideQuotes(arg, c.sep); idx >= 0 {
			left := e.eval(arg[:idx], depth+1)
			right := e.eval(arg[idx+len(c.sep):], depth+1)
			return compare(c.op, left, right)
		}
	}

	// Anything else, nested calls included, is a full sub-expression
	// whose result is taken for its truthiness.
	return truthy(e.eval(arg, depth+1))
}

// indexOutsideQuotes returns the index of the first occurrence of sep that
// lies outside quoted text and outside parentheses, or -1. Operators inside a
// nested call belong to that call, not to the enclosing condition.
func indexOutsideQuotes(s, sep string) int {
	var quote byte
	depth := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			continue
		case '(':
			depth++
			continue
		case ')':
			depth--
			continue
		}
		if depth == 0 && s[i:i+len(sep)] == sep {
			return i
		}
	}
	return -1
}

// truthy converts a scalar to a boolean: nil, empty strings, "0" and
// numeric zero are false; everything else is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return false
		}
		if n, ok := ParseNumber(s); ok {
			return n != 0
		}
		return true
	default:
		return true
	}
}

// toNumber converts a resolved value to a float64 if possible.
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		return ParseNumber(t)
	default:
		return 0, false
	}
}

// toText renders a resolved value as a string.
func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatNumber(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
