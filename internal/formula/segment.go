package formula

// segment.go splits an expression into top-level segments: operands and
// operators in textual order. Quoted text and complete parenthesized groups
// stay atomic, so a function call or sub-expression is handed to the
// evaluator as a single unit regardless of the operators inside it.

import "strings"

// operator runes recognized outside quotes and brackets.
func isOperatorRune(r rune) bool {
	switch r {
	case '+', '-', '×', '÷', '/', '*', '>', '<', '=', '!', '≠':
		return true
	}
	return false
}

// isComparisonOp reports whether tok is a comparison operator token.
func isComparisonOp(tok string) bool {
	switch tok {
	case ">", "<", ">=", "<=", "=", "==", "!=", "≠":
		return true
	}
	return false
}

// Segment scans expr left to right and returns its top-level segments.
//
// The scanner tracks quote state (single or double quotes, no nesting;
// characters inside pass through literally) and parenthesis depth. When the
// depth returns to zero outside quotes, the accumulated text including the
// group is emitted as one segment. Outside quotes and brackets, an operator
// rune ends the current segment and is emitted as its own token; the
// two-character operators >=, <=, == and != are recognized by lookahead.
func Segment(expr string) []string {
	var segments []string
	var current strings.Builder

	emit := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			segments = append(segments, s)
		}
		current.Reset()
	}

	runes := []rune(expr)
	var quote rune
	depth := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}

		switch {
		case r == '\'' || r == '"':
			quote = r
			current.WriteRune(r)

		case r == '(':
			depth++
			current.WriteRune(r)

		case r == ')':
			depth--
			current.WriteRune(r)
			if depth == 0 {
				emit()
			}

		case depth > 0:
			current.WriteRune(r)

		case isOperatorRune(r):
			emit()
			// Two-character operators: >=, <=, ==, !=
			if (r == '>' || r == '<' || r == '=' || r == '!') &&
				i+1 < len(runes) && runes[i+1] == '=' {
				segments = append(segments, string(r)+"=")
				i++
			} else {
				segments = append(segments, string(r))
			}

		default:
			current.WriteRune(r)
		}
	}

	emit()
	return segments
}

// splitArgs splits a function argument list on commas or semicolons at the
// top level, respecting nested parentheses and quoted strings.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var args []string
	var current strings.Builder
	var quote rune
	depth := 0

	for _, r := range s {
		if quote != 0 {
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}

		switch {
		case r == '\'' || r == '"':
			quote = r
			current.WriteRune(r)
		case r == '(':
			depth++
			current.WriteRune(r)
		case r == ')':
			depth--
			current.WriteRune(r)
		case (r == ',' || r == ';') && depth == 0:
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	args = append(args, strings.TrimSpace(current.String()))
	return args
}
