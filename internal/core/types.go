package core

import (
	"fmt"
	"strings"
)

// FieldType represents the expected data type for a target field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
	FieldDate
	FieldBool
)

// FieldSpec defines one field of a target schema.
type FieldSpec struct {
	Name     string    // Target field name
	Type     FieldType // Expected data type
	Required bool      // Field must be mapped before conversion
}

// SchemaInfo contains display information about a target schema.
type SchemaInfo struct {
	Key    string   `json:"key"`    // Unique identifier: "commission_statement"
	Label  string   `json:"label"`  // Display name: "Commission statement"
	Fields []string `json:"fields"` // Target field names, in output order
}

// SchemaDefinition contains everything needed to convert into a target schema.
type SchemaDefinition struct {
	Info       SchemaInfo
	FieldSpecs []FieldSpec
}

// SourceKind tags the three ways a target field obtains its value.
type SourceKind int

const (
	// SourceColumn copies the value of a source column.
	SourceColumn SourceKind = iota
	// SourceFixed uses a fixed literal for every row.
	SourceFixed
	// SourceFormula evaluates an expression per row.
	SourceFormula
)

// Serialization prefixes for ColumnMapping values. A bare value is a source
// column name; these prefixes tag literals and expressions. This three-way
// tag is the only serialization contract callers must honor.
const (
	fixedPrefix   = "FIXED:"
	formulaPrefix = "CALC:"
)

// FieldSource is the parsed form of one ColumnMapping entry.
type FieldSource struct {
	Kind  SourceKind
	Value string // column name, literal value, or expression text
}

// ParseFieldSource decodes the persisted form of a mapping entry.
func ParseFieldSource(s string) FieldSource {
	switch {
	case strings.HasPrefix(s, fixedPrefix):
		return FieldSource{Kind: SourceFixed, Value: s[len(fixedPrefix):]}
	case strings.HasPrefix(s, formulaPrefix):
		return FieldSource{Kind: SourceFormula, Value: s[len(formulaPrefix):]}
	default:
		return FieldSource{Kind: SourceColumn, Value: s}
	}
}

// String encodes the source back to its persisted form.
func (fs FieldSource) String() string {
	switch fs.Kind {
	case SourceFixed:
		return fixedPrefix + fs.Value
	case SourceFormula:
		return formulaPrefix + fs.Value
	default:
		return fs.Value
	}
}

// ColumnMapping maps target field names to their serialized source
// specification: a bare source column name, "FIXED:<value>", or
// "CALC:<expression>". Keys are unique target field names; ordering carries
// no significance.
type ColumnMapping map[string]string

// Record is one converted output row, keyed by target field name.
type Record map[string]string

// FieldIssue describes a problem with one mapping entry.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i FieldIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}
