// Package core provides the business logic for spreadsheet conversion.
//
// This package is the heart of sheetbridge, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package ties three pure components into one pipeline:
//
//   - internal/detect finds the table region inside an arbitrary grid.
//   - internal/mapping suggests a column mapping onto a target schema.
//   - internal/formula evaluates per-field expressions over each data row.
//
// # Schema Registry
//
// Target schemas are registered at init time using [Register]. Each
// [SchemaDefinition] describes the fields of one output record type:
//
//	core.Register(SchemaDefinition{
//	    Info: SchemaInfo{Key: "commission_statement", Label: "Commission statement"},
//	    FieldSpecs: []FieldSpec{
//	        {Name: "Polisnummer", Required: true, Type: FieldText},
//	        {Name: "Bruto", Type: FieldNumeric},
//	    },
//	})
//
// # Sessions
//
// [Service.Analyze] loads a file into an immutable Grid, runs detection and
// mapping suggestion, and stores the result in an in-memory session. Preview
// and Convert reuse the session's Grid snapshot, so the row and column
// indices computed during detection stay valid for the whole session. When a
// session expires, the file must be re-analyzed.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DET001: Detection produced no usable table region
//   - MAP001-MAP002: Mapping input errors
//   - FRM001-FRM002: Formula validation errors
//   - FILE001-FILE004: File errors (size, emptiness, format)
//   - SES001-SES003: Session and cancellation errors
//
// Per-row formula failures are NOT errors: conversion is best effort and a
// broken formula on one row degrades that field to an empty string while the
// rest of the batch proceeds.
package core
