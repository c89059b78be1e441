// Package core provides the business logic for spreadsheet conversion.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When users encounter errors, they can quote the error code to
// support staff for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Detection (DET001-DET099)
//
//	DET001 - Low confidence: No table region could be detected
//	         Action: Check that the sheet contains a header row and data
//	         Patterns: "no table detected"
//
// # Mapping (MAP001-MAP099)
//
//	MAP001 - Empty input: Source or target column list is empty
//	         Action: Analyze a file with a detectable header row first
//	         Patterns: "must be non-empty"
//
//	MAP002 - Unknown schema: The target schema is not registered
//	         Action: Pick one of the schemas from the schema list
//	         Patterns: "unknown schema"
//
// # Formulas (FRM001-FRM099)
//
//	FRM001 - Unknown function: A formula calls a function outside the
//	         allow-list
//	         Action: Check the formula against the supported function list
//	         Patterns: "unknown function"
//
//	FRM002 - Formula too deep: Expression nesting exceeds the limit
//	         Action: Simplify the formula
//	         Patterns: "nests deeper"
//
// # Files (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the configured size limit
//	          Action: Split the file into smaller chunks
//	          Patterns: "file too large"
//
//	FILE002 - Empty file: The uploaded file has no content
//	          Action: Upload a file with data rows
//	          Patterns: "empty file"
//
//	FILE003 - Unsupported type: The file is not xlsx or csv
//	          Action: Export the data as .xlsx or .csv and retry
//	          Patterns: "unsupported file type"
//
//	FILE004 - Invalid spreadsheet: The file could not be parsed
//	          Action: Re-export the file and try again
//	          Patterns: "open xlsx", "parse csv"
//
//	FILE005 - Malformed upload: The request body is not valid multipart
//	          form data
//	          Action: Retry the upload; check the client if it persists
//	          Patterns: "malformed multipart"
//
// # Sessions (SES001-SES099)
//
//	SES001 - Session expired: Analysis session not found
//	         Action: Re-analyze the file and retry
//	         Patterns: "session not found"
//
//	SES002 - System busy: Too many analyses in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent analyses"
//
//	SES003 - Request cancelled or timed out
//	         Patterns: "context canceled", "context deadline exceeded"
//
// # Default (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. The first matching pattern wins, so more specific patterns come
// before general ones.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Detection and mapping (DET001, MAP001-MAP002)
	// =========================================================================
	{
		pattern: "no table detected",
		msg: UserMessage{
			Message: "No table region could be detected in this sheet",
			Action:  "Check that the sheet contains a header row followed by data rows",
			Code:    "DET001",
		},
	},
	{
		pattern: "must be non-empty",
		msg: UserMessage{
			Message: "There are no column names to match",
			Action:  "Analyze a file with a detectable header row first",
			Code:    "MAP001",
		},
	},
	{
		pattern: "unknown schema",
		msg: UserMessage{
			Message: "The target schema is not registered",
			Action:  "Pick one of the schemas from the schema list",
			Code:    "MAP002",
		},
	},

	// =========================================================================
	// Formulas (FRM001-FRM002)
	// =========================================================================
	{
		pattern: "unknown function",
		msg: UserMessage{
			Message: "A formula calls a function that does not exist",
			Action:  "Check the formula against the supported function list",
			Code:    "FRM001",
		},
	},
	{
		pattern: "nests deeper",
		msg: UserMessage{
			Message: "A formula is nested too deeply",
			Action:  "Simplify the formula",
			Code:    "FRM002",
		},
	},

	// =========================================================================
	// Files (FILE001-FILE004)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The file exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks and upload separately",
			Code:    "FILE001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with data rows",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Export the data as .xlsx or .csv and retry",
			Code:    "FILE003",
		},
	},
	{
		pattern: "open xlsx",
		msg: UserMessage{
			Message: "The file is not a valid Excel workbook",
			Action:  "Re-export the file from the source system and try again",
			Code:    "FILE004",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "The file is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent quoting",
			Code:    "FILE004",
		},
	},
	{
		pattern: "malformed multipart",
		msg: UserMessage{
			Message: "The upload request could not be read",
			Action:  "Retry the upload; if it keeps failing, check the client",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Sessions and cancellation (SES001-SES003)
	// =========================================================================
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "The analysis session has expired",
			Action:  "Re-analyze the file and retry",
			Code:    "SES001",
		},
	},
	{
		pattern: "too many concurrent analyses",
		msg: UserMessage{
			Message: "The system is busy with other analyses",
			Action:  "Please wait a moment and try again",
			Code:    "SES002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "SES003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "SES003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches the known error patterns (case-insensitive) and returns the
// first match, or the ERR000 fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
