package mcperr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation    Code = "VALIDATION"
	InvalidQuery  Code = "INVALID_QUERY"
	CursorInvalid Code = "CURSOR_INVALID"

	// Lookup
	NotFound Code = "NOT_FOUND"

	// Resource & Limits
	BusyResource Code = "BUSY_RESOURCE"
	Timeout      Code = "TIMEOUT"

	// IO
	SourceReadFailed  Code = "SOURCE_READ_FAILED"
	CorpusUnavailable Code = "CORPUS_UNAVAILABLE"
	PermissionDenied  Code = "PERMISSION_DENIED"
	Internal          Code = "INTERNAL"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:    {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry"}},
	InvalidQuery:  {Code: InvalidQuery, Message: "query cannot be evaluated", Retryable: true, NextSteps: []string{"Use at least 4 characters for name searches", "Provide a non-empty identifier or category"}},
	CursorInvalid: {Code: CursorInvalid, Message: "cursor is invalid for current query", Retryable: true, NextSteps: []string{"Restart pagination from the first page"}},

	NotFound: {Code: NotFound, Message: "no matching company in the corpus", Retryable: false, NextSteps: []string{"Check the identifier spelling", "Try resolve_company with a name"}},

	BusyResource: {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:      {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Request fewer fields or a narrower peer group"}},

	SourceReadFailed:  {Code: SourceReadFailed, Message: "a corpus workbook could not be read", Retryable: false, NextSteps: []string{"Open the workbook in Excel and re-save or repair"}},
	CorpusUnavailable: {Code: CorpusUnavailable, Message: "corpus directory is not readable", Retryable: false, NextSteps: []string{"Verify the data directory and PEERXCEL_ALLOWED_DIRS"}},
	PermissionDenied:  {Code: PermissionDenied, Message: "insufficient permissions to access path", Retryable: false, NextSteps: []string{"Choose a path inside an allowed directory"}},
	Internal:          {Code: Internal, Message: "internal error", Retryable: true, NextSteps: []string{"Retry; report the error if it persists"}},
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// FromText parses a "CODE: message" string, enriches it with catalog guidance,
// and returns an MCP tool error result.
func FromText(text string) *mcp.CallToolResult {
	t := strings.TrimSpace(text)
	if t == "" {
		return mcp.NewToolResultError(normalize(Validation, ""))
	}
	code, msg, _ := strings.Cut(t, ":")
	return mcp.NewToolResultError(normalize(Code(strings.TrimSpace(code)), strings.TrimSpace(msg)))
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}

// Classifier maps a domain error to a code; ok is false when it does not apply.
type Classifier func(err error) (Code, bool)

// FromError picks the first classifier that recognizes err; unknown errors
// become Internal. Context deadlines map to Timeout.
func FromError(err error, classifiers ...Classifier) *mcp.CallToolResult {
	if err == nil {
		return nil
	}
	for _, classify := range classifiers {
		if code, ok := classify(err); ok {
			return New(code, err.Error())
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(Timeout, "")
	}
	return New(Internal, err.Error())
}
