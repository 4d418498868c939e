package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical error code used across tools.
type Code string

// Marker prefixes every error rendered inside report text.
const Marker = "❌"

const (
	// Validation & Input
	Validation    Code = "VALIDATION"
	CursorInvalid Code = "CURSOR_INVALID"

	// Resource & Limits
	BusyResource Code = "BUSY_RESOURCE"
	Timeout      Code = "TIMEOUT"
	FileTooLarge Code = "FILE_TOO_LARGE"

	// Loading
	LoadFailed        Code = "LOAD_FAILED"
	FileNotFound      Code = "FILE_NOT_FOUND"
	UnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	PermissionDenied  Code = "PERMISSION_DENIED"

	// Execution
	ExecutionFailed Code = "EXECUTION_FAILED"
	CodeRejected    Code = "CODE_REJECTED"
	CodeFailed      Code = "CODE_FAILED"
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
	Validation:    {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry", "Call list_analysis_types for supported analysis types"}},
	CursorInvalid: {Code: CursorInvalid, Message: "cursor is invalid for this request", Retryable: true, NextSteps: []string{"Restart from the first page", "Reuse the same file_path, analysis_type and columns as the first page"}},

	BusyResource: {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:      {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Select fewer columns or a smaller file", "Simplify custom code"}},
	FileTooLarge: {Code: FileTooLarge, Message: "file exceeds configured size", Retryable: false, NextSteps: []string{"Use a smaller file or raise EDA_MAX_FILE_BYTES"}},

	LoadFailed:        {Code: LoadFailed, Message: "failed to load data", Retryable: true, NextSteps: []string{"Verify the URL is reachable and returns the raw file", "Retry after a short delay"}},
	FileNotFound:      {Code: FileNotFound, Message: "file not found", Retryable: false, NextSteps: []string{"Check the path or use an http(s) URL"}},
	UnsupportedFormat: {Code: UnsupportedFormat, Message: "unsupported file format", Retryable: false, NextSteps: []string{"Provide CSV, TSV, plain text or .xlsx"}},
	PermissionDenied:  {Code: PermissionDenied, Message: "insufficient permissions to access path", Retryable: false, NextSteps: []string{"Choose a file inside an allowed directory"}},

	ExecutionFailed: {Code: ExecutionFailed, Message: "analysis execution failed", Retryable: true, NextSteps: []string{"Make sure python3 with pandas and numpy is installed", "Use the native tool instead"}},
	CodeRejected:    {Code: CodeRejected, Message: "custom code contains restricted operations", Retryable: false, NextSteps: []string{"Remove imports, file, process and reflection access from custom code"}},
	CodeFailed:      {Code: CodeFailed, Message: "custom code failed", Retryable: true, NextSteps: []string{"Fix the custom code and retry"}},
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}

// normalize builds a standard error string including next steps for clients that
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

// Text renders an error for inclusion in report text: "❌ CODE: message | nextSteps: ...".
func Text(code Code, message string) string {
	return Marker + " " + normalize(code, message)
}

// Result returns a plain text tool result carrying Text(code, message). Reports
// communicate failures in-band so that clients have a single display path.
func Result(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultText(Text(code, message))
}

// FromText parses a "CODE: message" string, enriches it with catalog guidance,
// and returns a tool error result.
func FromText(text string) *mcp.CallToolResult {
	t := strings.TrimSpace(text)
	if t == "" {
		return mcp.NewToolResultError(normalize(Validation, ""))
	}
	parts := strings.SplitN(t, ":", 2)
	code := Code(strings.TrimSpace(parts[0]))
	msg := ""
	if len(parts) > 1 {
		msg = strings.TrimSpace(parts[1])
	}
	return mcp.NewToolResultError(normalize(code, msg))
}

// New returns a tool error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns a tool error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}
