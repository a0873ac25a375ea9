package errors

import (
	"net/http"
	"time"

	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
)

// Messages returned for unrecognized errors outside development. Internals
// never leave the process boundary in production.
const (
	mcpUnknownMessage  = "An unexpected error occurred"
	httpUnknownMessage = "An internal error occurred"
)

// IsOperationalError reports whether err is a taxonomy error representing an
// anticipated runtime condition. Unrecognized errors and configuration
// defects are not operational.
func IsOperationalError(err error) bool {
	e, ok := As(err)
	return ok && e.IsOperational
}

// MCPErrorDetail is the error payload inside an MCP tool error envelope.
type MCPErrorDetail struct {
	Code             string       `json:"code"`
	Message          string       `json:"message"`
	StatusCode       int          `json:"statusCode"`
	Tool             string       `json:"tool,omitempty"`
	ValidationErrors []FieldError `json:"validationErrors,omitempty"`
	RetryAfter       int          `json:"retryAfter,omitempty"`
	Timestamp        string       `json:"timestamp"`
}

// MCPErrorBody is the envelope returned to protocol-tool callers. The tool
// layer serializes it as text content with isError set.
type MCPErrorBody struct {
	Error MCPErrorDetail `json:"error"`
}

// FormatMCPError converts any error into the MCP tool error envelope.
// Taxonomy errors keep their own code, status and message; anything else is
// reported as UNKNOWN_ERROR, with the original message passed through only
// in development.
func FormatMCPError(err error, env Environment, toolName string) MCPErrorBody {
	detail := MCPErrorDetail{
		Code:       CodeUnknown,
		Message:    mcpUnknownMessage,
		StatusCode: http.StatusInternalServerError,
		Tool:       toolName,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	if e, ok := As(err); ok {
		detail.Code = e.Code
		detail.Message = e.Message
		detail.StatusCode = e.StatusCode
		detail.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
		if e.Name == NameValidation {
			detail.ValidationErrors = e.Errors
		}
		if e.Name == NameRateLimit {
			detail.RetryAfter = e.RetryAfter
		}
	} else if env.IsDevelopment && err != nil {
		detail.Message = err.Error()
	}

	return MCPErrorBody{Error: detail}
}

// HTTPErrorDetail is the error payload inside an HTTP error body.
type HTTPErrorDetail struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	StatusCode int          `json:"statusCode"`
	Errors     []FieldError `json:"errors,omitempty"`
	RetryAfter int          `json:"retryAfter,omitempty"`
	Timestamp  string       `json:"timestamp"`
}

// HTTPErrorBody is the JSON body written to HTTP clients.
type HTTPErrorBody struct {
	Error HTTPErrorDetail `json:"error"`
}

// HTTPError pairs the response status code with the body to write. The
// route layer sets the status and serializes the body as JSON.
type HTTPError struct {
	StatusCode int
	Body       HTTPErrorBody
}

// FormatHTTPError converts any error into an HTTP status code and JSON
// body, with the same classification rules as FormatMCPError.
func FormatHTTPError(err error, env Environment) HTTPError {
	detail := HTTPErrorDetail{
		Code:       CodeUnknown,
		Message:    httpUnknownMessage,
		StatusCode: http.StatusInternalServerError,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	if e, ok := As(err); ok {
		detail.Code = e.Code
		detail.Message = e.Message
		detail.StatusCode = e.StatusCode
		detail.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
		if e.Name == NameValidation {
			detail.Errors = e.Errors
		}
		if e.Name == NameRateLimit {
			detail.RetryAfter = e.RetryAfter
		}
	} else if env.IsDevelopment && err != nil {
		detail.Message = err.Error()
	}

	return HTTPError{
		StatusCode: detail.StatusCode,
		Body:       HTTPErrorBody{Error: detail},
	}
}

// Handle runs fn and returns its error unchanged. Operational errors pass
// through silently; non-operational and unrecognized errors are logged here
// so they are observed exactly once before the boundary normalizes them.
func Handle(fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if !IsOperationalError(err) {
		logger.Errorw("unexpected error", "error", err.Error())
	}
	return err
}
