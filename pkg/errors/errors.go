// Package errors provides the typed error taxonomy used throughout
// ghost-mcp. Every failure that crosses a process boundary is either one of
// the kinds defined here or gets normalized to a generic representation by
// the formatting layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"runtime/debug"
	"time"
)

// Error kind names. These tag the single Error type instead of an
// inheritance hierarchy; predicates below branch on them.
const (
	NameInternal        = "InternalError"
	NameValidation      = "ValidationError"
	NameAuthentication  = "AuthenticationError"
	NameAuthorization   = "AuthorizationError"
	NameNotFound        = "NotFoundError"
	NameConflict        = "ConflictError"
	NameRateLimit       = "RateLimitError"
	NameExternalService = "ExternalServiceError"
	NameGhostAPI        = "GhostAPIError"
	NameMCPProtocol     = "MCPProtocolError"
	NameToolExecution   = "ToolExecutionError"
	NameImageProcessing = "ImageProcessingError"
	NameConfiguration   = "ConfigurationError"
)

// Stable machine-readable error codes exposed on the wire.
const (
	CodeInternal        = "INTERNAL_ERROR"
	CodeValidation      = "VALIDATION_ERROR"
	CodeAuthentication  = "AUTHENTICATION_ERROR"
	CodeAuthorization   = "AUTHORIZATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeRateLimit       = "RATE_LIMIT_EXCEEDED"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeGhostAuth       = "GHOST_AUTH_ERROR"
	CodeGhostNotFound   = "GHOST_NOT_FOUND"
	CodeGhostValidation = "GHOST_VALIDATION_ERROR"
	CodeGhostRateLimit  = "GHOST_RATE_LIMIT"
	CodeMCPProtocol     = "MCP_PROTOCOL_ERROR"
	CodeToolExecution   = "TOOL_EXECUTION_ERROR"
	CodeImageProcessing = "IMAGE_PROCESSING_ERROR"
	CodeConfiguration   = "CONFIGURATION_ERROR"
	CodeUnknown         = "UNKNOWN_ERROR"
)

// DefaultRetryAfter is the retry hint, in seconds, used when a rate limit
// error does not carry one.
const DefaultRetryAfter = 60

// FieldError describes a single invalid field inside a ValidationError.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error is the single error type of the taxonomy. The Name field
// discriminates the kind; variant-specific payloads are plain fields that
// stay zero for kinds that don't use them.
type Error struct {
	Name          string
	Message       string
	StatusCode    int
	Code          string
	IsOperational bool
	Timestamp     time.Time
	Stack         string

	// ValidationError
	Errors []FieldError

	// NotFoundError, ConflictError
	Resource   string
	Identifier string

	// RateLimitError, in seconds
	RetryAfter int

	// ExternalServiceError family
	Service       string
	OriginalError string

	// GhostAPIError, ImageProcessingError
	Operation       string
	GhostStatusCode int

	// MCPProtocolError
	Details map[string]any

	// ToolExecutionError
	ToolName string
	Input    map[string]any

	// ConfigurationError
	MissingFields []string

	cause error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Name, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// JSON serializes the error for logging or wire transport. The stack trace
// is included only in development.
func (e *Error) JSON(env Environment) map[string]any {
	out := map[string]any{
		"name":       e.Name,
		"message":    e.Message,
		"code":       e.Code,
		"statusCode": e.StatusCode,
		"timestamp":  e.Timestamp.UTC().Format(time.RFC3339),
	}
	if env.IsDevelopment {
		out["stack"] = e.Stack
	}
	return out
}

// newError constructs the taxonomy root: operational, 500/INTERNAL_ERROR,
// timestamp and stack captured at construction.
func newError(name, message string) *Error {
	return &Error{
		Name:          name,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		Code:          CodeInternal,
		IsOperational: true,
		Timestamp:     time.Now().UTC(),
		Stack:         string(debug.Stack()),
	}
}

// New creates a generic internal error with taxonomy defaults.
func New(message string) *Error {
	return newError(NameInternal, message)
}

// NewValidationError creates a 400 VALIDATION_ERROR carrying per-field
// details.
func NewValidationError(message string, fields []FieldError) *Error {
	e := newError(NameValidation, message)
	e.StatusCode = http.StatusBadRequest
	e.Code = CodeValidation
	e.Errors = fields
	return e
}

// NewAuthenticationError creates a 401 AUTHENTICATION_ERROR.
func NewAuthenticationError(message string) *Error {
	if message == "" {
		message = "Authentication failed"
	}
	e := newError(NameAuthentication, message)
	e.StatusCode = http.StatusUnauthorized
	e.Code = CodeAuthentication
	return e
}

// NewAuthorizationError creates a 403 AUTHORIZATION_ERROR.
func NewAuthorizationError(message string) *Error {
	if message == "" {
		message = "Insufficient permissions"
	}
	e := newError(NameAuthorization, message)
	e.StatusCode = http.StatusForbidden
	e.Code = CodeAuthorization
	return e
}

// NewNotFoundError creates a 404 NOT_FOUND for a resource/identifier pair.
func NewNotFoundError(resource, identifier string) *Error {
	e := newError(NameNotFound, fmt.Sprintf("%s not found: %s", resource, identifier))
	e.StatusCode = http.StatusNotFound
	e.Code = CodeNotFound
	e.Resource = resource
	e.Identifier = identifier
	return e
}

// NewConflictError creates a 409 CONFLICT.
func NewConflictError(message, resource string) *Error {
	e := newError(NameConflict, message)
	e.StatusCode = http.StatusConflict
	e.Code = CodeConflict
	e.Resource = resource
	return e
}

// NewRateLimitError creates a 429 RATE_LIMIT_EXCEEDED with a retry hint in
// seconds. A non-positive retryAfter falls back to DefaultRetryAfter.
func NewRateLimitError(retryAfter int) *Error {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}
	e := newError(NameRateLimit, "Rate limit exceeded")
	e.StatusCode = http.StatusTooManyRequests
	e.Code = CodeRateLimit
	e.RetryAfter = retryAfter
	return e
}

// NewExternalServiceError creates a 502 EXTERNAL_SERVICE_ERROR for a failure
// of the named upstream service.
func NewExternalServiceError(service, message string, cause error) *Error {
	e := newError(NameExternalService, message)
	e.StatusCode = http.StatusBadGateway
	e.Code = CodeExternalService
	e.Service = service
	e.cause = cause
	if cause != nil {
		e.OriginalError = cause.Error()
	}
	return e
}

// NewGhostAPIError creates an error for a failed Ghost Admin API call,
// normalizing the upstream HTTP status into a local status/code pair.
// Unrecognized statuses keep the ExternalServiceError defaults (502).
func NewGhostAPIError(operation, message string, ghostStatusCode int) *Error {
	e := NewExternalServiceError("ghost", message, nil)
	e.Name = NameGhostAPI
	e.Operation = operation
	e.GhostStatusCode = ghostStatusCode

	switch ghostStatusCode {
	case http.StatusUnauthorized:
		e.StatusCode = http.StatusUnauthorized
		e.Code = CodeGhostAuth
	case http.StatusNotFound:
		e.StatusCode = http.StatusNotFound
		e.Code = CodeGhostNotFound
	case http.StatusUnprocessableEntity:
		e.StatusCode = http.StatusBadRequest
		e.Code = CodeGhostValidation
	case http.StatusTooManyRequests:
		e.StatusCode = http.StatusTooManyRequests
		e.Code = CodeGhostRateLimit
	}
	return e
}

// HTTPStatuser is implemented by raw upstream errors that know the HTTP
// status of the failed response.
type HTTPStatuser interface {
	HTTPStatus() int
}

// UpstreamMessenger is implemented by raw upstream errors that carry
// error messages parsed from the response body.
type UpstreamMessenger interface {
	UpstreamMessages() []string
}

// RetryAfterHinter is implemented by raw upstream errors that carry a
// Retry-After hint in seconds.
type RetryAfterHinter interface {
	RetryAfterSeconds() int
}

// FromGhostError converts a raw Ghost client error into a GhostAPIError.
// The status comes from the response when available, the message from the
// first upstream-reported error, falling back to the Go error text.
func FromGhostError(err error, operation string) *Error {
	status := 0
	var statuser HTTPStatuser
	if errors.As(err, &statuser) {
		status = statuser.HTTPStatus()
	}

	message := ""
	var messenger UpstreamMessenger
	if errors.As(err, &messenger) {
		if msgs := messenger.UpstreamMessages(); len(msgs) > 0 {
			message = msgs[0]
		}
	}
	if message == "" && err != nil {
		message = err.Error()
	}

	e := NewGhostAPIError(operation, message, status)
	e.cause = err
	if err != nil {
		e.OriginalError = err.Error()
	}

	if status == http.StatusTooManyRequests {
		e.RetryAfter = DefaultRetryAfter
		var hinter RetryAfterHinter
		if errors.As(err, &hinter) && hinter.RetryAfterSeconds() > 0 {
			e.RetryAfter = hinter.RetryAfterSeconds()
		}
	}
	return e
}

// NewMCPProtocolError creates a 400 MCP_PROTOCOL_ERROR with free-form
// protocol details.
func NewMCPProtocolError(message string, details map[string]any) *Error {
	e := newError(NameMCPProtocol, message)
	e.StatusCode = http.StatusBadRequest
	e.Code = CodeMCPProtocol
	e.Details = details
	return e
}

// secretKeyPattern matches input keys whose values must never leave the
// process in production.
var secretKeyPattern = regexp.MustCompile(`(?i)(apiKey|password|token)`)

// NewToolExecutionError creates a 500 TOOL_EXECUTION_ERROR. The tool input
// is retained for diagnostics; outside development, keys that look like
// secrets are dropped.
func NewToolExecutionError(toolName, originalError string, input map[string]any, env Environment) *Error {
	e := newError(NameToolExecution, fmt.Sprintf("Tool execution failed: %s", toolName))
	e.Code = CodeToolExecution
	e.ToolName = toolName
	e.OriginalError = originalError
	e.Input = redactInput(input, env)
	return e
}

func redactInput(input map[string]any, env Environment) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for k, v := range input {
		if !env.IsDevelopment && secretKeyPattern.MatchString(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// NewImageProcessingError creates a 422 IMAGE_PROCESSING_ERROR for a failed
// transcode/resize operation.
func NewImageProcessingError(operation string, cause error) *Error {
	e := newError(NameImageProcessing, fmt.Sprintf("Image processing failed: %s", operation))
	e.StatusCode = http.StatusUnprocessableEntity
	e.Code = CodeImageProcessing
	e.Operation = operation
	e.cause = cause
	if cause != nil {
		e.OriginalError = cause.Error()
	}
	return e
}

// NewConfigurationError creates a non-operational 500 CONFIGURATION_ERROR.
// Configuration defects are programmer/deployment errors, not runtime
// conditions callers are expected to handle.
func NewConfigurationError(message string, missingFields []string) *Error {
	e := newError(NameConfiguration, message)
	e.Code = CodeConfiguration
	e.IsOperational = false
	e.MissingFields = missingFields
	return e
}

// As extracts a taxonomy *Error from err, following wrap chains.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// IsValidation checks if the error is a ValidationError.
func IsValidation(err error) bool {
	e, ok := As(err)
	return ok && e.Name == NameValidation
}

// IsAuthentication checks if the error is an AuthenticationError.
func IsAuthentication(err error) bool {
	e, ok := As(err)
	return ok && e.Name == NameAuthentication
}

// IsAuthorization checks if the error is an AuthorizationError.
func IsAuthorization(err error) bool {
	e, ok := As(err)
	return ok && e.Name == NameAuthorization
}

// IsNotFound checks if the error is a NotFoundError.
func IsNotFound(err error) bool {
	e, ok := As(err)
	return ok && e.Name == NameNotFound
}

// IsConflict checks if the error is a ConflictError.
func IsConflict(err error) bool {
	e, ok := As(err)
	return ok && e.Name == NameConflict
}

// IsRateLimit checks if the error is a RateLimitError.
func IsRateLimit(err error) bool {
	e, ok := As(err)
	return ok && e.Name == NameRateLimit
}

// IsExternalService checks if the error belongs to the external-service
// family. GhostAPIError is part of the family, so this matches it regardless
// of the upstream status it was mapped from; callers rely on every
// GhostAPIError being treated as an external-service failure.
func IsExternalService(err error) bool {
	e, ok := As(err)
	return ok && (e.Name == NameExternalService || e.Name == NameGhostAPI)
}

// IsGhostAPI checks if the error is a GhostAPIError.
func IsGhostAPI(err error) bool {
	e, ok := As(err)
	return ok && e.Name == NameGhostAPI
}

// IsConfiguration checks if the error is a ConfigurationError.
func IsConfiguration(err error) bool {
	e, ok := As(err)
	return ok && e.Name == NameConfiguration
}
