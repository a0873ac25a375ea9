package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
)

func TestIsOperationalError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsOperationalError(NewValidationError("x", nil)))
	assert.True(t, IsOperationalError(NewGhostAPIError("op", "x", 500)))
	assert.False(t, IsOperationalError(NewConfigurationError("x", nil)))
	assert.False(t, IsOperationalError(stderrors.New("plain")))
	assert.False(t, IsOperationalError(nil))
}

func TestFormatMCPErrorTaxonomy(t *testing.T) {
	t.Parallel()

	t.Run("taxonomy error keeps its own fields", func(t *testing.T) {
		t.Parallel()
		body := FormatMCPError(NewNotFoundError("post", "abc"), Production(), "posts_read")

		assert.Equal(t, CodeNotFound, body.Error.Code)
		assert.Equal(t, http.StatusNotFound, body.Error.StatusCode)
		assert.Equal(t, "post not found: abc", body.Error.Message)
		assert.Equal(t, "posts_read", body.Error.Tool)
		assert.NotEmpty(t, body.Error.Timestamp)
	})

	t.Run("validation error attaches field details", func(t *testing.T) {
		t.Parallel()
		fields := []FieldError{{Field: "title", Message: "required", Type: "any.required"}}
		body := FormatMCPError(NewValidationError("bad input", fields), Production(), "")

		require.Len(t, body.Error.ValidationErrors, 1)
		assert.Equal(t, "title", body.Error.ValidationErrors[0].Field)
		assert.Empty(t, body.Error.Tool)
	})

	t.Run("rate limit error attaches retry hint", func(t *testing.T) {
		t.Parallel()
		body := FormatMCPError(NewRateLimitError(30), Production(), "")
		assert.Equal(t, 30, body.Error.RetryAfter)
	})
}

func TestFormatMCPErrorUnknown(t *testing.T) {
	t.Parallel()

	err := stderrors.New("x")

	t.Run("production suppresses internals", func(t *testing.T) {
		t.Parallel()
		body := FormatMCPError(err, Production(), "")
		assert.Equal(t, CodeUnknown, body.Error.Code)
		assert.Equal(t, "An unexpected error occurred", body.Error.Message)
		assert.Equal(t, http.StatusInternalServerError, body.Error.StatusCode)
	})

	t.Run("development passes message through", func(t *testing.T) {
		t.Parallel()
		body := FormatMCPError(err, Development(), "")
		assert.Equal(t, CodeUnknown, body.Error.Code)
		assert.Equal(t, "x", body.Error.Message)
	})
}

func TestFormatHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("taxonomy error", func(t *testing.T) {
		t.Parallel()
		resp := FormatHTTPError(NewRateLimitError(10), Production())

		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, CodeRateLimit, resp.Body.Error.Code)
		assert.Equal(t, 10, resp.Body.Error.RetryAfter)
	})

	t.Run("validation uses errors field", func(t *testing.T) {
		t.Parallel()
		fields := []FieldError{{Field: "user.email", Message: "invalid", Type: "string.email"}}
		resp := FormatHTTPError(NewValidationError("bad", fields), Production())

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Len(t, resp.Body.Error.Errors, 1)
		assert.Equal(t, "user.email", resp.Body.Error.Errors[0].Field)
	})

	t.Run("unknown error production", func(t *testing.T) {
		t.Parallel()
		resp := FormatHTTPError(stderrors.New("secret detail"), Production())

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, CodeUnknown, resp.Body.Error.Code)
		assert.Equal(t, "An internal error occurred", resp.Body.Error.Message)
	})

	t.Run("unknown error development", func(t *testing.T) {
		t.Parallel()
		resp := FormatHTTPError(stderrors.New("secret detail"), Development())
		assert.Equal(t, "secret detail", resp.Body.Error.Message)
	})
}

func TestHandleLogsNonOperational(t *testing.T) { //nolint:paralleltest // swaps the logger singleton
	core, logs := observer.New(zap.ErrorLevel)
	old := logger.Get()
	logger.Set(zap.New(core).Sugar())
	defer logger.Set(old)

	// Operational errors pass through without logging.
	opErr := NewNotFoundError("post", "x")
	err := Handle(func() error { return opErr })
	assert.Equal(t, opErr, err)
	assert.Zero(t, logs.Len())

	// Unknown errors are logged before propagation.
	plain := stderrors.New("nil pointer somewhere")
	err = Handle(func() error { return plain })
	assert.Equal(t, plain, err)
	assert.Equal(t, 1, logs.Len())

	// Success is silent.
	require.NoError(t, Handle(func() error { return nil }))
	assert.Equal(t, 1, logs.Len())
}
