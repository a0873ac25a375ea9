// Package errors provides HTTP error handling utilities for the API.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
)

// HandlerWithError is an HTTP handler that can return an error.
// This signature allows handlers to return errors instead of manually
// writing error responses, enabling centralized error handling.
type HandlerWithError func(http.ResponseWriter, *http.Request) error

// ErrorHandler wraps a HandlerWithError and converts returned errors into
// the JSON error body. Taxonomy errors keep their code and status;
// everything else is normalized to a 500 UNKNOWN_ERROR, with the original
// message only visible in development.
//
// Usage:
//
//	r.Get("/{id}", apierrors.ErrorHandler(env, routes.getPost))
func ErrorHandler(env errors.Environment, fn HandlerWithError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			// No error returned, handler already wrote the response
			return
		}

		if !errors.IsOperationalError(err) {
			logger.Errorw("request failed with unexpected error",
				"path", r.URL.Path, "error", err.Error())
		}

		httpErr := errors.FormatHTTPError(err, env)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpErr.StatusCode)
		if encErr := json.NewEncoder(w).Encode(httpErr.Body); encErr != nil {
			logger.Errorf("failed to encode error response: %v", encErr)
		}
	}
}
