// Package ghost is a minimal Ghost Admin API client covering the resources
// the MCP tools expose: posts, tags, members, users and image uploads.
package ghost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghost-mcp/ghost-mcp/pkg/config"
	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
	"github.com/ghost-mcp/ghost-mcp/pkg/versions"
)

const (
	// adminBasePath is prefixed to every resource path.
	adminBasePath = "/ghost/api/admin"

	// acceptVersion pins the Admin API version the client was written
	// against.
	acceptVersion = "v5.0"

	defaultHTTPTimeout = 30 * time.Second
)

// Client talks to a single Ghost instance over the Admin API. It returns
// raw transport and status errors; callers are expected to map them into
// the application taxonomy at the operation boundary.
type Client struct {
	baseURL    string
	key        adminKey
	httpClient *http.Client
	userAgent  string
	now        func() time.Time
}

// NewClient validates the Admin API key and builds a client for the
// configured Ghost instance.
func NewClient(cfg *config.Config) (*Client, error) {
	key, err := parseAdminKey(cfg.GhostAdminAPIKey)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.GhostURL, "/"),
		key:        key,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		userAgent:  fmt.Sprintf("ghost-mcp/%s", versions.GetVersionInfo().Version),
		now:        time.Now,
	}, nil
}

// RequestError is a non-2xx Admin API response. It exposes the HTTP status
// and the upstream error messages so the taxonomy layer can classify it.
type RequestError struct {
	StatusCode int
	Messages   []string
	RequestID  string
	// RetryAfter is the Retry-After header in seconds, 0 when absent.
	RetryAfter int
}

func (e *RequestError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("ghost: %s (status %d)", e.Messages[0], e.StatusCode)
	}
	return fmt.Sprintf("ghost: request failed with status %d", e.StatusCode)
}

// HTTPStatus returns the upstream response status.
func (e *RequestError) HTTPStatus() int { return e.StatusCode }

// UpstreamMessages returns the messages parsed from the Ghost error body.
func (e *RequestError) UpstreamMessages() []string { return e.Messages }

// RetryAfterSeconds returns the upstream retry hint in seconds.
func (e *RequestError) RetryAfterSeconds() int { return e.RetryAfter }

// ghostErrorBody is the error envelope Ghost returns on failures.
type ghostErrorBody struct {
	Errors []struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Context string `json:"context"`
	} `json:"errors"`
}

// doJSON performs a JSON request against the Admin API. A nil in skips the
// request body, a nil out discards the response body. Transport failures
// are returned wrapped so errno values stay visible to errors.Is.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ghost request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(resp, req.Header.Get("X-Request-Id"))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding ghost response: %w", err)
	}
	return nil
}

// uploadMultipart posts a single file field named "file" to the given path.
func (c *Client) uploadMultipart(ctx context.Context, path, filename string, data []byte, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("building multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("building multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ghost request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(resp, req.Header.Get("X-Request-Id"))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding ghost response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + adminBasePath + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("building ghost request: %w", err)
	}

	token, err := c.key.token(c.now())
	if err != nil {
		return nil, fmt.Errorf("minting admin token: %w", err)
	}

	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Accept-Version", acceptVersion)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	return req, nil
}

func (c *Client) responseError(resp *http.Response, requestID string) error {
	reqErr := &RequestError{StatusCode: resp.StatusCode, RequestID: requestID}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			reqErr.RetryAfter = secs
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return reqErr
	}

	var body ghostErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, e := range body.Errors {
			msg := e.Message
			if e.Context != "" {
				msg = msg + ": " + e.Context
			}
			if msg != "" {
				reqErr.Messages = append(reqErr.Messages, msg)
			}
		}
	}

	logger.Debugw("ghost request failed",
		"status", resp.StatusCode,
		"request_id", requestID,
		"messages", reqErr.Messages)
	return reqErr
}
