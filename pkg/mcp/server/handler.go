package server

import (
	"context"
	"encoding/json"
	stderrors "errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
	"github.com/ghost-mcp/ghost-mcp/pkg/ghost"
	"github.com/ghost-mcp/ghost-mcp/pkg/images"
	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
	"github.com/ghost-mcp/ghost-mcp/pkg/telemetry"
)

// GhostService is the slice of the resilient Ghost service the tool
// handlers consume.
type GhostService interface {
	BrowsePosts(ctx context.Context, opts ghost.BrowseOptions) ([]ghost.Post, error)
	ReadPost(ctx context.Context, id string) (*ghost.Post, error)
	SearchPosts(ctx context.Context, query string, opts ghost.BrowseOptions) ([]ghost.Post, error)
	CreatePost(ctx context.Context, post *ghost.Post) (*ghost.Post, error)
	UpdatePost(ctx context.Context, id string, post *ghost.Post) (*ghost.Post, error)
	DeletePost(ctx context.Context, id string) error
	BrowseTags(ctx context.Context, opts ghost.BrowseOptions) ([]ghost.Tag, error)
	CreateTag(ctx context.Context, tag *ghost.Tag) (*ghost.Tag, error)
	BrowseMembers(ctx context.Context, opts ghost.BrowseOptions) ([]ghost.Member, error)
	BrowseUsers(ctx context.Context, opts ghost.BrowseOptions) ([]ghost.User, error)
	ReadUser(ctx context.Context, id string) (*ghost.User, error)
	UploadImage(ctx context.Context, filename string, data []byte) (*ghost.Image, error)
}

// toolHandler dispatches MCP tool requests to the Ghost service.
type toolHandler struct {
	svc       GhostService
	processor *images.Processor
	metrics   *telemetry.Metrics
	env       errors.Environment
}

// fail builds the error result for a tool call. The taxonomy envelope is
// serialized into the error text so protocol clients get structured codes.
func (h *toolHandler) fail(toolName string, err error) *mcp.CallToolResult {
	body := errors.FormatMCPError(err, h.env, toolName)
	h.metrics.RecordToolError(toolName, body.Error.Code)

	if !errors.IsOperationalError(err) {
		logger.Errorw("tool call failed with unexpected error",
			"tool", toolName, "error", err.Error())
	}

	buf, merr := json.Marshal(body)
	if merr != nil {
		return mcp.NewToolResultError(body.Error.Message)
	}
	return mcp.NewToolResultError(string(buf))
}

// bind decodes the request arguments into args. A decode failure is an
// MCP protocol error, not a Ghost failure.
func (h *toolHandler) bind(toolName string, request mcp.CallToolRequest, args any) error {
	if err := request.BindArguments(args); err != nil {
		return errors.NewMCPProtocolError("failed to parse tool arguments",
			map[string]any{"tool": toolName, "reason": err.Error()})
	}
	return nil
}

// validated converts an ozzo validation result into a taxonomy error.
func validated(err error, toolName string) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		return errors.FromOzzoErrors(verrs, toolName)
	}
	return err
}

// browseOptions maps the shared paging arguments onto client options.
type browseArgs struct {
	Limit  int    `json:"limit,omitempty"`
	Page   int    `json:"page,omitempty"`
	Filter string `json:"filter,omitempty"`
	Order  string `json:"order,omitempty"`
}

func (a browseArgs) validate(toolName string) error {
	return validated(validation.ValidateStruct(&a,
		validation.Field(&a.Limit, validation.Min(0), validation.Max(100)),
		validation.Field(&a.Page, validation.Min(0)),
	), toolName)
}

func (a browseArgs) options() ghost.BrowseOptions {
	return ghost.BrowseOptions{
		Limit:  a.Limit,
		Page:   a.Page,
		Filter: a.Filter,
		Order:  a.Order,
	}
}
