package server

import (
	"context"
	"encoding/base64"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
	"github.com/ghost-mcp/ghost-mcp/pkg/ghost"
)

func (h *toolHandler) browseTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "browse_tags"
	h.metrics.RecordToolCall(toolName)

	var args browseArgs
	if err := h.bind(toolName, request, &args); err != nil {
		return h.fail(toolName, err), nil
	}
	if err := args.validate(toolName); err != nil {
		return h.fail(toolName, err), nil
	}

	tags, err := h.svc.BrowseTags(ctx, args.options())
	if err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(tags), nil
}

func (h *toolHandler) createTag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "create_tag"
	h.metrics.RecordToolCall(toolName)

	args := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}{}
	if err := h.bind(toolName, request, &args); err != nil {
		return h.fail(toolName, err), nil
	}
	if err := validated(validation.ValidateStruct(&args,
		validation.Field(&args.Name, validation.Required, validation.Length(1, 191)),
	), toolName); err != nil {
		return h.fail(toolName, err), nil
	}

	tag, err := h.svc.CreateTag(ctx, &ghost.Tag{Name: args.Name, Description: args.Description})
	if err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(tag), nil
}

func (h *toolHandler) browseMembers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "browse_members"
	h.metrics.RecordToolCall(toolName)

	var args browseArgs
	if err := h.bind(toolName, request, &args); err != nil {
		return h.fail(toolName, err), nil
	}
	if err := args.validate(toolName); err != nil {
		return h.fail(toolName, err), nil
	}

	members, err := h.svc.BrowseMembers(ctx, args.options())
	if err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(members), nil
}

func (h *toolHandler) browseUsers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "browse_users"
	h.metrics.RecordToolCall(toolName)

	var args browseArgs
	if err := h.bind(toolName, request, &args); err != nil {
		return h.fail(toolName, err), nil
	}
	if err := args.validate(toolName); err != nil {
		return h.fail(toolName, err), nil
	}

	users, err := h.svc.BrowseUsers(ctx, args.options())
	if err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(users), nil
}

func (h *toolHandler) readUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "read_user"
	h.metrics.RecordToolCall(toolName)

	args := struct {
		ID string `json:"id"`
	}{}
	if err := h.bind(toolName, request, &args); err != nil {
		return h.fail(toolName, err), nil
	}
	if err := validated(validation.ValidateStruct(&args,
		validation.Field(&args.ID, validation.Required),
	), toolName); err != nil {
		return h.fail(toolName, err), nil
	}

	user, err := h.svc.ReadUser(ctx, args.ID)
	if err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(user), nil
}

func (h *toolHandler) uploadImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "upload_image"
	h.metrics.RecordToolCall(toolName)

	args := struct {
		Filename string `json:"filename"`
		Data     string `json:"data"`
	}{}
	if err := h.bind(toolName, request, &args); err != nil {
		return h.fail(toolName, err), nil
	}
	if err := validated(validation.ValidateStruct(&args,
		validation.Field(&args.Filename, validation.Required),
		validation.Field(&args.Data, validation.Required),
	), toolName); err != nil {
		return h.fail(toolName, err), nil
	}

	raw, err := base64.StdEncoding.DecodeString(args.Data)
	if err != nil {
		return h.fail(toolName, errors.NewValidationError("data must be base64-encoded", []errors.FieldError{
			{Field: "data", Message: "invalid base64 payload", Type: "string.base64"},
		})), nil
	}

	prepared, err := h.processor.Prepare(args.Filename, raw)
	if err != nil {
		return h.fail(toolName, err), nil
	}

	img, err := h.svc.UploadImage(ctx, args.Filename, prepared)
	if err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(img), nil
}
