package server

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ghost-mcp/ghost-mcp/pkg/ghost"
)

var postStatuses = []interface{}{"draft", "published", "scheduled"}

func (h *toolHandler) browsePosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "browse_posts"
	h.metrics.RecordToolCall(toolName)

	var args browseArgs
	if err := h.bind(toolName, request, &args); err != nil {
		return h.fail(toolName, err), nil
	}
	if err := args.validate(toolName); err != nil {
		return h.fail(toolName, err), nil
	}

	posts, err := h.svc.BrowsePosts(ctx, args.options())
	if err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(posts), nil
}

func (h *toolHandler) readPost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "read_post"
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

	post, err := h.svc.ReadPost(ctx, args.ID)
	if err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(post), nil
}

func (h *toolHandler) searchPosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "search_posts"
	h.metrics.RecordToolCall(toolName)

	args := struct {
		Query string `json:"query"`
		Limit int    `json:"limit,omitempty"`
	}{}
	if err := h.bind(toolName, request, &args); err != nil {
		return h.fail(toolName, err), nil
	}
	if err := validated(validation.ValidateStruct(&args,
		validation.Field(&args.Query, validation.Required),
		validation.Field(&args.Limit, validation.Min(0), validation.Max(100)),
	), toolName); err != nil {
		return h.fail(toolName, err), nil
	}

	posts, err := h.svc.SearchPosts(ctx, args.Query, ghost.BrowseOptions{Limit: args.Limit})
	if err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(posts), nil
}

func (h *toolHandler) createPost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "create_post"
	h.metrics.RecordToolCall(toolName)

	args := struct {
		Title   string   `json:"title"`
		HTML    string   `json:"html,omitempty"`
		Status  string   `json:"status,omitempty"`
		Tags    []string `json:"tags,omitempty"`
		Excerpt string   `json:"excerpt,omitempty"`
	}{}
	if err := h.bind(toolName, request, &args); err != nil {
		return h.fail(toolName, err), nil
	}
	if err := validated(validation.ValidateStruct(&args,
		validation.Field(&args.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&args.Status, validation.In(postStatuses...)),
	), toolName); err != nil {
		return h.fail(toolName, err), nil
	}

	post := &ghost.Post{
		Title:   args.Title,
		HTML:    args.HTML,
		Status:  args.Status,
		Excerpt: args.Excerpt,
	}
	for _, name := range args.Tags {
		post.Tags = append(post.Tags, ghost.Tag{Name: name})
	}

	created, err := h.svc.CreatePost(ctx, post)
	if err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(created), nil
}

func (h *toolHandler) updatePost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "update_post"
	h.metrics.RecordToolCall(toolName)

	args := struct {
		ID        string `json:"id"`
		UpdatedAt string `json:"updated_at"`
		Title     string `json:"title,omitempty"`
		HTML      string `json:"html,omitempty"`
		Status    string `json:"status,omitempty"`
	}{}
	if err := h.bind(toolName, request, &args); err != nil {
		return h.fail(toolName, err), nil
	}
	if err := validated(validation.ValidateStruct(&args,
		validation.Field(&args.ID, validation.Required),
		validation.Field(&args.UpdatedAt, validation.Required, validation.Date("2006-01-02T15:04:05.000Z")),
		validation.Field(&args.Status, validation.In(postStatuses...)),
	), toolName); err != nil {
		return h.fail(toolName, err), nil
	}

	post := &ghost.Post{
		Title:     args.Title,
		HTML:      args.HTML,
		Status:    args.Status,
		UpdatedAt: args.UpdatedAt,
	}

	updated, err := h.svc.UpdatePost(ctx, args.ID, post)
	if err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(updated), nil
}

func (h *toolHandler) deletePost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const toolName = "delete_post"
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

	if err := h.svc.DeletePost(ctx, args.ID); err != nil {
		return h.fail(toolName, err), nil
	}
	return mcp.NewToolResultStructuredOnly(map[string]interface{}{
		"status": "deleted",
		"id":     args.ID,
	}), nil
}
