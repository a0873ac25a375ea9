// Package server exposes Ghost content management as MCP tools over the
// streamable HTTP transport.
package server

import (
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ghost-mcp/ghost-mcp/pkg/config"
	"github.com/ghost-mcp/ghost-mcp/pkg/images"
	"github.com/ghost-mcp/ghost-mcp/pkg/telemetry"
	"github.com/ghost-mcp/ghost-mcp/pkg/versions"
)

// Server wraps the MCP server with the Ghost tool set registered.
type Server struct {
	mcpServer *server.MCPServer
}

// New builds the MCP server and registers every Ghost tool.
func New(cfg *config.Config, svc GhostService, metrics *telemetry.Metrics) *Server {
	versionInfo := versions.GetVersionInfo()
	mcpServer := server.NewMCPServer(
		"ghost-mcp",
		versionInfo.Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	handler := &toolHandler{
		svc:       svc,
		processor: images.NewProcessor(cfg.Images.MaxWidth, cfg.Images.MaxHeight),
		metrics:   metrics,
		env:       cfg.Env(),
	}
	registerTools(mcpServer, handler)

	return &Server{mcpServer: mcpServer}
}

// HTTPHandler returns the streamable HTTP transport serving the MCP
// protocol at /mcp.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithEndpointPath("/mcp"),
	)
}

func registerTools(s *server.MCPServer, h *toolHandler) {
	browseArgs := map[string]interface{}{
		"limit": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum number of results to return",
		},
		"page": map[string]interface{}{
			"type":        "integer",
			"description": "Page number, starting at 1",
		},
		"filter": map[string]interface{}{
			"type":        "string",
			"description": "Ghost NQL filter expression",
		},
		"order": map[string]interface{}{
			"type":        "string",
			"description": "Sort order, e.g. 'published_at desc'",
		},
	}

	s.AddTool(mcp.Tool{
		Name:        "browse_posts",
		Description: "List posts from the Ghost site",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: browseArgs,
		},
	}, h.browsePosts)

	s.AddTool(mcp.Tool{
		Name:        "read_post",
		Description: "Read a single post by id, including its HTML content",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Post id",
				},
			},
			Required: []string{"id"},
		},
	}, h.readPost)

	s.AddTool(mcp.Tool{
		Name:        "search_posts",
		Description: "Search posts by title",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Title substring to search for",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return",
				},
			},
			Required: []string{"query"},
		},
	}, h.searchPosts)

	s.AddTool(mcp.Tool{
		Name:        "create_post",
		Description: "Create a new post",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Post title",
				},
				"html": map[string]interface{}{
					"type":        "string",
					"description": "Post body as HTML",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Post status: draft, published or scheduled",
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"description": "Tag names to attach",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"excerpt": map[string]interface{}{
					"type":        "string",
					"description": "Custom excerpt",
				},
			},
			Required: []string{"title"},
		},
	}, h.createPost)

	s.AddTool(mcp.Tool{
		Name:        "update_post",
		Description: "Update an existing post",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Post id",
				},
				"updated_at": map[string]interface{}{
					"type":        "string",
					"description": "The updated_at value from the last read, used for conflict detection",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "New title",
				},
				"html": map[string]interface{}{
					"type":        "string",
					"description": "New body as HTML",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "New status: draft, published or scheduled",
				},
			},
			Required: []string{"id", "updated_at"},
		},
	}, h.updatePost)

	s.AddTool(mcp.Tool{
		Name:        "delete_post",
		Description: "Delete a post by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Post id",
				},
			},
			Required: []string{"id"},
		},
	}, h.deletePost)

	s.AddTool(mcp.Tool{
		Name:        "browse_tags",
		Description: "List tags from the Ghost site",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: browseArgs,
		},
	}, h.browseTags)

	s.AddTool(mcp.Tool{
		Name:        "create_tag",
		Description: "Create a new tag",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Tag name",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Tag description",
				},
			},
			Required: []string{"name"},
		},
	}, h.createTag)

	s.AddTool(mcp.Tool{
		Name:        "browse_members",
		Description: "List site members",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: browseArgs,
		},
	}, h.browseMembers)

	s.AddTool(mcp.Tool{
		Name:        "browse_users",
		Description: "List staff users with their roles",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: browseArgs,
		},
	}, h.browseUsers)

	s.AddTool(mcp.Tool{
		Name:        "read_user",
		Description: "Read a staff user by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "User id",
				},
			},
			Required: []string{"id"},
		},
	}, h.readUser)

	s.AddTool(mcp.Tool{
		Name:        "upload_image",
		Description: "Upload an image to the Ghost media library",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Target filename including extension, e.g. cover.png",
				},
				"data": map[string]interface{}{
					"type":        "string",
					"description": "Base64-encoded image bytes",
				},
			},
			Required: []string{"filename", "data"},
		},
	}, h.uploadImage)
}
