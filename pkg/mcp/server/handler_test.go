package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
	"github.com/ghost-mcp/ghost-mcp/pkg/ghost"
	"github.com/ghost-mcp/ghost-mcp/pkg/images"
	"github.com/ghost-mcp/ghost-mcp/pkg/telemetry"
)

// fakeGhostService lets each test stub exactly the calls it expects.
type fakeGhostService struct {
	browsePosts func(context.Context, ghost.BrowseOptions) ([]ghost.Post, error)
	readPost    func(context.Context, string) (*ghost.Post, error)
	createPost  func(context.Context, *ghost.Post) (*ghost.Post, error)
	deletePost  func(context.Context, string) error
	uploadImage func(context.Context, string, []byte) (*ghost.Image, error)
}

func (f *fakeGhostService) BrowsePosts(ctx context.Context, opts ghost.BrowseOptions) ([]ghost.Post, error) {
	return f.browsePosts(ctx, opts)
}

func (f *fakeGhostService) ReadPost(ctx context.Context, id string) (*ghost.Post, error) {
	return f.readPost(ctx, id)
}

func (f *fakeGhostService) SearchPosts(ctx context.Context, query string, opts ghost.BrowseOptions) ([]ghost.Post, error) {
	opts.Filter = "title:~'" + query + "'"
	return f.browsePosts(ctx, opts)
}

func (f *fakeGhostService) CreatePost(ctx context.Context, post *ghost.Post) (*ghost.Post, error) {
	return f.createPost(ctx, post)
}

func (f *fakeGhostService) UpdatePost(ctx context.Context, _ string, post *ghost.Post) (*ghost.Post, error) {
	return f.createPost(ctx, post)
}

func (f *fakeGhostService) DeletePost(ctx context.Context, id string) error {
	return f.deletePost(ctx, id)
}

func (*fakeGhostService) BrowseTags(context.Context, ghost.BrowseOptions) ([]ghost.Tag, error) {
	return nil, nil
}

func (*fakeGhostService) CreateTag(_ context.Context, tag *ghost.Tag) (*ghost.Tag, error) {
	return tag, nil
}

func (*fakeGhostService) BrowseMembers(context.Context, ghost.BrowseOptions) ([]ghost.Member, error) {
	return nil, nil
}

func (*fakeGhostService) BrowseUsers(context.Context, ghost.BrowseOptions) ([]ghost.User, error) {
	return nil, nil
}

func (*fakeGhostService) ReadUser(context.Context, string) (*ghost.User, error) {
	return &ghost.User{}, nil
}

func (f *fakeGhostService) UploadImage(ctx context.Context, filename string, data []byte) (*ghost.Image, error) {
	return f.uploadImage(ctx, filename, data)
}

func newTestHandler(svc GhostService) *toolHandler {
	return &toolHandler{
		svc:       svc,
		processor: images.NewProcessor(2000, 2000),
		metrics:   telemetry.NewMetrics(),
		env:       errors.Production(),
	}
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// errorBody unpacks the serialized taxonomy envelope from an error result.
func errorBody(t *testing.T, result *mcp.CallToolResult) errors.MCPErrorBody {
	t.Helper()
	require.True(t, result.IsError)
	require.NotEmpty(t, result.Content)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var body errors.MCPErrorBody
	require.NoError(t, json.Unmarshal([]byte(text.Text), &body))
	return body
}

func TestBrowsePostsReturnsStructuredResult(t *testing.T) {
	t.Parallel()

	svc := &fakeGhostService{
		browsePosts: func(_ context.Context, opts ghost.BrowseOptions) ([]ghost.Post, error) {
			assert.Equal(t, 5, opts.Limit)
			return []ghost.Post{{ID: "p1", Title: "Hello"}}, nil
		},
	}
	h := newTestHandler(svc)

	result, err := h.browsePosts(context.Background(), toolRequest("browse_posts", map[string]any{"limit": 5}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	posts, ok := result.StructuredContent.([]ghost.Post)
	require.True(t, ok)
	assert.Equal(t, "Hello", posts[0].Title)
}

func TestBrowsePostsRejectsExcessiveLimit(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&fakeGhostService{})

	result, err := h.browsePosts(context.Background(), toolRequest("browse_posts", map[string]any{"limit": 500}))
	require.NoError(t, err)

	body := errorBody(t, result)
	assert.Equal(t, errors.CodeValidation, body.Error.Code)
	require.NotEmpty(t, body.Error.ValidationErrors)
	assert.Equal(t, "limit", body.Error.ValidationErrors[0].Field)
}

func TestReadPostMissingID(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&fakeGhostService{})

	result, err := h.readPost(context.Background(), toolRequest("read_post", map[string]any{}))
	require.NoError(t, err)

	body := errorBody(t, result)
	assert.Equal(t, errors.CodeValidation, body.Error.Code)
	assert.Equal(t, "read_post", body.Error.Tool)
}

func TestReadPostUpstreamErrorKeepsTaxonomy(t *testing.T) {
	t.Parallel()

	svc := &fakeGhostService{
		readPost: func(context.Context, string) (*ghost.Post, error) {
			return nil, errors.NewGhostAPIError("posts.read", "Post not found", 404)
		},
	}
	h := newTestHandler(svc)

	result, err := h.readPost(context.Background(), toolRequest("read_post", map[string]any{"id": "p1"}))
	require.NoError(t, err)

	body := errorBody(t, result)
	assert.Equal(t, errors.CodeGhostNotFound, body.Error.Code)
	assert.Equal(t, 404, body.Error.StatusCode)
	assert.Equal(t, "Post not found", body.Error.Message)
}

func TestReadPostUnknownErrorIsMasked(t *testing.T) {
	t.Parallel()

	svc := &fakeGhostService{
		readPost: func(context.Context, string) (*ghost.Post, error) {
			return nil, assert.AnError
		},
	}
	h := newTestHandler(svc)

	result, err := h.readPost(context.Background(), toolRequest("read_post", map[string]any{"id": "p1"}))
	require.NoError(t, err)

	body := errorBody(t, result)
	assert.Equal(t, errors.CodeUnknown, body.Error.Code)
	assert.Equal(t, "An unexpected error occurred", body.Error.Message)
}

func TestCreatePostValidation(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&fakeGhostService{})

	result, err := h.createPost(context.Background(), toolRequest("create_post", map[string]any{
		"title":  "",
		"status": "bogus",
	}))
	require.NoError(t, err)

	body := errorBody(t, result)
	assert.Equal(t, errors.CodeValidation, body.Error.Code)

	fields := make([]string, 0, len(body.Error.ValidationErrors))
	for _, fe := range body.Error.ValidationErrors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"title", "status"}, fields)
}

func TestCreatePostMapsTags(t *testing.T) {
	t.Parallel()

	svc := &fakeGhostService{
		createPost: func(_ context.Context, post *ghost.Post) (*ghost.Post, error) {
			assert.Equal(t, []ghost.Tag{{Name: "news"}, {Name: "go"}}, post.Tags)
			post.ID = "p1"
			return post, nil
		},
	}
	h := newTestHandler(svc)

	result, err := h.createPost(context.Background(), toolRequest("create_post", map[string]any{
		"title": "Hello",
		"html":  "<p>hi</p>",
		"tags":  []any{"news", "go"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
}

func TestDeletePost(t *testing.T) {
	t.Parallel()

	deleted := ""
	svc := &fakeGhostService{
		deletePost: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	h := newTestHandler(svc)

	result, err := h.deletePost(context.Background(), toolRequest("delete_post", map[string]any{"id": "p9"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "p9", deleted)
}

func TestUploadImageRejectsBadBase64(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&fakeGhostService{})

	result, err := h.uploadImage(context.Background(), toolRequest("upload_image", map[string]any{
		"filename": "cover.png",
		"data":     "%%%not-base64%%%",
	}))
	require.NoError(t, err)

	body := errorBody(t, result)
	assert.Equal(t, errors.CodeValidation, body.Error.Code)
}

func TestUploadImageRejectsUndecodable(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&fakeGhostService{})

	result, err := h.uploadImage(context.Background(), toolRequest("upload_image", map[string]any{
		"filename": "cover.png",
		"data":     "bm90IGFuIGltYWdl", // "not an image"
	}))
	require.NoError(t, err)

	body := errorBody(t, result)
	assert.Equal(t, errors.CodeImageProcessing, body.Error.Code)
}
