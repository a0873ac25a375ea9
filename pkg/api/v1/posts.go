// Package v1 contains the v1 REST routes.
package v1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xeipuuv/gojsonschema"

	apierrors "github.com/ghost-mcp/ghost-mcp/pkg/api/errors"
	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
	"github.com/ghost-mcp/ghost-mcp/pkg/ghost"
)

// PostsService is the slice of the Ghost service the posts routes consume.
type PostsService interface {
	BrowsePosts(ctx context.Context, opts ghost.BrowseOptions) ([]ghost.Post, error)
	ReadPost(ctx context.Context, id string) (*ghost.Post, error)
	CreatePost(ctx context.Context, post *ghost.Post) (*ghost.Post, error)
	UpdatePost(ctx context.Context, id string, post *ghost.Post) (*ghost.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// Request body schemas. Compiled once; a broken schema is a programming
// error, so mustSchema panics at init.
var (
	createPostSchema = mustSchema(`{
		"type": "object",
		"required": ["title"],
		"properties": {
			"title":      {"type": "string", "minLength": 1, "maxLength": 255},
			"html":       {"type": "string"},
			"status":     {"type": "string", "enum": ["draft", "published", "scheduled"]},
			"tags":       {"type": "array", "items": {"type": "string"}},
			"excerpt":    {"type": "string"},
			"updated_at": {"type": "string"}
		},
		"additionalProperties": false
	}`)

	updatePostSchema = mustSchema(`{
		"type": "object",
		"required": ["updated_at"],
		"properties": {
			"title":      {"type": "string", "minLength": 1, "maxLength": 255},
			"html":       {"type": "string"},
			"status":     {"type": "string", "enum": ["draft", "published", "scheduled"]},
			"tags":       {"type": "array", "items": {"type": "string"}},
			"excerpt":    {"type": "string"},
			"updated_at": {"type": "string", "minLength": 1}
		},
		"additionalProperties": false
	}`)
)

func mustSchema(def string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(def))
	if err != nil {
		panic(err)
	}
	return schema
}

type postsRoutes struct {
	svc PostsService
}

// PostsRouter wires the posts routes onto a fresh chi router.
func PostsRouter(svc PostsService, env errors.Environment) http.Handler {
	routes := postsRoutes{svc: svc}

	r := chi.NewRouter()
	r.Get("/", apierrors.ErrorHandler(env, routes.listPosts))
	r.Post("/", apierrors.ErrorHandler(env, routes.createPost))
	r.Get("/{id}", apierrors.ErrorHandler(env, routes.getPost))
	r.Put("/{id}", apierrors.ErrorHandler(env, routes.updatePost))
	r.Delete("/{id}", apierrors.ErrorHandler(env, routes.deletePost))
	return r
}

type postsResponse struct {
	Posts []ghost.Post `json:"posts"`
}

func (p *postsRoutes) listPosts(w http.ResponseWriter, r *http.Request) error {
	opts := ghost.BrowseOptions{
		Filter: r.URL.Query().Get("filter"),
		Order:  r.URL.Query().Get("order"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 || limit > 100 {
			return errors.NewValidationError("invalid query parameters", []errors.FieldError{
				{Field: "limit", Message: "limit must be an integer between 0 and 100", Type: "number.range"},
			})
		}
		opts.Limit = limit
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return errors.NewValidationError("invalid query parameters", []errors.FieldError{
				{Field: "page", Message: "page must be a non-negative integer", Type: "number.range"},
			})
		}
		opts.Page = page
	}

	posts, err := p.svc.BrowsePosts(r.Context(), opts)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, postsResponse{Posts: posts})
}

func (p *postsRoutes) getPost(w http.ResponseWriter, r *http.Request) error {
	post, err := p.svc.ReadPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, post)
}

type postRequest struct {
	Title     string   `json:"title"`
	HTML      string   `json:"html,omitempty"`
	Status    string   `json:"status,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Excerpt   string   `json:"excerpt,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// decodePostBody validates the raw body against the schema before
// unmarshalling, so clients get per-field errors instead of a decode
// failure.
func decodePostBody(r *http.Request, schema *gojsonschema.Schema) (*postRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, errors.NewValidationError("failed to read request body", nil)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, errors.NewValidationError("request body is not valid JSON", nil)
	}
	if !result.Valid() {
		return nil, errors.FromSchemaResult(result)
	}

	var req postRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewValidationError("request body is not valid JSON", nil)
	}
	return &req, nil
}

func (req *postRequest) toPost() *ghost.Post {
	post := &ghost.Post{
		Title:     req.Title,
		HTML:      req.HTML,
		Status:    req.Status,
		Excerpt:   req.Excerpt,
		UpdatedAt: req.UpdatedAt,
	}
	for _, name := range req.Tags {
		post.Tags = append(post.Tags, ghost.Tag{Name: name})
	}
	return post
}

func (p *postsRoutes) createPost(w http.ResponseWriter, r *http.Request) error {
	req, err := decodePostBody(r, createPostSchema)
	if err != nil {
		return err
	}

	created, err := p.svc.CreatePost(r.Context(), req.toPost())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, created)
}

func (p *postsRoutes) updatePost(w http.ResponseWriter, r *http.Request) error {
	req, err := decodePostBody(r, updatePostSchema)
	if err != nil {
		return err
	}

	updated, err := p.svc.UpdatePost(r.Context(), chi.URLParam(r, "id"), req.toPost())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, updated)
}

func (p *postsRoutes) deletePost(w http.ResponseWriter, r *http.Request) error {
	if err := p.svc.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
