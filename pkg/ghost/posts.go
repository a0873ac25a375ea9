package ghost

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Post is a Ghost post as returned by the Admin API. Only the fields the
// tools use are mapped.
type Post struct {
	ID          string `json:"id,omitempty"`
	UUID        string `json:"uuid,omitempty"`
	Title       string `json:"title,omitempty"`
	Slug        string `json:"slug,omitempty"`
	HTML        string `json:"html,omitempty"`
	Status      string `json:"status,omitempty"`
	URL         string `json:"url,omitempty"`
	Excerpt     string `json:"custom_excerpt,omitempty"`
	FeatureImg  string `json:"feature_image,omitempty"`
	Tags        []Tag  `json:"tags,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// BrowseOptions are the paging and filtering knobs shared by list
// endpoints. Zero values are omitted from the query.
type BrowseOptions struct {
	Limit  int
	Page   int
	Filter string
	Order  string
}

func (o BrowseOptions) query() url.Values {
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Order != "" {
		q.Set("order", o.Order)
	}
	return q
}

type postsEnvelope struct {
	Posts []Post `json:"posts"`
}

// BrowsePosts lists posts with HTML content included.
func (c *Client) BrowsePosts(ctx context.Context, opts BrowseOptions) ([]Post, error) {
	q := opts.query()
	q.Set("formats", "html")

	var env postsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/posts/", q, nil, &env); err != nil {
		return nil, err
	}
	return env.Posts, nil
}

// ReadPost fetches a single post by id.
func (c *Client) ReadPost(ctx context.Context, id string) (*Post, error) {
	q := url.Values{}
	q.Set("formats", "html")

	var env postsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/posts/"+url.PathEscape(id)+"/", q, nil, &env); err != nil {
		return nil, err
	}
	if len(env.Posts) == 0 {
		return nil, &RequestError{StatusCode: http.StatusNotFound, Messages: []string{"post not found"}}
	}
	return &env.Posts[0], nil
}

// SearchPosts looks posts up by title substring using a Ghost NQL filter.
func (c *Client) SearchPosts(ctx context.Context, query string, opts BrowseOptions) ([]Post, error) {
	opts.Filter = fmt.Sprintf("title:~'%s'", escapeNQL(query))
	return c.BrowsePosts(ctx, opts)
}

// CreatePost creates a post. Ghost treats HTML input as the source format
// when the source=html query parameter is set.
func (c *Client) CreatePost(ctx context.Context, post *Post) (*Post, error) {
	q := url.Values{}
	q.Set("source", "html")

	var env postsEnvelope
	in := postsEnvelope{Posts: []Post{*post}}
	if err := c.doJSON(ctx, http.MethodPost, "/posts/", q, in, &env); err != nil {
		return nil, err
	}
	if len(env.Posts) == 0 {
		return nil, &RequestError{StatusCode: http.StatusBadGateway, Messages: []string{"empty create response"}}
	}
	return &env.Posts[0], nil
}

// UpdatePost updates a post. The post's UpdatedAt must carry the value from
// the last read; Ghost uses it to detect concurrent edits.
func (c *Client) UpdatePost(ctx context.Context, id string, post *Post) (*Post, error) {
	q := url.Values{}
	q.Set("source", "html")

	var env postsEnvelope
	in := postsEnvelope{Posts: []Post{*post}}
	if err := c.doJSON(ctx, http.MethodPut, "/posts/"+url.PathEscape(id)+"/", q, in, &env); err != nil {
		return nil, err
	}
	if len(env.Posts) == 0 {
		return nil, &RequestError{StatusCode: http.StatusBadGateway, Messages: []string{"empty update response"}}
	}
	return &env.Posts[0], nil
}

// DeletePost deletes a post by id.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id)+"/", nil, nil, nil)
}

// escapeNQL escapes single quotes in NQL string literals.
func escapeNQL(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
