package ghost

import (
	"context"
	"net/http"
	"net/url"
)

// Tag is a Ghost tag.
type Tag struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

// Member is a Ghost site member.
type Member struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// User is a Ghost staff user.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Slug  string `json:"slug,omitempty"`
	Email string `json:"email,omitempty"`
	Roles []Role `json:"roles,omitempty"`
}

// Role is a staff role attached to a user.
type Role struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Image is the result of an image upload.
type Image struct {
	URL string `json:"url"`
	Ref string `json:"ref,omitempty"`
}

type tagsEnvelope struct {
	Tags []Tag `json:"tags"`
}

type membersEnvelope struct {
	Members []Member `json:"members"`
}

type usersEnvelope struct {
	Users []User `json:"users"`
}

type imagesEnvelope struct {
	Images []Image `json:"images"`
}

// BrowseTags lists tags.
func (c *Client) BrowseTags(ctx context.Context, opts BrowseOptions) ([]Tag, error) {
	var env tagsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/tags/", opts.query(), nil, &env); err != nil {
		return nil, err
	}
	return env.Tags, nil
}

// CreateTag creates a tag.
func (c *Client) CreateTag(ctx context.Context, tag *Tag) (*Tag, error) {
	var env tagsEnvelope
	in := tagsEnvelope{Tags: []Tag{*tag}}
	if err := c.doJSON(ctx, http.MethodPost, "/tags/", nil, in, &env); err != nil {
		return nil, err
	}
	if len(env.Tags) == 0 {
		return nil, &RequestError{StatusCode: http.StatusBadGateway, Messages: []string{"empty create response"}}
	}
	return &env.Tags[0], nil
}

// BrowseMembers lists site members.
func (c *Client) BrowseMembers(ctx context.Context, opts BrowseOptions) ([]Member, error) {
	var env membersEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/members/", opts.query(), nil, &env); err != nil {
		return nil, err
	}
	return env.Members, nil
}

// BrowseUsers lists staff users with their roles.
func (c *Client) BrowseUsers(ctx context.Context, opts BrowseOptions) ([]User, error) {
	q := opts.query()
	q.Set("include", "roles")

	var env usersEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/users/", q, nil, &env); err != nil {
		return nil, err
	}
	return env.Users, nil
}

// ReadUser fetches a single staff user by id.
func (c *Client) ReadUser(ctx context.Context, id string) (*User, error) {
	q := url.Values{}
	q.Set("include", "roles")

	var env usersEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(id)+"/", q, nil, &env); err != nil {
		return nil, err
	}
	if len(env.Users) == 0 {
		return nil, &RequestError{StatusCode: http.StatusNotFound, Messages: []string{"user not found"}}
	}
	return &env.Users[0], nil
}

// UploadImage uploads image bytes and returns the hosted URL.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (*Image, error) {
	var env imagesEnvelope
	if err := c.uploadMultipart(ctx, "/images/upload/", filename, data, &env); err != nil {
		return nil, err
	}
	if len(env.Images) == 0 {
		return nil, &RequestError{StatusCode: http.StatusBadGateway, Messages: []string{"empty upload response"}}
	}
	return &env.Images[0], nil
}
