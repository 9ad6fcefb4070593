package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zcc135820/reqpipe/sdk/client"
)

// Article is a published article.
type Article struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ArticleInput carries the editable fields of an article.
type ArticleInput struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// ArticleQuery selects a page of articles, optionally filtered by keyword.
type ArticleQuery struct {
	Page     int
	PageSize int
	Keyword  string
}

// ArticleAPI accesses /articles.
type ArticleAPI struct {
	c *client.Client
}

// List fetches a page of articles.
func (a *ArticleAPI) List(ctx context.Context, q ArticleQuery, opts ...client.RequestOption) (Page[Article], error) {
	var params []client.RequestOption
	if q.Page > 0 {
		params = append(params, client.WithParam("page", strconv.Itoa(q.Page)))
	}
	if q.PageSize > 0 {
		params = append(params, client.WithParam("pageSize", strconv.Itoa(q.PageSize)))
	}
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		params = append(params, client.WithParam("keyword", kw))
	}
	return unwrap(client.Get[Page[Article]](ctx, a.c, "/articles", append(params, opts...)...))
}

// Get fetches one article.
func (a *ArticleAPI) Get(ctx context.Context, id int, opts ...client.RequestOption) (Article, error) {
	return unwrap(client.Get[Article](ctx, a.c, fmt.Sprintf("/articles/%d", id), opts...))
}

// Create publishes an article.
func (a *ArticleAPI) Create(ctx context.Context, in ArticleInput, opts ...client.RequestOption) (Article, error) {
	return unwrap(client.Post[Article](ctx, a.c, "/articles", in, opts...))
}

// Update edits an article.
func (a *ArticleAPI) Update(ctx context.Context, id int, in ArticleInput, opts ...client.RequestOption) (Article, error) {
	return unwrap(client.Put[Article](ctx, a.c, fmt.Sprintf("/articles/%d", id), in, opts...))
}

// Delete removes an article.
func (a *ArticleAPI) Delete(ctx context.Context, id int, opts ...client.RequestOption) error {
	_, err := client.Delete[any](ctx, a.c, fmt.Sprintf("/articles/%d", id), opts...)
	return err
}
