package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zcc135820/reqpipe/sdk/client"
	"golang.org/x/sync/errgroup"
)

// TableItem is one table row.
type TableItem struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Num    int    `json:"num"`
	Status string `json:"status"`
}

// TableItemInput carries the fields of a create or update. Nil fields are left unchanged.
type TableItemInput struct {
	Name   *string `json:"name,omitempty"`
	Age    *int    `json:"age,omitempty"`
	Num    *int    `json:"num,omitempty"`
	Status *string `json:"status,omitempty"`
}

// TableSearch filters a table listing.
type TableSearch struct {
	PageQuery
	Keyword string `json:"keyword,omitempty"`
	Status  string `json:"status,omitempty"`
}

// TableAPI accesses /table.
type TableAPI struct {
	c *client.Client
}

// List fetches a page with the parameters in the request body.
func (t *TableAPI) List(ctx context.Context, q PageQuery, opts ...client.RequestOption) (Page[TableItem], error) {
	return unwrap(client.Post[Page[TableItem]](ctx, t.c, "/table", q, opts...))
}

// ListQuery fetches a page with the parameters in the query string.
func (t *TableAPI) ListQuery(ctx context.Context, q PageQuery, opts ...client.RequestOption) (Page[TableItem], error) {
	opts = append([]client.RequestOption{
		client.WithParam("page", strconv.Itoa(q.Page)),
		client.WithParam("pageSize", strconv.Itoa(q.PageSize)),
	}, opts...)
	return unwrap(client.Get[Page[TableItem]](ctx, t.c, "/table", opts...))
}

// Search fetches a filtered page.
func (t *TableAPI) Search(ctx context.Context, q TableSearch, opts ...client.RequestOption) (Page[TableItem], error) {
	return unwrap(client.Post[Page[TableItem]](ctx, t.c, "/table/search", q, opts...))
}

// Create adds a row. Name is required.
func (t *TableAPI) Create(ctx context.Context, in TableItemInput, opts ...client.RequestOption) (TableItem, error) {
	return unwrap(client.Post[TableItem](ctx, t.c, "/table", in, opts...))
}

// Update changes the row with the given id.
func (t *TableAPI) Update(ctx context.Context, id int, in TableItemInput, opts ...client.RequestOption) (TableItem, error) {
	return unwrap(client.Put[TableItem](ctx, t.c, fmt.Sprintf("/table/%d", id), in, opts...))
}

// Delete removes the row with the given id.
func (t *TableAPI) Delete(ctx context.Context, id int, opts ...client.RequestOption) error {
	_, err := client.Delete[any](ctx, t.c, fmt.Sprintf("/table/%d", id), opts...)
	return err
}

// FetchAll reads every row. The first page determines the total and the effective page size,
// since the server may cap pageSize; the remaining pages are fetched with at most concurrency
// requests in flight and concatenated in page order.
func (t *TableAPI) FetchAll(ctx context.Context, pageSize, concurrency int, opts ...client.RequestOption) ([]TableItem, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	first, err := t.List(ctx, PageQuery{Page: 1, PageSize: pageSize}, opts...)
	if err != nil {
		return nil, err
	}
	size := pageSize
	if first.PageSize > 0 {
		size = first.PageSize
	}
	pages := (first.Total + size - 1) / size
	if pages <= 1 {
		return first.List, nil
	}

	results := make([][]TableItem, pages)
	results[0] = first.List

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for p := 2; p <= pages; p++ {
		g.Go(func() error {
			page, errPage := t.List(gctx, PageQuery{Page: p, PageSize: size}, opts...)
			if errPage != nil {
				return errPage
			}
			results[p-1] = page.List
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	all := make([]TableItem, 0, first.Total)
	for _, list := range results {
		all = append(all, list...)
	}
	return all, nil
}
