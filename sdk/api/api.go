// Package api provides typed resource clients built on the envelope request pipeline.
package api

import (
	"github.com/zcc135820/reqpipe/sdk/client"
)

// Page is the paginated list shape returned by list endpoints.
type Page[T any] struct {
	List     []T `json:"list"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// PageQuery selects a page.
type PageQuery struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// API groups the resource clients sharing one pipeline.
type API struct {
	Table   *TableAPI
	User    *UserAPI
	Article *ArticleAPI
	File    *FileAPI
}

// New builds all resource clients on c. store receives the token issued by UserAPI.Login
// and may be nil.
func New(c *client.Client, store client.CredentialStore) *API {
	return &API{
		Table:   &TableAPI{c: c},
		User:    &UserAPI{c: c, store: store},
		Article: &ArticleAPI{c: c},
		File:    &FileAPI{c: c},
	}
}

func unwrap[T any](env *client.Envelope[T], err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}
