package api

import (
	"context"
	"io"

	"github.com/zcc135820/reqpipe/sdk/client"
)

// UploadResult describes a stored upload.
type UploadResult struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// FileAPI transfers files.
type FileAPI struct {
	c *client.Client
}

// Upload sends the file at filePath.
func (f *FileAPI) Upload(ctx context.Context, filePath string, opts ...client.RequestOption) (UploadResult, error) {
	return unwrap(client.UploadFile[UploadResult](ctx, f.c, "/upload", filePath, opts...))
}

// UploadReader sends content under the given file name.
func (f *FileAPI) UploadReader(ctx context.Context, name string, content io.Reader, opts ...client.RequestOption) (UploadResult, error) {
	return unwrap(client.Upload[UploadResult](ctx, f.c, "/upload", name, content, opts...))
}

// Download fetches path and saves it, returning the saved location. filename overrides the
// name suggested by the server.
func (f *FileAPI) Download(ctx context.Context, path, filename string, opts ...client.RequestOption) (string, error) {
	return f.c.Download(ctx, path, filename, opts...)
}
