package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/browser"
)

// UploadField is the multipart field carrying the uploaded payload.
const UploadField = "file"

// defaultDownloadName is used when neither the caller nor the server names the file.
const defaultDownloadName = "download"

// Upload posts content as a multipart form under the "file" field and decodes the envelope data as T.
func Upload[T any](ctx context.Context, c *Client, path, filename string, content io.Reader, opts ...RequestOption) (*Envelope[T], error) {
	ro := newRequestOptions(opts)
	body, contentType, errForm := buildMultipart(filename, content, ro.formFields)
	if errForm != nil {
		e := newConfigError(errForm)
		c.hooks.fail(ctx, ro, &CallInfo{Method: http.MethodPost, URL: path}, e)
		return nil, e
	}
	return doTyped[T](ctx, c, &call{
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: contentType,
		opts:        ro,
	})
}

// UploadFile uploads the file at filePath, using its base name as the form filename.
func UploadFile[T any](ctx context.Context, c *Client, path, filePath string, opts ...RequestOption) (*Envelope[T], error) {
	f, err := os.Open(filePath)
	if err != nil {
		e := newConfigError(fmt.Errorf("client: open upload file: %w", err))
		c.hooks.fail(ctx, newRequestOptions(opts), &CallInfo{Method: http.MethodPost, URL: path}, e)
		return nil, e
	}
	defer func() {
		if errClose := f.Close(); errClose != nil {
			log.Warnf("close upload file error: %v", errClose)
		}
	}()
	return Upload[T](ctx, c, path, filepath.Base(filePath), f, opts...)
}

func buildMultipart(filename string, content io.Reader, fields map[string]string) (*bytes.Buffer, string, error) {
	if content == nil {
		return nil, "", fmt.Errorf("client: upload content is nil")
	}
	if strings.TrimSpace(filename) == "" {
		filename = UploadField
	}
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("client: write form field %s: %w", k, err)
		}
	}

	part, err := w.CreateFormFile(UploadField, filename)
	if err != nil {
		return nil, "", fmt.Errorf("client: create form file: %w", err)
	}
	if _, err = io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("client: copy upload content: %w", err)
	}
	if err = w.Close(); err != nil {
		return nil, "", fmt.Errorf("client: close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// Saver persists a downloaded payload on behalf of the host environment.
type Saver interface {
	Save(ctx context.Context, name string, content []byte) (string, error)
}

// FileSaver writes downloads into Dir. When Reveal is set the saved file is opened with the
// host's default application.
type FileSaver struct {
	Dir    string
	Reveal bool
}

// Save implements Saver. The file is written to a temporary name and renamed into place.
func (s *FileSaver) Save(_ context.Context, name string, content []byte) (string, error) {
	dir := strings.TrimSpace(s.Dir)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("file saver: create directory: %w", err)
	}
	target := filepath.Join(dir, sanitizeFileName(name))
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("file saver: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("file saver: write temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("file saver: close temp file: %w", err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("file saver: rename into place: %w", err)
	}
	if s.Reveal {
		if errOpen := browser.OpenFile(target); errOpen != nil {
			log.WithError(errOpen).Warn("file saver: could not open downloaded file")
		}
	}
	return target, nil
}

// Download fetches path as a binary body and hands it to the configured Saver. It returns
// where the file was saved. Non-2xx responses are normalized like any other call; the body
// is not treated as an envelope.
func (c *Client) Download(ctx context.Context, path, filename string, opts ...RequestOption) (string, error) {
	ro := newRequestOptions(opts)
	ex, err := c.execute(ctx, &call{method: http.MethodGet, path: path, binary: true, opts: ro})
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(filename)
	if name == "" {
		name = dispositionFileName(ex.Response.Header.Get("Content-Disposition"))
	}
	if name == "" {
		name = defaultDownloadName
	}
	saver := c.saver
	if saver == nil {
		saver = &FileSaver{Dir: "."}
	}
	saved, errSave := saver.Save(ctx, name, ex.Body)
	if errSave != nil {
		e := newConfigError(errSave)
		c.hooks.fail(ctx, ro, &CallInfo{Method: http.MethodGet, URL: ex.Request.URL.String(), Status: ex.Response.StatusCode}, e)
		return "", e
	}
	return saved, nil
}

func dispositionFileName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func sanitizeFileName(name string) string {
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if base == "/" || base == "." || base == "" {
		return defaultDownloadName
	}
	return base
}
