package client

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUploadSendsMultipartFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		f, hdr, err := r.FormFile(UploadField)
		if err != nil {
			t.Errorf("form file: %v", err)
			writeJSON(w, http.StatusBadRequest, `{}`)
			return
		}
		defer func() { _ = f.Close() }()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "notes.txt" || string(data) != "hello" {
			t.Errorf("got %s=%q", hdr.Filename, data)
		}
		if r.FormValue("folder") != "docs" {
			t.Errorf("folder = %q", r.FormValue("folder"))
		}
		writeJSON(w, http.StatusOK, `{"code":200,"message":"uploaded","data":{"url":"/files/notes.txt"},"success":true}`)
	})

	env, err := Upload[map[string]string](context.Background(), c, "/upload", "notes.txt", strings.NewReader("hello"), WithFormField("folder", "docs"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if env.Data["url"] != "/files/notes.txt" {
		t.Fatalf("data = %v", env.Data)
	}
}

func TestUploadFileMissing(t *testing.T) {
	c := New(WithBaseURL("http://127.0.0.1:1"))
	_, err := UploadFile[any](context.Background(), c, "/upload", filepath.Join(t.TempDir(), "absent"))
	e := mustError(t, err)
	if e.Origin != OriginConfig {
		t.Fatalf("unexpected error %+v", e)
	}
}

func TestDownloadUsesDispositionName(t *testing.T) {
	dir := t.TempDir()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="report.csv"`)
		_, _ = io.WriteString(w, "a,b\n1,2\n")
	}, WithSaver(&FileSaver{Dir: dir}))

	saved, err := c.Download(context.Background(), "/files/report", "")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if saved != filepath.Join(dir, "report.csv") {
		t.Fatalf("saved = %q", saved)
	}
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Fatalf("content = %q", data)
	}
}

func TestDownloadExplicitNameIsSanitized(t *testing.T) {
	dir := t.TempDir()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "binary")
	}, WithSaver(&FileSaver{Dir: dir}))

	saved, err := c.Download(context.Background(), "/files/x", "../../escape.bin")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if saved != filepath.Join(dir, "escape.bin") {
		t.Fatalf("saved = %q", saved)
	}
}

func TestDownloadErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"gone"}`)
	}, WithSaver(&FileSaver{Dir: t.TempDir()}))

	_, err := c.Download(context.Background(), "/files/x", "x")
	e := mustError(t, err)
	if e.Code != http.StatusNotFound || e.Message != msgNotFound {
		t.Fatalf("unexpected error %+v", e)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":    "report.pdf",
		"a/b/c.txt":     "c.txt",
		`..\..\win.txt`: "win.txt",
		"":              defaultDownloadName,
		"/":             defaultDownloadName,
	}
	for in, want := range cases {
		if got := sanitizeFileName(in); got != want {
			t.Fatalf("sanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
