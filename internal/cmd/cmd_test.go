package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/zcc135820/reqpipe/internal/config"
	"github.com/zcc135820/reqpipe/internal/fixture"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fixtureCfg := &config.Config{}
	fixtureCfg.SanitizeDefaults()
	srv, err := fixture.New(fixtureCfg)
	if err != nil {
		t.Fatalf("fixture.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.BaseURL = ts.URL + fixture.RoutePrefix
	cfg.TokenStore.Type = config.TokenStoreFile
	cfg.TokenStore.Path = filepath.Join(dir, "credentials.json")
	cfg.DownloadDir = filepath.Join(dir, "downloads")
	cfg.SanitizeDefaults()
	return cfg
}

func TestDoTablePage(t *testing.T) {
	cfg := newTestConfig(t)
	var out bytes.Buffer
	if err := DoTable(context.Background(), cfg, TableOptions{Page: 21, PageSize: 10}, &out); err != nil {
		t.Fatalf("DoTable: %v", err)
	}
	var page struct {
		List  []map[string]any `json:"list"`
		Total int              `json:"total"`
	}
	if err := json.Unmarshal(out.Bytes(), &page); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(page.List) != 5 || page.Total != 205 {
		t.Fatalf("rows %d total %d", len(page.List), page.Total)
	}
}

func TestDoTableAll(t *testing.T) {
	cfg := newTestConfig(t)
	var out bytes.Buffer
	if err := DoTable(context.Background(), cfg, TableOptions{PageSize: 50, All: true, Concurrency: 2}, &out); err != nil {
		t.Fatalf("DoTable: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(out.Bytes(), &rows); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(rows) != 205 {
		t.Fatalf("rows = %d", len(rows))
	}
}

func TestLoginPersistsTokenAcrossSessions(t *testing.T) {
	cfg := newTestConfig(t)
	ctx := context.Background()
	var out bytes.Buffer

	err := DoLogin(ctx, cfg, &LoginOptions{Username: "admin", Password: "bad"}, &out)
	if err == nil || !strings.Contains(err.Error(), "code 1001") {
		t.Fatalf("bad login error = %v", err)
	}

	prompts := 0
	err = DoLogin(ctx, cfg, &LoginOptions{
		Username: "admin",
		Prompt: func(string) (string, error) {
			prompts++
			return "admin", nil
		},
	}, &out)
	if err != nil {
		t.Fatalf("DoLogin: %v", err)
	}
	if prompts != 1 {
		t.Fatalf("prompts = %d, want 1", prompts)
	}

	out.Reset()
	if err = DoWhoAmI(ctx, cfg, &out); err != nil {
		t.Fatalf("DoWhoAmI: %v", err)
	}
	if !strings.Contains(out.String(), `"name": "admin"`) {
		t.Fatalf("profile output %s", out.String())
	}

	if err = DoLogout(ctx, cfg, &out); err != nil {
		t.Fatalf("DoLogout: %v", err)
	}
	err = DoWhoAmI(ctx, cfg, &out)
	if err == nil || !strings.Contains(err.Error(), "code 401") {
		t.Fatalf("whoami after logout error = %v", err)
	}
}

func TestUploadAndDownload(t *testing.T) {
	cfg := newTestConfig(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(src, []byte("payload"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	if err := DoUpload(ctx, cfg, src, &out); err != nil {
		t.Fatalf("DoUpload: %v", err)
	}
	var res struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}

	out.Reset()
	if err := DoDownload(ctx, cfg, res.URL, "copy.txt", &out); err != nil {
		t.Fatalf("DoDownload: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.DownloadDir, "copy.txt"))
	if err != nil || string(data) != "payload" {
		t.Fatalf("downloaded %q, %v", data, err)
	}
}

func TestDefaultPrompt(t *testing.T) {
	var out bytes.Buffer
	prompt := defaultPrompt(strings.NewReader("alice\r\nsecond"), &out)
	first, err := prompt("User: ")
	if err != nil || first != "alice" {
		t.Fatalf("first = %q, %v", first, err)
	}
	second, err := prompt("Pass: ")
	if err != nil || second != "second" {
		t.Fatalf("second = %q, %v", second, err)
	}
	if out.String() != "User: Pass: " {
		t.Fatalf("prompts written %q", out.String())
	}
}
