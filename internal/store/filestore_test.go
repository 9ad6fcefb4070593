package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/zcc135820/reqpipe/internal/config"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	s, err := NewFileStore(path, "token")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, ok := s.Token(ctx); ok {
		t.Fatal("expected no token before Set")
	}
	if err = s.Set(ctx, " abc "); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if tok, ok := s.Token(ctx); !ok || tok != "abc" {
		t.Fatalf("Token() = %q, %v", tok, ok)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}

	reopened, _ := NewFileStore(path, "token")
	if tok, _ := reopened.Token(ctx); tok != "abc" {
		t.Fatalf("reopened Token() = %q", tok)
	}

	if err = s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err = s.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if _, ok := s.Token(ctx); ok {
		t.Fatal("token present after Clear")
	}
}

func TestFileStorePreservesOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(`{"other":"keep"}`), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := NewFileStore(path, "token")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err = s.Set(ctx, "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_ = s.Clear(ctx)

	raw, _ := os.ReadFile(path)
	var entries map[string]string
	if err = json.Unmarshal(raw, &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entries["other"] != "keep" {
		t.Fatalf("entries = %v", entries)
	}
	if _, ok := entries["token"]; ok {
		t.Fatalf("token not removed: %v", entries)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	_ = os.WriteFile(path, []byte("{"), 0o600)
	s, _ := NewFileStore(path, "token")
	if _, ok := s.Token(context.Background()); ok {
		t.Fatal("expected no token from a corrupt file")
	}
	if err := s.Set(context.Background(), "x"); err == nil {
		t.Fatal("expected Set to fail on a corrupt file")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, &config.Config{})
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	_ = mem.Set(ctx, "m")
	if tok, _ := mem.Token(ctx); tok != "m" {
		t.Fatalf("memory token = %q", tok)
	}

	cfg := &config.Config{}
	cfg.TokenStore.Type = config.TokenStoreFile
	cfg.TokenStore.Path = filepath.Join(t.TempDir(), "c.json")
	fs, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := fs.(*FileStore); !ok {
		t.Fatalf("Open returned %T", fs)
	}

	cfg.TokenStore.Type = "carrier-pigeon"
	if _, err = Open(ctx, cfg); err == nil {
		t.Fatal("expected error for unknown store type")
	}
}

func TestRemoteStoreValidation(t *testing.T) {
	if _, err := NewPostgresStore(context.Background(), PostgresStoreConfig{Key: "token"}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
	if _, err := NewObjectStore(ObjectStoreConfig{Endpoint: "localhost:9000", Key: "token"}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
	s, err := NewObjectStore(ObjectStoreConfig{
		Endpoint: "localhost:9000", Bucket: "creds", AccessKey: "a", SecretKey: "b", Prefix: "/app/", Key: "token",
	})
	if err != nil {
		t.Fatalf("NewObjectStore: %v", err)
	}
	if got := s.objectKey(); got != "app/token" {
		t.Fatalf("objectKey = %q", got)
	}
	if got := quoteIdentifier(`we"ird`); got != `"we""ird"` {
		t.Fatalf("quoteIdentifier = %s", got)
	}
}
