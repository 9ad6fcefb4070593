package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zcc135820/reqpipe/internal/config"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcherReloadsChangedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "fixture:\n  total: 205\n")

	initial, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	reloaded := make(chan *config.Config, 4)
	w, err := NewWatcher(path, func(_, updated *config.Config) { reloaded <- updated })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.SetConfig(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err = w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = w.Stop() }()

	writeConfig(t, path, "debug: true\nfixture:\n  total: 42\n")

	select {
	case cfg := <-reloaded:
		if cfg.Fixture.Total != 42 || !cfg.Debug {
			t.Fatalf("unexpected reloaded config: total=%d debug=%t", cfg.Fixture.Total, cfg.Debug)
		}
		if w.Config() != cfg {
			t.Fatal("watcher did not record the reloaded config")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestReloadSkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "fixture:\n  total: 7\n")

	calls := 0
	w, err := NewWatcher(path, func(_, _ *config.Config) { calls++ })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer func() { _ = w.Stop() }()
	w.SetConfig(&config.Config{})

	w.reloadConfigIfChanged()
	if calls != 0 {
		t.Fatalf("callback fired %d times for unchanged content", calls)
	}

	writeConfig(t, path, "token-store:\n  type: bogus\n")
	w.reloadConfigIfChanged()
	if calls != 0 {
		t.Fatal("callback fired for an invalid config")
	}
}

func TestDescribeChanges(t *testing.T) {
	old := &config.Config{Debug: false}
	old.Fixture.Total = 205
	updated := &config.Config{Debug: true}
	updated.Fixture.Total = 10

	changes := describeChanges(old, updated)
	if len(changes) != 2 {
		t.Fatalf("changes = %v", changes)
	}
	if describeChanges(nil, updated) != nil {
		t.Fatal("expected no changes without a previous config")
	}
}
