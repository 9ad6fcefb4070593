package misc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureConfig(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "config.example.yaml")
	target := filepath.Join(dir, "conf", "config.yaml")

	created, err := EnsureConfig(target, template)
	if err != nil || created {
		t.Fatalf("without template: created=%v err=%v", created, err)
	}

	if err = os.WriteFile(template, []byte("debug: true\n"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	created, err = EnsureConfig(target, template)
	if err != nil || !created {
		t.Fatalf("with template: created=%v err=%v", created, err)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "debug: true\n" {
		t.Fatalf("copied content %q", data)
	}

	_ = os.WriteFile(target, []byte("debug: false\n"), 0o600)
	if created, _ = EnsureConfig(target, template); created {
		t.Fatal("existing config overwritten")
	}
}
