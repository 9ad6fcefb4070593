package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigOptionalMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("API_TIMEOUT_MS", "")
	t.Setenv("API_TOKEN_STORE", "")

	cfg, err := LoadConfigOptional(filepath.Join(t.TempDir(), "missing.yaml"), true)
	if err != nil {
		t.Fatalf("LoadConfigOptional error: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.TimeoutMS != DefaultTimeoutMS {
		t.Fatalf("TimeoutMS = %d, want %d", cfg.TimeoutMS, DefaultTimeoutMS)
	}
	if cfg.TokenStore.Type != TokenStoreMemory || cfg.TokenStore.Key != DefaultTokenKey {
		t.Fatalf("token store = %+v", cfg.TokenStore)
	}
	if cfg.Fixture.Total != DefaultFixtureTotal || cfg.Fixture.Port != DefaultFixturePort {
		t.Fatalf("fixture = %+v", cfg.Fixture)
	}
}

func TestLoadConfigRequiresFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigParsesYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
base-url: http://localhost:3000
timeout-ms: 2500
ok-codes: [200]
token-store:
  type: file
fixture:
  total: 42
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("API_BASE_URL", "http://example.test/api")
	t.Setenv("API_TIMEOUT_MS", "")
	t.Setenv("API_TOKEN_STORE", "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.BaseURL != "http://example.test/api" {
		t.Fatalf("BaseURL = %q, want env override", cfg.BaseURL)
	}
	if cfg.TimeoutMS != 2500 {
		t.Fatalf("TimeoutMS = %d, want 2500", cfg.TimeoutMS)
	}
	if len(cfg.OKCodes) != 1 || cfg.OKCodes[0] != 200 {
		t.Fatalf("OKCodes = %v, want [200]", cfg.OKCodes)
	}
	if cfg.TokenStore.Path != "credentials.json" {
		t.Fatalf("TokenStore.Path = %q, want default file path", cfg.TokenStore.Path)
	}
	if cfg.Fixture.Total != 42 {
		t.Fatalf("Fixture.Total = %d, want 42", cfg.Fixture.Total)
	}
}

func TestValidateRejectsIncompleteStores(t *testing.T) {
	cfg := &Config{TokenStore: TokenStoreConfig{Type: TokenStorePostgres}}
	cfg.SanitizeDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected postgres store without DSN to fail validation")
	}

	cfg = &Config{TokenStore: TokenStoreConfig{Type: "floppy"}}
	cfg.SanitizeDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown store type to fail validation")
	}
}

func TestApplyEnvRejectsBadTimeout(t *testing.T) {
	cfg := &Config{}
	lookup := func(key string) (string, bool) {
		if key == "API_TIMEOUT_MS" {
			return "soon", true
		}
		return "", false
	}
	if err := cfg.applyEnv(lookup); err == nil {
		t.Fatal("expected non-numeric timeout to fail")
	}
}
