package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL mirrors the pipeline default.
	DefaultBaseURL = "/api"
	// DefaultTimeoutMS mirrors the pipeline default.
	DefaultTimeoutMS = 10000
	// DefaultTokenKey names the credential entry in persistent stores.
	DefaultTokenKey = "token"
	// DefaultFixturePort is the port the fixture server listens on.
	DefaultFixturePort = 3000
	// DefaultFixtureTotal is the number of synthetic table records.
	DefaultFixtureTotal = 205
)

// Token store types.
const (
	TokenStoreMemory   = "memory"
	TokenStoreFile     = "file"
	TokenStorePostgres = "postgres"
	TokenStoreObject   = "object"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	SDKConfig `yaml:",inline"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile writes logs to rotating files instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogsMaxTotalSizeMB limits the total size of the log directory. <= 0 disables the limit.
	LogsMaxTotalSizeMB int `yaml:"logs-max-total-size-mb" json:"logs-max-total-size-mb"`

	// TokenStore selects where the bearer credential is persisted.
	TokenStore TokenStoreConfig `yaml:"token-store" json:"token-store"`

	// PostgresStore configures the PostgreSQL credential store.
	PostgresStore PostgresStoreConfig `yaml:"postgres-store" json:"postgres-store"`

	// ObjectStore configures the S3-compatible credential store.
	ObjectStore ObjectStoreConfig `yaml:"object-store" json:"object-store"`

	// OAuth2 enables a client-credentials token source instead of a stored token.
	OAuth2 OAuth2Config `yaml:"oauth2" json:"oauth2"`

	// DownloadDir is where downloaded files are written.
	DownloadDir string `yaml:"download-dir" json:"download-dir"`

	// OpenDownloads opens each downloaded file with the host's default application.
	OpenDownloads bool `yaml:"open-downloads" json:"open-downloads"`

	// Fixture configures the bundled fixture server.
	Fixture FixtureConfig `yaml:"fixture" json:"fixture"`
}

// TokenStoreConfig selects the credential backend.
type TokenStoreConfig struct {
	// Type is one of memory, file, postgres, object.
	Type string `yaml:"type" json:"type"`
	// Path is the JSON file used by the file store.
	Path string `yaml:"path" json:"path"`
	// Key names the credential entry.
	Key string `yaml:"key" json:"key"`
}

// PostgresStoreConfig captures configuration required to initialize a Postgres-backed store.
type PostgresStoreConfig struct {
	DSN    string `yaml:"dsn" json:"dsn"`
	Schema string `yaml:"schema" json:"schema"`
	Table  string `yaml:"table" json:"table"`
}

// ObjectStoreConfig captures configuration for the object storage-backed store.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	AccessKey string `yaml:"access-key" json:"access-key"`
	SecretKey string `yaml:"secret-key" json:"secret-key"`
	Region    string `yaml:"region" json:"region"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	UseSSL    bool   `yaml:"use-ssl" json:"use-ssl"`
	PathStyle bool   `yaml:"path-style" json:"path-style"`
}

// OAuth2Config holds client-credentials grant settings.
type OAuth2Config struct {
	TokenURL     string   `yaml:"token-url" json:"token-url"`
	ClientID     string   `yaml:"client-id" json:"client-id"`
	ClientSecret string   `yaml:"client-secret" json:"client-secret"`
	Scopes       []string `yaml:"scopes,omitempty" json:"scopes,omitempty"`
}

// Enabled reports whether enough settings are present to request tokens.
func (o OAuth2Config) Enabled() bool {
	return strings.TrimSpace(o.TokenURL) != "" && strings.TrimSpace(o.ClientID) != ""
}

// FixtureConfig configures the fixture server.
type FixtureConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	// Total is the number of synthetic table records served.
	Total int `yaml:"total" json:"total"`
	// Username and Password define the demo account accepted by /auth/login.
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	// PasswordHash is a bcrypt hash that takes precedence over Password.
	PasswordHash string `yaml:"password-hash" json:"password-hash"`
	// FilesDir holds files served by /files and written by /upload. Empty serves generated content.
	FilesDir string `yaml:"files-dir" json:"files-dir"`
}

// LoadConfig reads the configuration file at path. The file must exist.
func LoadConfig(configFile string) (*Config, error) {
	return LoadConfigOptional(configFile, false)
}

// LoadConfigOptional reads the configuration file at path. When optional is true a missing
// or empty path yields the defaults.
func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	cfg := &Config{}
	path := strings.TrimSpace(configFile)
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if len(data) > 0 {
				if errParse := yaml.Unmarshal(data, cfg); errParse != nil {
					return nil, fmt.Errorf("config: parse %s: %w", path, errParse)
				}
			}
		case errors.Is(err, fs.ErrNotExist) && optional:
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if !optional {
		return nil, fmt.Errorf("config: path is empty")
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.SanitizeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment overrides. lookup mirrors os.LookupEnv.
func (cfg *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(keys ...string) (string, bool) {
		for _, key := range keys {
			if value, ok := lookup(key); ok {
				if trimmed := strings.TrimSpace(value); trimmed != "" {
					return trimmed, true
				}
			}
		}
		return "", false
	}
	if v, ok := get("API_BASE_URL", "api_base_url"); ok {
		cfg.BaseURL = v
	}
	if v, ok := get("API_TIMEOUT_MS", "api_timeout_ms"); ok {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: API_TIMEOUT_MS: %w", err)
		}
		cfg.TimeoutMS = ms
	}
	if v, ok := get("API_TOKEN_STORE", "api_token_store"); ok {
		cfg.TokenStore.Type = v
	}
	if v, ok := get("PGSTORE_DSN", "pgstore_dsn"); ok {
		cfg.PostgresStore.DSN = v
	}
	if v, ok := get("OBJECTSTORE_ACCESS_KEY", "objectstore_access_key"); ok {
		cfg.ObjectStore.AccessKey = v
	}
	if v, ok := get("OBJECTSTORE_SECRET_KEY", "objectstore_secret_key"); ok {
		cfg.ObjectStore.SecretKey = v
	}
	return nil
}

// SanitizeDefaults fills unset fields with their defaults.
func (cfg *Config) SanitizeDefaults() {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TimeoutMS <= 0 {
		cfg.TimeoutMS = DefaultTimeoutMS
	}
	cfg.TokenStore.Type = strings.ToLower(strings.TrimSpace(cfg.TokenStore.Type))
	if cfg.TokenStore.Type == "" {
		cfg.TokenStore.Type = TokenStoreMemory
	}
	if strings.TrimSpace(cfg.TokenStore.Key) == "" {
		cfg.TokenStore.Key = DefaultTokenKey
	}
	if cfg.TokenStore.Type == TokenStoreFile && strings.TrimSpace(cfg.TokenStore.Path) == "" {
		cfg.TokenStore.Path = "credentials.json"
	}
	if cfg.Fixture.Port <= 0 {
		cfg.Fixture.Port = DefaultFixturePort
	}
	if cfg.Fixture.Total <= 0 {
		cfg.Fixture.Total = DefaultFixtureTotal
	}
	if strings.TrimSpace(cfg.Fixture.Username) == "" {
		cfg.Fixture.Username = "admin"
	}
	if cfg.Fixture.Password == "" && cfg.Fixture.PasswordHash == "" {
		cfg.Fixture.Password = "admin"
	}
}

// Validate reports configuration values that cannot be used.
func (cfg *Config) Validate() error {
	switch cfg.TokenStore.Type {
	case TokenStoreMemory, TokenStoreFile:
	case TokenStorePostgres:
		if strings.TrimSpace(cfg.PostgresStore.DSN) == "" {
			return fmt.Errorf("config: token-store postgres requires postgres-store.dsn")
		}
	case TokenStoreObject:
		if strings.TrimSpace(cfg.ObjectStore.Endpoint) == "" || strings.TrimSpace(cfg.ObjectStore.Bucket) == "" {
			return fmt.Errorf("config: token-store object requires object-store endpoint and bucket")
		}
	default:
		return fmt.Errorf("config: unknown token-store type %q", cfg.TokenStore.Type)
	}
	if cfg.Fixture.Port > 65535 {
		return fmt.Errorf("config: fixture.port %d out of range", cfg.Fixture.Port)
	}
	return nil
}
