// Package config provides configuration management for the request pipeline and the
// fixture server. It handles loading and parsing YAML configuration files, applies
// environment overrides, and exposes structured access to transport, logging,
// credential store and fixture settings.
package config

// SDKConfig holds the settings the request pipeline itself consumes.
type SDKConfig struct {
	// BaseURL is the prefix resolved against relative request paths.
	BaseURL string `yaml:"base-url" json:"base-url"`

	// TimeoutMS bounds each call in milliseconds. <= 0 falls back to the default (10000).
	TimeoutMS int `yaml:"timeout-ms" json:"timeout-ms"`

	// OKCodes lists the envelope codes treated as success. Empty means {200, 0}.
	OKCodes []int `yaml:"ok-codes,omitempty" json:"ok-codes,omitempty"`

	// ProxyURL is the URL of an optional proxy server to use for outbound requests.
	ProxyURL string `yaml:"proxy-url" json:"proxy-url"`

	// RequestLog enables debug logging of outbound request bodies (credentials redacted).
	RequestLog bool `yaml:"request-log" json:"request-log"`
}
