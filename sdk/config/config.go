// Package config provides the public SDK configuration API.
//
// It re-exports the configuration types and helpers so external projects can
// embed the request pipeline without importing internal packages.
package config

import internalconfig "github.com/zcc135820/reqpipe/internal/config"

type SDKConfig = internalconfig.SDKConfig

type Config = internalconfig.Config

type TokenStoreConfig = internalconfig.TokenStoreConfig
type PostgresStoreConfig = internalconfig.PostgresStoreConfig
type ObjectStoreConfig = internalconfig.ObjectStoreConfig
type OAuth2Config = internalconfig.OAuth2Config
type FixtureConfig = internalconfig.FixtureConfig

const (
	DefaultBaseURL   = internalconfig.DefaultBaseURL
	DefaultTimeoutMS = internalconfig.DefaultTimeoutMS
)

func LoadConfig(configFile string) (*Config, error) { return internalconfig.LoadConfig(configFile) }

func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	return internalconfig.LoadConfigOptional(configFile, optional)
}
