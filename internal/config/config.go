// Package config loads the server configuration from an optional YAML file
// with environment variable overrides layered on top.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config path used when none is supplied.
const DefaultConfigFile = "grantcore.yaml"

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8080"},
		Storage: StorageConfig{Driver: "sqlite"},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the config file at path when it exists, then applies
// environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfPresent(&c.Server.Addr, "GRANTCORE_ADDR")
	setIfPresent(&c.Storage.Driver, "GRANTCORE_STORAGE_DRIVER")
	setIfPresent(&c.Storage.SQLitePath, "GRANTCORE_SQLITE_PATH")
	setIfPresent(&c.Storage.PostgresDSN, "GRANTCORE_POSTGRES_DSN")
	setIfPresent(&c.Log.Level, "GRANTCORE_LOG_LEVEL")
	setIfPresent(&c.Log.Format, "GRANTCORE_LOG_FORMAT")
}

func setIfPresent(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
