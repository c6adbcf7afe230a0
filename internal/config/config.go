// Package config provides configuration management for the x-bookmarks CLI.
// It handles loading and parsing YAML configuration files, and provides structured
// access to application settings including the auth directory, proxy configuration,
// OAuth callback behavior, and the external bird CLI location.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values applied when the configuration file omits a setting.
const (
	// DefaultAuthDir is where tokens.json and config.json live unless overridden.
	DefaultAuthDir = "~/.config/x-bookmarks"

	// DefaultCallbackPort is the registered OAuth redirect port.
	DefaultCallbackPort = 8739

	// DefaultBirdBinary is the external cookie-auth CLI looked up on PATH.
	DefaultBirdBinary = "bird"

	// DefaultFetchCount is how many bookmarks a fetch returns when no count is given.
	DefaultFetchCount = 20
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// AuthDir is the directory holding the persisted token and client files.
	AuthDir string `yaml:"auth-dir" json:"auth-dir"`

	// ProxyURL is the URL of an optional proxy server to use for outbound requests.
	ProxyURL string `yaml:"proxy-url" json:"proxy-url"`

	// CallbackPort is the local port the OAuth redirect listener binds to.
	CallbackPort int `yaml:"callback-port" json:"callback-port"`

	// BirdBinary is the path or name of the external bird CLI used for the
	// cookie-auth acquisition path.
	BirdBinary string `yaml:"bird-binary" json:"bird-binary"`

	// FetchCount is the default number of bookmarks returned by a fetch.
	FetchCount int `yaml:"fetch-count" json:"fetch-count"`

	// LoggingToFile enables rotating log files instead of stdout logging.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// Debug enables debug level logging.
	Debug bool `yaml:"debug" json:"debug"`
}

// Default returns a configuration populated with the built-in defaults.
func Default() *Config {
	return &Config{
		AuthDir:      DefaultAuthDir,
		CallbackPort: DefaultCallbackPort,
		BirdBinary:   DefaultBirdBinary,
		FetchCount:   DefaultFetchCount,
	}
}

// LoadConfig reads the YAML configuration from the given path. A missing file
// is not an error; the defaults are returned so the CLI works without any
// configuration step.
func LoadConfig(configFile string) (*Config, error) {
	cfg := Default()
	if configFile == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s failed: %w", configFile, err)
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s failed: %w", configFile, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills zero values left by a partial configuration file.
func applyDefaults(cfg *Config) {
	if cfg.AuthDir == "" {
		cfg.AuthDir = DefaultAuthDir
	}
	if cfg.CallbackPort <= 0 {
		cfg.CallbackPort = DefaultCallbackPort
	}
	if cfg.BirdBinary == "" {
		cfg.BirdBinary = DefaultBirdBinary
	}
	if cfg.FetchCount <= 0 {
		cfg.FetchCount = DefaultFetchCount
	}
}
