// Package config loads engine configuration from JSON config files and
// merges layered configs, CLI flags taking precedence over files.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds engine-level settings.
type Config struct {
	Timeout               int               `json:"timeout,omitempty"`    // milliseconds
	Retries               int               `json:"retries,omitempty"`
	RetryDelay            int               `json:"retryDelay,omitempty"` // milliseconds
	FollowRedirects       *bool             `json:"followRedirects,omitempty"`
	MaxRedirects          int               `json:"maxRedirects,omitempty"`
	ValidateSSL           *bool             `json:"validateSSL,omitempty"`
	Proxy                 string            `json:"proxy,omitempty"`
	Headers               map[string]string `json:"headers,omitempty"` // default headers for all requests
	Concurrency           int               `json:"concurrency,omitempty"`
	ResponseTimeThreshold int               `json:"responseTimeThreshold,omitempty"` // ms, alert trigger
	Reporters             []string          `json:"reporters,omitempty"`
	HistoryPath           string            `json:"historyPath,omitempty"` // SQLite file for run history
	AlertWebhook          string            `json:"alertWebhook,omitempty"`
	NoColor               *bool             `json:"noColor,omitempty"`
	Verbose               *bool             `json:"verbose,omitempty"`
}

// BoolPtr returns a pointer to a bool value.
func BoolPtr(b bool) *bool {
	return &b
}

func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true.
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true.
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetNoColor returns the no color setting, defaulting to false.
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetVerbose returns the verbose setting, defaulting to false.
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// ConfigFilenames contains the possible config file names, in lookup order.
var ConfigFilenames = []string{
	".webtest.config.json",
	"webtest.config.json",
	".webtestrc",
	".webtestrc.json",
}

// LoadConfig loads configuration from the specified path, or searches the
// current directory when the path is empty.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory.
// Returns defaults when no config file is found.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

// Merge merges another config into this one, with other taking precedence.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.Retries > 0 {
		result.Retries = other.Retries
	}
	if other.RetryDelay > 0 {
		result.RetryDelay = other.RetryDelay
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Concurrency > 0 {
		result.Concurrency = other.Concurrency
	}
	if other.ResponseTimeThreshold > 0 {
		result.ResponseTimeThreshold = other.ResponseTimeThreshold
	}
	if other.HistoryPath != "" {
		result.HistoryPath = other.HistoryPath
	}
	if other.AlertWebhook != "" {
		result.AlertWebhook = other.AlertWebhook
	}

	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}

	if len(other.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range other.Headers {
			result.Headers[k] = v
		}
	}

	if len(other.Reporters) > 0 {
		result.Reporters = other.Reporters
	}

	return &result
}
