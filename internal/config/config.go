// Package config provides configuration management for the NIM proxy server.
// It handles loading and parsing YAML configuration files, applying environment
// variable overrides, and provides structured access to application settings
// including the listen port, model mapping table, and upstream credentials.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the listen port used when neither the config file nor
	// the PORT environment variable specifies one.
	DefaultPort = 3000

	// DefaultUpstreamBaseURL is the NVIDIA NIM OpenAI-compatible API root.
	DefaultUpstreamBaseURL = "https://integrate.api.nvidia.com/v1"

	// DefaultModel is the upstream model used when a requested model name
	// has no entry in the mapping table.
	DefaultModel = "meta/llama-3.1-70b-instruct"
)

// Config represents the application's configuration, loaded from an optional
// YAML file with environment variable overrides applied on top.
type Config struct {
	// Port is the network port on which the API server will listen.
	Port int `yaml:"port"`

	// Debug enables or disables debug-level logging.
	Debug bool `yaml:"debug"`

	// ProxyURL is the URL of an optional proxy server to use for outbound requests.
	ProxyURL string `yaml:"proxy-url"`

	// RequestLog enables or disables detailed request logging functionality.
	RequestLog bool `yaml:"request-log"`

	// UpstreamBaseURL is the base URL of the NIM chat-completions API.
	UpstreamBaseURL string `yaml:"upstream-base-url"`

	// DefaultModel is the upstream model identifier used for unmapped
	// client-facing model names.
	DefaultModel string `yaml:"default-model"`

	// Models defines the client-facing model aliases and the upstream
	// NIM model identifiers they resolve to.
	Models []ModelMapping `yaml:"models"`

	// APIKey is the upstream NIM API credential. It is never read from the
	// YAML file; it comes exclusively from the NIM_API_KEY environment
	// variable so the credential stays out of config files.
	APIKey string `yaml:"-"`
}

// ModelMapping maps one client-facing model name to an upstream NIM model
// identifier.
type ModelMapping struct {
	// Alias is the model name clients send in requests.
	Alias string `yaml:"alias"`

	// Name is the NIM model identifier the alias resolves to.
	Name string `yaml:"name"`
}

// DefaultModelMappings returns the built-in mapping table used when the
// config file does not define one. OpenAI model names resolve to comparable
// Llama deployments; NIM-native names map to themselves so clients may also
// address upstream models directly.
func DefaultModelMappings() []ModelMapping {
	return []ModelMapping{
		{Alias: "gpt-4", Name: "meta/llama-3.1-70b-instruct"},
		{Alias: "gpt-4-turbo", Name: "meta/llama-3.1-70b-instruct"},
		{Alias: "gpt-4o", Name: "meta/llama-3.1-405b-instruct"},
		{Alias: "gpt-3.5-turbo", Name: "meta/llama-3.1-8b-instruct"},
		{Alias: "meta/llama-3.1-8b-instruct", Name: "meta/llama-3.1-8b-instruct"},
		{Alias: "meta/llama-3.1-70b-instruct", Name: "meta/llama-3.1-70b-instruct"},
		{Alias: "meta/llama-3.1-405b-instruct", Name: "meta/llama-3.1-405b-instruct"},
		{Alias: "mistralai/mixtral-8x7b-instruct-v0.1", Name: "mistralai/mixtral-8x7b-instruct-v0.1"},
	}
}

// LoadConfig reads a YAML configuration file from the given path, unmarshals
// it into a Config struct, fills in defaults, and applies environment
// variable overrides. An empty path skips the file read and yields a
// defaults-plus-environment configuration, so the server runs without any
// config file at all.
func LoadConfig(configFile string) (*Config, error) {
	var config Config

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err = yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyDefaults()
	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills zero-valued fields with their built-in defaults.
func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.UpstreamBaseURL == "" {
		c.UpstreamBaseURL = DefaultUpstreamBaseURL
	}
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModel
	}
	if len(c.Models) == 0 {
		c.Models = DefaultModelMappings()
	}
}

// applyEnv applies environment variable overrides on top of the loaded file.
func (c *Config) applyEnv() error {
	c.APIKey = os.Getenv("NIM_API_KEY")

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT value %q: %w", port, err)
		}
		c.Port = p
	}

	return nil
}

// Validate checks the invariants that must hold before the server may start.
// A missing upstream credential is fatal: the proxy cannot issue a single
// useful request without it.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("NIM_API_KEY environment variable is required")
	}
	return nil
}
