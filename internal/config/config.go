// Package config loads the toolloop CLI configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skosovsky/toolloop"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the CLI configuration. Zero fields are filled from Default.
type Config struct {
	Provider     string         `yaml:"provider"`
	Model        string         `yaml:"model"`
	MaxTokens    int            `yaml:"max_tokens"`
	SystemPrompt string         `yaml:"system_prompt"`
	LogLevel     string         `yaml:"log_level"`
	Mediator     MediatorConfig `yaml:"mediator"`
	Tools        ToolsConfig    `yaml:"tools"`
	OpenAI       Endpoint       `yaml:"openai"`
	Anthropic    Endpoint       `yaml:"anthropic"`
	MarketData   Endpoint       `yaml:"marketdata"`
}

// MediatorConfig mirrors the Mediator options.
type MediatorConfig struct {
	MaxIterations int  `yaml:"max_iterations"`
	FailFast      bool `yaml:"fail_fast"`
	Parallel      bool `yaml:"parallel"`
}

// ToolsConfig mirrors the Registry options.
type ToolsConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
}

// Endpoint holds credentials and an optional base URL override for a remote API.
type Endpoint struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:     ProviderOpenAI,
		LogLevel:     "warn",
		SystemPrompt: "You are a financial assistant. Use the tools to look up stock prices; never guess a number.",
		Mediator:     MediatorConfig{MaxIterations: toolloop.DefaultMaxIterations},
		Tools:        ToolsConfig{Timeout: 10 * time.Second, MaxConcurrency: 4},
	}
}

// Path returns the default configuration file path: ~/.toolloop/config.yaml.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".toolloop", "config.yaml")
	}
	return filepath.Join(home, ".toolloop", "config.yaml")
}

// Load reads the file at path (Path() when empty) over Default and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyEnv overrides API keys with non-empty environment variables.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&c.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	set(&c.MarketData.APIKey, "MARKETDATA_API_KEY", "POLYGON_API_KEY")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderOpenAI, ProviderAnthropic)
	}
	if c.Mediator.MaxIterations < 1 {
		return fmt.Errorf("mediator.max_iterations must be at least 1, got %d", c.Mediator.MaxIterations)
	}
	if c.Tools.Timeout < 0 {
		return fmt.Errorf("tools.timeout must not be negative, got %s", c.Tools.Timeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// ProviderKey returns the API key of the selected provider.
func (c *Config) ProviderKey() string {
	if c.Provider == ProviderAnthropic {
		return c.Anthropic.APIKey
	}
	return c.OpenAI.APIKey
}
