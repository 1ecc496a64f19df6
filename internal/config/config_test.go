package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "MARKETDATA_API_KEY", "POLYGON_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Missing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.Provider, cfg.Provider)
	assert.Equal(t, 8, cfg.Mediator.MaxIterations)
	assert.Equal(t, 10*time.Second, cfg.Tools.Timeout)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
provider: anthropic
model: claude-test
max_tokens: 512
log_level: debug
mediator:
  max_iterations: 3
  fail_fast: true
  parallel: true
tools:
  timeout: 2s
  max_concurrency: 2
anthropic:
  api_key: from-file
marketdata:
  base_url: http://localhost:9999
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-test", cfg.Model)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, 3, cfg.Mediator.MaxIterations)
	assert.True(t, cfg.Mediator.FailFast)
	assert.True(t, cfg.Mediator.Parallel)
	assert.Equal(t, 2*time.Second, cfg.Tools.Timeout)
	assert.Equal(t, 2, cfg.Tools.MaxConcurrency)
	assert.Equal(t, "from-file", cfg.ProviderKey())
	assert.Equal(t, "http://localhost:9999", cfg.MarketData.BaseURL)
	// untouched fields keep defaults
	assert.NotEmpty(t, cfg.SystemPrompt)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("POLYGON_API_KEY", "env-polygon")
	path := writeConfig(t, "openai:\n  api_key: from-file\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-openai", cfg.OpenAI.APIKey)
	assert.Equal(t, "env-openai", cfg.ProviderKey())
	assert.Equal(t, "env-polygon", cfg.MarketData.APIKey)

	t.Setenv("MARKETDATA_API_KEY", "env-marketdata")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-marketdata", cfg.MarketData.APIKey)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "provider: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "gemini" }, wantErr: "unknown provider"},
		{name: "zero iterations", mutate: func(c *Config) { c.Mediator.MaxIterations = 0 }, wantErr: "max_iterations"},
		{name: "negative timeout", mutate: func(c *Config) { c.Tools.Timeout = -time.Second }, wantErr: "tools.timeout"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
