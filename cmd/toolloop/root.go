package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/skosovsky/toolloop"
	"github.com/skosovsky/toolloop/internal/config"
	"github.com/skosovsky/toolloop/providers/anthropic"
	"github.com/skosovsky/toolloop/providers/openai"
	"github.com/skosovsky/toolloop/toolkits/marketdata"
)

const version = "0.1.0"

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "toolloop",
		Short:         "Ask a chat model questions it answers by calling tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (default ~/.toolloop/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newAskCmd(flags))
	cmd.AddCommand(newToolsCmd(flags))
	return cmd
}

// loadConfig reads the config file and applies the persistent flags.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// newRegistry registers the market data tools with logging middleware.
func newRegistry(cfg *config.Config, logger *slog.Logger) (*toolloop.Registry, error) {
	var opts []marketdata.Option
	if cfg.MarketData.BaseURL != "" {
		opts = append(opts, marketdata.WithBaseURL(cfg.MarketData.BaseURL))
	}
	tools, err := marketdata.Tools(marketdata.NewClient(cfg.MarketData.APIKey, opts...))
	if err != nil {
		return nil, err
	}
	reg := toolloop.NewRegistry(
		toolloop.WithDefaultTimeout(cfg.Tools.Timeout),
		toolloop.WithMaxConcurrency(cfg.Tools.MaxConcurrency),
	)
	reg.Use(toolloop.WithLogging(logger))
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// newModel builds the Model Endpoint selected by cfg.Provider.
func newModel(cfg *config.Config) (toolloop.Model, error) {
	key := cfg.ProviderKey()
	if key == "" {
		return nil, fmt.Errorf("no API key for provider %q: set it in the config file or the environment", cfg.Provider)
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithMaxTokens(cfg.MaxTokens)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		return openai.New(key, opts...), nil
	case config.ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithMaxTokens(cfg.MaxTokens)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		return anthropic.New(key, opts...), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
