package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skosovsky/toolloop"
)

type askFlags struct {
	provider      string
	model         string
	maxIterations int
	failFast      bool
	parallel      bool
	system        string
}

func newAskCmd(root *rootFlags) *cobra.Command {
	flags := &askFlags{}
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question, calling tools as the model requests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, root, flags, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&flags.provider, "provider", "", "Model provider: openai or anthropic")
	cmd.Flags().StringVar(&flags.model, "model", "", "Model name")
	cmd.Flags().IntVar(&flags.maxIterations, "max-iterations", 0, "Maximum model turns")
	cmd.Flags().BoolVar(&flags.failFast, "fail-fast", false, "Abort on the first tool failure")
	cmd.Flags().BoolVar(&flags.parallel, "parallel", false, "Run the tool calls of one turn concurrently")
	cmd.Flags().StringVar(&flags.system, "system", "", "System prompt")
	return cmd
}

func runAsk(cmd *cobra.Command, root *rootFlags, flags *askFlags, question string) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	fs := cmd.Flags()
	if fs.Changed("provider") {
		cfg.Provider = flags.provider
	}
	if fs.Changed("model") {
		cfg.Model = flags.model
	}
	if fs.Changed("max-iterations") {
		cfg.Mediator.MaxIterations = flags.maxIterations
	}
	if fs.Changed("fail-fast") {
		cfg.Mediator.FailFast = flags.failFast
	}
	if fs.Changed("parallel") {
		cfg.Mediator.Parallel = flags.parallel
	}
	if fs.Changed("system") {
		cfg.SystemPrompt = flags.system
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	model, err := newModel(cfg)
	if err != nil {
		return err
	}
	reg, err := newRegistry(cfg, logger)
	if err != nil {
		return err
	}

	opts := []toolloop.MediatorOption{
		toolloop.WithLogger(logger),
		toolloop.WithMaxIterations(cfg.Mediator.MaxIterations),
		toolloop.WithSystemPrompt(cfg.SystemPrompt),
		toolloop.WithOnTransition(func(from, to toolloop.State) {
			logger.Debug("state", "from", from, "to", to)
		}),
	}
	if cfg.Mediator.FailFast {
		opts = append(opts, toolloop.WithFailFast())
	}
	if cfg.Mediator.Parallel {
		opts = append(opts, toolloop.WithParallelTools())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := toolloop.NewMediator(model, reg, opts...).Ask(ctx, question)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := reg.Shutdown(shutdownCtx); err != nil {
		logger.Warn("registry shutdown", "error", err)
	}

	if runErr != nil {
		var limitErr *toolloop.IterationLimitError
		if errors.As(runErr, &limitErr) {
			return fmt.Errorf("%w (raise --max-iterations to allow more tool calls)", runErr)
		}
		return runErr
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Content)
	return err
}
