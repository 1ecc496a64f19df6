package main

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

func newToolsCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool declarations sent to the model as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			reg, err := newRegistry(cfg, slogDiscard())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reg.Declarations())
		},
	}
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
