package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

type resetOptions struct {
	f   *cmdutil.Factory
	yes bool
}

func newResetCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &resetOptions{f: f}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		Long:  "Reset configuration to defaults. This also removes your API key and backup selection.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runReset(cmd *cobra.Command, opts *resetOptions) error {
	f := opts.f
	if !opts.yes {
		confirmed, err := f.Prompter.Confirm("This will clear all configuration including your API key. Continue?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(f.IO.Out, ui.Gray("Cancelled."))
			return nil
		}
	}

	cfg, err := f.Config()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	ui.Success("Configuration reset to defaults")
	return nil
}
