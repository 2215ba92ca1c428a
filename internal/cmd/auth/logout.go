package auth

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// NewLogoutCmd は logout コマンドを作成する
func NewLogoutCmd(f *cmdutil.Factory) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long:  "Remove the stored API key. All local configuration is reset to defaults.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context(), f, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runLogout(ctx context.Context, f *cmdutil.Factory, yes bool) error {
	cfg, err := f.Config()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.IsAuthenticated() {
		ui.Info("You are not logged in.")
		return nil
	}

	if !yes {
		confirmed, err := f.Prompter.Confirm("Are you sure you want to log out?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	if err := cfg.Clear(ctx); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	ui.Success("Logged out successfully")
	return nil
}
