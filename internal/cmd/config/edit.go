package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/config"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

func newEditCmd(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit configuration interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, f)
		},
	}
}

func runEdit(cmd *cobra.Command, f *cmdutil.Factory) error {
	cfg, err := f.Config()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	currentURL := cfg.APIURL()
	currentOrg := cfg.DefaultOrg()

	apiURL, err := f.Prompter.TextInput("API URL:", currentURL, func(v string) error {
		return validateValue(config.KeyAPIURL, strings.TrimSpace(v))
	})
	if err != nil {
		return err
	}
	defaultOrg, err := f.Prompter.TextInput("Default Okta org (optional):", currentOrg, nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	// 変更のあったキーだけ保存する
	if apiURL = strings.TrimSpace(apiURL); apiURL != currentURL {
		if err := cfg.Set(ctx, config.KeyAPIURL, apiURL); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}
	if defaultOrg = strings.TrimSpace(defaultOrg); defaultOrg != currentOrg {
		if err := cfg.Set(ctx, config.KeyDefaultOrg, defaultOrg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	ui.Success("Configuration updated")
	return nil
}
