package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/config"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

func newSetCmd(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Valid keys: apiUrl, defaultOrg`,
		Example: `  $ butterfly config set defaultOrg acme
  $ butterfly config set apiUrl https://staging.butterflysecurity.org`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, f, args[0], args[1])
		},
	}
}

func runSet(cmd *cobra.Command, f *cmdutil.Factory, key, value string) error {
	if !lo.Contains(config.SettableKeys, key) {
		return fmt.Errorf("invalid config key: %s (valid keys: %s)", key, strings.Join(config.SettableKeys, ", "))
	}
	if err := validateValue(key, value); err != nil {
		return err
	}

	cfg, err := f.Config()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Set(cmd.Context(), key, value); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	ui.Success("Set %s = %s", key, value)
	return nil
}

// validateValue はキーごとの値の形式を検証する
func validateValue(key, value string) error {
	if key != config.KeyAPIURL {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API URL: %s", value)
	}
	return nil
}
