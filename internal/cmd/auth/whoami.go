package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// NewWhoamiCmd は whoami コマンドを作成する
func NewWhoamiCmd(f *cmdutil.Factory) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show current authentication status",
		Long: `Display the account the stored API key belongs to.

Examples:
  butterfly whoami
  butterfly whoami --quiet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := f.Client()
			if err != nil {
				if quiet {
					return cmdutil.ErrSilent
				}
				return err
			}

			me, err := client.CurrentUser(cmd.Context())
			if err != nil {
				if quiet {
					return cmdutil.ErrSilent
				}
				return fmt.Errorf("failed to get user info: %w", err)
			}

			// quiet モードは認証確認のみ
			if quiet {
				return nil
			}

			email := me.EmailAddress()
			if email == "" {
				email = ui.Gray("(unknown)")
			}
			out := f.IO.Out
			fmt.Fprintf(out, "Email:    %s\n", email)
			fmt.Fprintf(out, "API URL:  %s\n", cfg.APIURL())
			fmt.Fprintf(out, "API Key:  %s\n", maskKey(cfg.APIKey()))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Exit with code 0 if authenticated, 1 otherwise (no output)")

	return cmd
}

// maskKey は先頭4文字以外を伏せる
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
