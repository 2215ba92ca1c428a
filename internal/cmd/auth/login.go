package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/config"
	"github.com/butterflysecurity/butterfly-cli/internal/debug"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// 認証方式
const (
	methodAPIKey  = "apikey"
	methodBrowser = "browser"
)

// SettingsURL は API キーを発行するダッシュボードのページ
const SettingsURL = "https://butterflysecurity.org/dashboard/settings"

type loginOptions struct {
	f           *cmdutil.Factory
	apiKey      string
	interactive bool
}

// NewLoginCmd は login コマンドを作成する
func NewLoginCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &loginOptions{f: f}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Butterfly Security",
		Long: `Authenticate with Butterfly Security using an API key or the browser.

The key is validated against the API before it is saved.`,
		Example: `  $ butterfly login                  # Choose a method interactively
  $ butterfly login -k sk_live_xxx    # Login with an API key
  $ butterfly login -i                # Login via browser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.apiKey, "api-key", "k", "", "API key (get from Dashboard → Settings)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Open browser for interactive login")
	cmd.MarkFlagsMutuallyExclusive("api-key", "interactive")

	return cmd
}

func runLogin(ctx context.Context, opts *loginOptions) error {
	f := opts.f
	cfg, err := f.Config()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := f.IO.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Bold(ui.Cyan("🦋 Butterfly Security CLI")))
	fmt.Fprintln(out)

	switch {
	case opts.apiKey != "":
		return loginWithAPIKey(ctx, f, cfg, opts.apiKey)
	case opts.interactive:
		return loginWithBrowser(ctx, f, cfg)
	}

	method, err := f.Prompter.ChooseOne("How would you like to authenticate?", []ui.Choice{
		{Label: "Enter API key", Value: methodAPIKey},
		{Label: "Login via browser", Value: methodBrowser},
	})
	if err != nil {
		return err
	}

	if method == methodBrowser {
		return loginWithBrowser(ctx, f, cfg)
	}

	key, err := f.Prompter.Password("Enter your API key:")
	if err != nil {
		return err
	}
	return loginWithAPIKey(ctx, f, cfg, key)
}

// loginWithAPIKey は /auth/me でキーを検証してから保存する
func loginWithAPIKey(ctx context.Context, f *cmdutil.Factory, cfg *config.Store, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key is required")
	}

	spinner := ui.NewSpinner()
	spinner.Start("Validating API key...")

	me, err := f.NewClient(cfg.APIURL(), key).CurrentUser(ctx)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			spinner.Fail("Invalid API key")
			ui.Info("Get your API key from: %s", SettingsURL)
			return fmt.Errorf("the API key provided is invalid or expired: %w", err)
		}
		spinner.Fail("Authentication failed")
		return err
	}
	spinner.Succeed("API key validated")

	if err := cfg.SetAPIKey(ctx, key); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	email := me.EmailAddress()
	if email == "" {
		email = "user"
	}

	out := f.IO.Out
	fmt.Fprintln(out)
	ui.Success("Logged in as %s", ui.Cyan(email))
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Box("Getting Started", strings.Join([]string{
		"You're all set! Try these commands:",
		"",
		"  " + ui.Cyan("butterfly status") + "     Show backup status",
		"  " + ui.Cyan("butterfly backup") + "     Trigger a backup",
		"  " + ui.Cyan("butterfly list") + "       List all backups",
		"  " + ui.Cyan("butterfly --help") + "     Show all commands",
	}, "\n"), ui.BoxCyan))
	return nil
}

// loginWithBrowser はブラウザでログインページを開き、表示されたトークンを貼り付けてもらう
func loginWithBrowser(ctx context.Context, f *cmdutil.Factory, cfg *config.Store) error {
	loginURL := cfg.APIURL() + "/login?cli=true"

	ui.Info("Opening browser to: %s", ui.Cyan(loginURL))
	fmt.Fprintln(f.IO.Out)
	fmt.Fprintln(f.IO.Out, ui.Gray("If the browser doesn't open, visit the URL above manually."))
	fmt.Fprintln(f.IO.Out)

	if err := f.OpenBrowser(loginURL); err != nil {
		debug.Log("failed to open browser", "url", loginURL, "error", err)
	}

	token, err := f.Prompter.Password("Paste the CLI token from your browser:")
	if err != nil {
		return err
	}
	return loginWithAPIKey(ctx, f, cfg, token)
}
