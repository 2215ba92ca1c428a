package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/cmd/auth"
	"github.com/butterflysecurity/butterfly-cli/internal/cmd/backup"
	configcmd "github.com/butterflysecurity/butterfly-cli/internal/cmd/config"
	"github.com/butterflysecurity/butterfly-cli/internal/cmd/diff"
	"github.com/butterflysecurity/butterfly-cli/internal/cmd/export"
	"github.com/butterflysecurity/butterfly-cli/internal/cmd/status"
	"github.com/butterflysecurity/butterfly-cli/internal/cmd/watch"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/debug"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// コマンドグループ
const (
	groupAuth   = "auth"
	groupBackup = "backup"
	groupData   = "data"
	groupOther  = "other"
)

// NewRootCmd はルートコマンドを作成する
func NewRootCmd(f *cmdutil.Factory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "butterfly",
		Short: "Butterfly Security CLI - Okta backup & recovery from your terminal",
		Long: `Butterfly Security CLI brings Okta backup and recovery to your terminal.

Trigger backups, compare snapshots, export to Terraform or Git, and watch
your org for configuration drift.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// デバッグモードの有効化
			if debugFlag, _ := cmd.Flags().GetBool("debug"); debugFlag {
				debug.Enable()
			}

			// カラー設定
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				ui.SetColorEnabled(false)
			}

			f.JQ, _ = cmd.Flags().GetString("jq")
			return nil
		},
	}

	// グローバルフラグ
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("jq", "", "Filter JSON output using a jq expression")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupAuth, Title: "Authentication:"},
		&cobra.Group{ID: groupBackup, Title: "Backup Operations:"},
		&cobra.Group{ID: groupData, Title: "Compare & Export:"},
		&cobra.Group{ID: groupOther, Title: "Configuration & Monitoring:"},
	)

	addToGroup(rootCmd, groupAuth,
		auth.NewLoginCmd(f),
		auth.NewLogoutCmd(f),
		auth.NewWhoamiCmd(f),
		status.NewStatusCmd(f),
	)
	addToGroup(rootCmd, groupBackup,
		backup.NewBackupCmd(f),
		backup.NewListCmd(f),
		backup.NewSelectCmd(f),
		backup.NewSelectedCmd(f),
	)
	addToGroup(rootCmd, groupData,
		diff.NewDiffCmd(f),
		export.NewExportCmd(f),
	)
	addToGroup(rootCmd, groupOther,
		configcmd.NewConfigCmd(f),
		watch.NewWatchCmd(f),
	)

	rootCmd.AddCommand(newVersionCmd(f))
	rootCmd.AddCommand(newCompletionCmd(f))

	return rootCmd
}

func addToGroup(root *cobra.Command, groupID string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = groupID
		root.AddCommand(c)
	}
}

// Execute はルートコマンドを実行し、終了コードを返す
func Execute() ExitCode {
	f := cmdutil.New()
	err := NewRootCmd(f).ExecuteContext(context.Background())
	return HandleError(err)
}
