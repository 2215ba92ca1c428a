package export

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/domain"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// NewExportCmd は export コマンドを作成する
func NewExportCmd(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <format>",
		Short: "Export a backup to Terraform, Git or JSON",
		Long: `Export a backup.

The backup is taken from --backup, the selected backup, or the latest
backup of the first connected org, in that order.`,
		Example: `  $ butterfly export terraform
  $ butterfly export tf --backup abc123 --output ./okta-tf
  $ butterfly export git`,
	}

	cmd.AddCommand(newTerraformCmd(f))
	cmd.AddCommand(newGitCmd(f))
	cmd.AddCommand(newJSONCmd(f))

	return cmd
}

// resolveBackup はエクスポート対象のバックアップを決め、どこから決まったかを表示する
func resolveBackup(ctx context.Context, f *cmdutil.Factory, flag string) (cmdutil.BackupRef, error) {
	client, cfg, err := f.Client()
	if err != nil {
		return cmdutil.BackupRef{}, err
	}

	spinner := ui.NewSpinner()
	if flag == "" {
		spinner.Start("Finding latest backup...")
	}
	ref, err := cmdutil.ResolveBackup(ctx, client, cfg, flag)
	spinner.Stop()
	if err != nil {
		return cmdutil.BackupRef{}, err
	}

	switch ref.Source {
	case cmdutil.SourceSelected:
		ui.Info("Using selected backup %s", ui.Cyan(domain.ShortID(ref.ID)))
	case cmdutil.SourceLatest:
		ui.Info("Using latest backup %s", ui.Cyan(domain.ShortID(ref.ID)))
	}
	return ref, nil
}

func newJSONCmd(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "json",
		Short: "Export a backup as JSON (coming soon)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(f.IO.Out, ui.Gray("JSON export coming soon..."))
			return nil
		},
	}
}
