package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/domain"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// DefaultTerraformDir は --output の既定値
const DefaultTerraformDir = "./terraform-export"

type terraformOptions struct {
	f         *cmdutil.Factory
	backup    string
	output    string
	resources string
}

func newTerraformCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &terraformOptions{f: f}

	cmd := &cobra.Command{
		Use:     "terraform",
		Aliases: []string{"tf"},
		Short:   "Export a backup as Terraform files",
		Example: `  $ butterfly export terraform
  $ butterfly export tf -r users,groups -o ./okta-tf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerraform(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.backup, "backup", "b", "", "Backup ID (defaults to selected or latest backup)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", DefaultTerraformDir, "Output directory")
	cmd.Flags().StringVarP(&opts.resources, "resources", "r", "", "Comma-separated resources (default: users,groups,apps,policies)")

	return cmd
}

func runTerraform(ctx context.Context, opts *terraformOptions) error {
	f := opts.f

	resources := domain.WatchResources
	if opts.resources != "" {
		resources = domain.SplitResourceList(opts.resources)
		if len(resources) == 0 {
			return fmt.Errorf("no resource types specified")
		}
	}

	ref, err := resolveBackup(ctx, f, opts.backup)
	if err != nil {
		return err
	}
	client, _, err := f.Client()
	if err != nil {
		return err
	}

	spinner := ui.NewSpinner()
	spinner.Start(fmt.Sprintf("Exporting backup %s... as Terraform...", domain.ShortID(ref.ID)))
	result, err := client.ExportTerraform(ctx, ref.ID, resources)
	if err != nil {
		spinner.Fail("Export failed")
		return err
	}
	spinner.Stop()

	dir := opts.output
	if dir == "" {
		dir = DefaultTerraformDir
	}
	if err := writeFiles(dir, result.Files); err != nil {
		return err
	}

	out := f.IO.Out
	fmt.Fprintln(out)
	ui.Success("Exported %d Terraform files", len(result.Files))
	fmt.Fprintln(out)

	fmt.Fprintln(out, ui.Bold("Files created:"))
	for _, file := range result.Files {
		fmt.Fprintf(out, "  %s %s %s\n", ui.Gray("•"), ui.Cyan(file.Name), ui.Gray("("+ui.FormatBytes(int64(len(file.Content)))+")"))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Gray("Output directory: ")+dir)
	fmt.Fprintln(out, ui.Gray("Total size: ")+ui.FormatBytes(result.TotalSize))
	if result.DownloadURL != "" {
		fmt.Fprintln(out, ui.Gray("Download: ")+ui.Hyperlink(result.DownloadURL, result.DownloadURL))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Gray("Next steps:"))
	fmt.Fprintln(out, "  "+ui.Cyan("cd "+dir))
	fmt.Fprintln(out, "  "+ui.Cyan("terraform init"))
	fmt.Fprintln(out, "  "+ui.Cyan("terraform plan"))
	return nil
}

// writeFiles はエクスポートされたファイルを dir 直下に書き出す
// サーバーから来たファイル名にディレクトリ部分があっても dir の外には書かない
func writeFiles(dir string, files []api.TerraformFile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, file := range files {
		name := filepath.Base(file.Name)
		if name == "." || name == ".." || name == string(filepath.Separator) {
			return fmt.Errorf("invalid file name in export: %q", file.Name)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(file.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
