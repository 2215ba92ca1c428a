package backup

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/domain"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

type listOptions struct {
	f     *cmdutil.Factory
	org   string
	limit int
	json  bool
}

// NewListCmd は list コマンドを作成する
func NewListCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &listOptions{f: f}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent backups",
		Example: `  $ butterfly list
  $ butterfly list --org acme --limit 20
  $ butterfly ls --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.org, "org", "o", "", "Filter by specific Okta org URL or name")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Number of backups to show")
	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "Output as JSON")

	return cmd
}

func runList(ctx context.Context, opts *listOptions) error {
	if opts.limit <= 0 {
		return fmt.Errorf("--limit must be a positive number")
	}

	f := opts.f
	client, _, err := f.Client()
	if err != nil {
		return err
	}

	conns, err := cmdutil.LoadConnections(ctx, client)
	if err != nil {
		return err
	}
	conns, err = cmdutil.FilterByOrg(conns, opts.org)
	if err != nil {
		return err
	}

	groups, err := cmdutil.LoadBackupGroups(ctx, client, conns)
	if err != nil {
		return err
	}

	all := domain.FlattenBackups(groups, 0)
	entries := all
	if len(entries) > opts.limit {
		entries = entries[:opts.limit]
	}

	if opts.json {
		return f.PrintJSON(entries)
	}
	if len(entries) == 0 {
		return cmdutil.ErrNoBackups()
	}

	out := f.IO.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Bold(fmt.Sprintf("Recent Backups (%d of %d)", len(entries), len(all))))
	fmt.Fprintln(out)

	table := ui.NewTable("ID", "ORG", "DATE", "STATUS", "RESOURCES", "SIZE")
	for _, e := range entries {
		table.AddRow(
			ui.Cyan(domain.ShortID(e.ID)+"..."),
			e.OrgName,
			ui.FormatTimestamp(e.Time()),
			ui.StatusColor(e.Status),
			fmt.Sprint(e.TotalResources()),
			ui.FormatBytes(e.Size()),
		)
	}
	table.Render(out)

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Gray("Tip: Use `butterfly select <id>` to work with a specific backup"))
	return nil
}
