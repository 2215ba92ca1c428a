package diff

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/config"
	"github.com/butterflysecurity/butterfly-cli/internal/domain"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

type diffOptions struct {
	f            *cmdutil.Factory
	from         string
	to           string
	resourceType string
	json         bool
}

// diffOutput は --json の出力
type diffOutput struct {
	From    string           `json:"from"`
	To      string           `json:"to"`
	Changes []api.DiffChange `json:"changes"`
	Summary api.DiffSummary  `json:"summary"`
}

// NewDiffCmd は diff コマンドを作成する
func NewDiffCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &diffOptions{f: f}

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two backups",
		Long: `Compare two backups and show what changed.

By default the selected backup (or the latest backup) is compared with the
backup taken just before it.`,
		Example: `  $ butterfly diff                            # Latest vs previous
  $ butterfly diff --type users               # Only users
  $ butterfly diff --from abc123 --to def456  # Specific backups`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "Older backup ID (defaults to the backup before --to)")
	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "Newer backup ID (defaults to selected or latest backup)")
	cmd.Flags().StringVar(&opts.resourceType, "type", "", "Filter by resource type (e.g. users, groups, apps)")
	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "Output as JSON")

	return cmd
}

// comparison は比較対象の2つのバックアップ
type comparison struct {
	from         string
	to           string
	connectionID string
}

func runDiff(ctx context.Context, opts *diffOptions) error {
	f := opts.f
	client, cfg, err := f.Client()
	if err != nil {
		return err
	}

	spinner := ui.NewSpinner()
	spinner.Start("Finding backups to compare...")
	cmp, err := resolveComparison(ctx, client, cfg, opts.from, opts.to)
	if err != nil {
		spinner.Stop()
		return err
	}

	spinner.Update(fmt.Sprintf("Comparing %s... → %s...", domain.ShortID(cmp.from), domain.ShortID(cmp.to)))
	result, err := client.Diff(ctx, cmp.from, cmp.to, cmp.connectionID)
	spinner.Stop()
	if err != nil {
		return fmt.Errorf("failed to generate diff: %w", err)
	}

	changes := filterByType(result.Changes, opts.resourceType)

	if opts.json {
		return f.PrintJSON(diffOutput{From: cmp.from, To: cmp.to, Changes: changes, Summary: result.Summary})
	}

	render(f, cmp, changes, result.Summary)
	return nil
}

// resolveComparison は --from / --to を決める
// --to は 指定 > 選択中 > 最初の接続の最新、--from は --to の1つ前
func resolveComparison(ctx context.Context, client cmdutil.APIClient, cfg *config.Store, from, to string) (comparison, error) {
	if from != "" && to != "" {
		return comparison{from: from, to: to}, nil
	}

	conns, err := cmdutil.LoadConnections(ctx, client)
	if err != nil {
		return comparison{}, err
	}

	conn := conns[0]
	sel := cfg.SelectedBackup()
	if to == "" && sel != nil && sel.ConnectionID != "" {
		c, ok := lo.Find(conns, func(c api.Connection) bool { return c.ID == sel.ConnectionID })
		if !ok {
			return comparison{}, fmt.Errorf("connection of the selected backup no longer exists; run `butterfly select` again")
		}
		conn = c
	}

	backups, err := client.ListBackups(ctx, conn.ID)
	if err != nil {
		return comparison{}, fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) < 2 {
		return comparison{}, &cmdutil.SoftError{
			Message: "Need at least 2 backups to compare",
			Hint:    "Run `butterfly backup` to create more backups.",
		}
	}

	var target api.Backup
	switch {
	case to != "":
		b, ok := domain.FindBackup(backups, to)
		if !ok {
			return comparison{}, fmt.Errorf("backup not found: %s", to)
		}
		target = b
	case sel != nil:
		b, ok := domain.FindBackup(backups, sel.ID)
		if !ok {
			return comparison{}, fmt.Errorf("selected backup %s not found; run `butterfly select` again", sel.ID)
		}
		target = b
	default:
		target, _ = domain.LatestBackup(backups)
	}

	if from == "" {
		prev, ok := domain.PreviousBackup(backups, target.ID)
		if !ok {
			return comparison{}, &cmdutil.SoftError{
				Message: fmt.Sprintf("No backup older than %s to compare with", domain.ShortID(target.ID)),
				Hint:    "Use --from to choose the backup to compare against.",
			}
		}
		from = prev.ID
	}

	return comparison{from: from, to: target.ID, connectionID: conn.ID}, nil
}

func filterByType(changes []api.DiffChange, resourceType string) []api.DiffChange {
	if resourceType == "" {
		return changes
	}
	return lo.Filter(changes, func(c api.DiffChange, _ int) bool {
		return strings.EqualFold(c.ResourceType, resourceType)
	})
}

func render(f *cmdutil.Factory, cmp comparison, changes []api.DiffChange, summary api.DiffSummary) {
	out := f.IO.Out

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Bold("Backup Diff"))
	fmt.Fprintln(out, ui.Gray(fmt.Sprintf("From: %s...  →  To: %s...", domain.ShortID(cmp.from), domain.ShortID(cmp.to))))
	fmt.Fprintln(out)

	if line := summaryLine(summary); line != "" {
		fmt.Fprintln(out, line)
		fmt.Fprintln(out)
	}

	if len(changes) == 0 {
		fmt.Fprintln(out, ui.Gray("No changes detected."))
		return
	}

	// サーバーが返した順で種類ごとにまとめる
	types := lo.Uniq(lo.Map(changes, func(c api.DiffChange, _ int) string { return c.ResourceType }))
	grouped := lo.GroupBy(changes, func(c api.DiffChange) string { return c.ResourceType })

	for _, typ := range types {
		fmt.Fprintln(out, ui.Bold(strings.ToUpper(typ)))

		table := ui.NewTable("ACTION", "NAME", "SEVERITY", "DETAILS")
		for _, c := range grouped[typ] {
			details := c.Details
			if details == "" {
				details = "-"
			}
			severity := c.Severity
			if severity == "" {
				severity = "-"
			}
			table.AddRow(ui.ActionColor(c.Action), c.ResourceName, ui.SeverityColor(severity), details)
		}
		table.Render(out)
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, ui.Gray("Use "+ui.Cyan("butterfly diff --type users")+" to filter by resource type."))
}

func summaryLine(s api.DiffSummary) string {
	var parts []string
	if s.Added > 0 {
		parts = append(parts, ui.Green(fmt.Sprintf("+%d added", s.Added)))
	}
	if s.Modified > 0 {
		parts = append(parts, ui.Yellow(fmt.Sprintf("~%d modified", s.Modified)))
	}
	if s.Removed > 0 {
		parts = append(parts, ui.Red(fmt.Sprintf("-%d removed", s.Removed)))
	}
	return strings.Join(parts, "  ")
}
