package status

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/domain"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

type statusOptions struct {
	f    *cmdutil.Factory
	org  string
	json bool
}

// orgStatus は org ごとの表示内容
type orgStatus struct {
	Connection   api.Connection `json:"connection"`
	Backups      []api.Backup   `json:"backups"`
	LatestBackup *api.Backup    `json:"latestBackup"`
}

// NewStatusCmd は status コマンドを作成する
func NewStatusCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &statusOptions{f: f}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backup status for your Okta orgs",
		Example: `  $ butterfly status                     # All connected orgs
  $ butterfly status --org acme          # Specific org
  $ butterfly status --json | jq .       # JSON output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.org, "org", "o", "", "Filter by specific Okta org URL or name")
	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "Output as JSON for scripting")

	return cmd
}

func runStatus(ctx context.Context, opts *statusOptions) error {
	f := opts.f
	client, _, err := f.Client()
	if err != nil {
		return err
	}

	conns, err := client.ListConnections(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}

	out := f.IO.Out
	if len(conns) == 0 {
		if opts.json {
			return f.PrintJSON([]orgStatus{})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, ui.Box("Get Started", "No Okta connections found.\n\nConnect your first Okta org at:\n"+ui.Cyan(cmdutil.ConnectionsURL), ui.BoxCyan))
		return nil
	}

	conns, err = cmdutil.FilterByOrg(conns, opts.org)
	if err != nil {
		return err
	}

	groups, err := cmdutil.LoadBackupGroups(ctx, client, conns)
	if err != nil {
		return err
	}

	statuses := lo.Map(groups, func(g domain.ConnectionBackups, _ int) orgStatus {
		s := orgStatus{Connection: g.Connection, Backups: g.Backups}
		if s.Backups == nil {
			s.Backups = []api.Backup{}
		}
		if latest, ok := domain.LatestBackup(g.Backups); ok {
			s.LatestBackup = &latest
		}
		return s
	})

	if opts.json {
		return f.PrintJSON(statuses)
	}

	fmt.Fprintln(out)
	for _, s := range statuses {
		fmt.Fprintln(out, renderOrg(s, f))
		fmt.Fprintln(out)
	}

	if len(statuses) > 1 {
		renderSummary(f, statuses)
	}
	return nil
}

func renderOrg(s orgStatus, f *cmdutil.Factory) string {
	conn := s.Connection

	indicator := ui.Red("● INACTIVE")
	color := ui.BoxRed
	if conn.IsActive {
		indicator = ui.Green("● PROTECTED")
		color = ui.BoxCyan
	}

	var counts map[string]int
	lastBackup := "never"
	coverage := 0
	if s.LatestBackup != nil {
		counts = s.LatestBackup.ResourceCounts
		lastBackup = ui.FormatRelativeTime(s.LatestBackup.Time(), f.Now())
		coverage = 100
	}

	var lines []string
	lines = append(lines, ui.Gray("> butterfly status --org "+conn.OrgURL), "")
	lines = append(lines, statsRow(counts)...)
	lines = append(lines, "")

	const barWidth = 40
	filled := coverage * barWidth / 100
	bar := ui.Green(strings.Repeat("█", filled)) + ui.Gray(strings.Repeat("░", barWidth-filled))

	lines = append(lines,
		"LAST_BACKUP: "+ui.Green(lastBackup),
		"STATUS:      "+bar+" "+ui.Green(strconv.Itoa(coverage)+"%"),
		"BACKUPS:     "+strconv.Itoa(len(s.Backups)),
		"ENCRYPTION:  "+ui.Green("AES-256-GCM"),
	)
	if s.LatestBackup != nil {
		lines = append(lines, "", ui.Magenta("TF")+" TERRAFORM  "+ui.Green("EXPORT_READY"))
	}

	title := strings.ToUpper(conn.ShortName()) + "  " + indicator
	return ui.Box(title, strings.Join(lines, "\n"), color)
}

// statsRow は主要リソースの件数を2行で表す
func statsRow(counts map[string]int) []string {
	type stat struct {
		key   string
		label string
	}
	stats := []stat{{"users", "USERS"}, {"apps", "APPS"}, {"workflows", "FLOWS"}}

	var values, labels []string
	for _, s := range stats {
		values = append(values, fmt.Sprintf("%8d", counts[s.key]))
		labels = append(labels, fmt.Sprintf("%8s", s.label))
	}
	return []string{
		ui.Cyan(strings.Join(values, "    ")),
		ui.Gray(strings.Join(labels, "    ")),
	}
}

func renderSummary(f *cmdutil.Factory, statuses []orgStatus) {
	table := ui.NewTable("ORG", "STATUS", "LAST BACKUP", "BACKUPS", "SIZE")
	for _, s := range statuses {
		state := ui.Gray("Inactive")
		if s.Connection.IsActive {
			state = ui.Green("Active")
		}
		last := "Never"
		if s.LatestBackup != nil {
			last = ui.FormatRelativeTime(s.LatestBackup.Time(), f.Now())
		}
		total := lo.SumBy(s.Backups, func(b api.Backup) int64 { return b.Size() })
		table.AddRow(
			s.Connection.DisplayName(),
			state,
			last,
			strconv.Itoa(len(s.Backups)),
			ui.FormatBytes(total),
		)
	}
	table.Render(f.IO.Out)
}
