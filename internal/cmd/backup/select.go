package backup

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/config"
	"github.com/butterflysecurity/butterfly-cli/internal/domain"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// pickerLimit は対話選択で表示するバックアップの件数
const pickerLimit = 20

type selectOptions struct {
	f     *cmdutil.Factory
	id    string
	org   string
	clear bool
}

// NewSelectCmd は select コマンドを作成する
func NewSelectCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &selectOptions{f: f}

	cmd := &cobra.Command{
		Use:   "select [backup-id]",
		Short: "Select a backup to work with",
		Long: `Select a backup for diff and export commands.

The backup can be given by full ID or ID prefix. Without an argument you
pick one of the most recent backups interactively.`,
		Example: `  $ butterfly select                 # Interactive
  $ butterfly select abc12345        # By ID prefix
  $ butterfly select --clear         # Clear selection`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.id = args[0]
			}
			return runSelect(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.org, "org", "o", "", "Filter by specific Okta org URL or name")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "Clear the current selection")

	return cmd
}

func runSelect(ctx context.Context, opts *selectOptions) error {
	f := opts.f

	if opts.clear {
		cfg, err := f.Config()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.ClearSelectedBackup(ctx); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		ui.Success("Backup selection cleared")
		return nil
	}

	client, cfg, err := f.Client()
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

	entries := domain.FlattenBackups(groups, 0)
	if len(entries) == 0 {
		return cmdutil.ErrNoBackups()
	}

	var chosen domain.BackupEntry
	if opts.id != "" {
		entry, ok := findEntry(entries, opts.id)
		if !ok {
			return fmt.Errorf("backup not found: %s", opts.id)
		}
		chosen = entry
	} else {
		entry, err := pickEntry(f.Prompter, entries)
		if err != nil {
			return err
		}
		chosen = entry
	}

	err = cfg.SetSelectedBackup(ctx, config.SelectedBackup{
		ID:           chosen.ID,
		OrgName:      chosen.OrgName,
		Timestamp:    chosen.Timestamp,
		ConnectionID: chosen.ConnectionID,
	})
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	out := f.IO.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Box("Backup Selected", selectionBody(chosen.ID, chosen.OrgName, chosen.Timestamp), ui.BoxGreen))
	fmt.Fprintln(out)
	ui.Info("Use %s or %s to work with this backup", ui.Cyan("butterfly diff"), ui.Cyan("butterfly export"))
	return nil
}

// findEntry は ID の完全一致または前方一致でバックアップを探す
func findEntry(entries []domain.BackupEntry, ref string) (domain.BackupEntry, bool) {
	backups := make([]api.Backup, len(entries))
	for i, e := range entries {
		backups[i] = e.Backup
	}
	b, ok := domain.FindBackup(backups, ref)
	if !ok {
		return domain.BackupEntry{}, false
	}
	for _, e := range entries {
		if e.ID == b.ID {
			return e, true
		}
	}
	return domain.BackupEntry{}, false
}

func pickEntry(p ui.Prompter, entries []domain.BackupEntry) (domain.BackupEntry, error) {
	if len(entries) > pickerLimit {
		entries = entries[:pickerLimit]
	}

	choices := make([]ui.Choice, len(entries))
	for i, e := range entries {
		label := fmt.Sprintf("%s  %s  %s  %s",
			domain.ShortID(e.ID), e.OrgName, ui.FormatTimestamp(e.Time()), ui.StatusColor(e.Status))
		choices[i] = ui.Choice{Label: label, Value: e.ID}
	}

	id, err := p.ChooseOne("Select a backup:", choices)
	if err != nil {
		return domain.BackupEntry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.BackupEntry{}, fmt.Errorf("backup not found: %s", id)
}

func selectionBody(id, org, timestamp string) string {
	date := timestamp
	if t := (api.Backup{Timestamp: timestamp}).Time(); !t.IsZero() {
		date = ui.FormatTimestamp(t)
	}
	return ui.KeyValues(
		[2]string{"ID", ui.Cyan(id)},
		[2]string{"Org", org},
		[2]string{"Date", date},
	)
}

type selectedOptions struct {
	f    *cmdutil.Factory
	json bool
}

// NewSelectedCmd は selected コマンドを作成する
func NewSelectedCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &selectedOptions{f: f}

	cmd := &cobra.Command{
		Use:   "selected",
		Short: "Show the currently selected backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelected(opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "Output as JSON")

	return cmd
}

func runSelected(opts *selectedOptions) error {
	f := opts.f
	cfg, err := f.Config()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sel := cfg.SelectedBackup()
	if opts.json {
		return f.PrintJSON(sel)
	}
	if sel == nil {
		ui.Info("No backup selected")
		ui.Info("Run %s to choose one", ui.Cyan("butterfly select"))
		return nil
	}

	fmt.Fprintln(f.IO.Out, ui.Box("Selected Backup", selectionBody(sel.ID, sel.OrgName, sel.Timestamp), ui.BoxCyan))
	return nil
}
