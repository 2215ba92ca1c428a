package backup

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/debug"
	"github.com/butterflysecurity/butterfly-cli/internal/domain"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// waitInterval は --wait のポーリング間隔
const waitInterval = 2 * time.Second

type backupOptions struct {
	f                *cmdutil.Factory
	org              string
	resources        string
	includeWorkflows bool
	wait             bool
	yes              bool
}

// NewBackupCmd は backup コマンドを作成する
func NewBackupCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &backupOptions{f: f}

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Trigger a backup of an Okta org",
		Long: `Trigger a backup of an Okta org.

Without --resources you are asked which resource categories to include.
Categories (for --resources): core, apps, policies, security, auth, workflows.`,
		Example: `  $ butterfly backup                           # Interactive
  $ butterfly backup --org acme --wait         # Wait for completion
  $ butterfly backup -r users,groups --yes     # Non-interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.org, "org", "o", "", "Specific Okta org URL or name")
	cmd.Flags().StringVarP(&opts.resources, "resources", "r", "", "Comma-separated resources: users,groups,apps,policies")
	cmd.Flags().BoolVar(&opts.includeWorkflows, "include-workflows", false, "Include Okta Workflows (requires separate auth)")
	cmd.Flags().BoolVarP(&opts.wait, "wait", "w", false, "Wait for backup to complete before returning")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runBackup(ctx context.Context, opts *backupOptions) error {
	f := opts.f
	client, _, err := f.Client()
	if err != nil {
		return err
	}

	spinner := ui.NewSpinner()
	spinner.Start("Loading connections...")
	conns, err := cmdutil.LoadConnections(ctx, client)
	spinner.Stop()
	if err != nil {
		return err
	}

	conn, err := cmdutil.ChooseConnection(f.Prompter, conns, opts.org, "Select Okta org to backup:")
	if err != nil {
		return err
	}

	resources, err := chooseResources(f.Prompter, opts.resources)
	if err != nil {
		return err
	}
	include, hasWorkflows := domain.SplitWorkflows(resources)
	includeWorkflows := opts.includeWorkflows || hasWorkflows

	out := f.IO.Out
	fmt.Fprintln(out)
	ui.Info("Org: %s", ui.Cyan(conn.DisplayName()))
	ui.Info("Resources: %s types", ui.Cyan(fmt.Sprint(len(resources))))
	if includeWorkflows {
		ui.Info("Workflows: %s", ui.Cyan("included"))
	}
	fmt.Fprintln(out)

	if !opts.yes {
		confirmed, err := f.Prompter.Confirm("Start backup?", true)
		if err != nil {
			return err
		}
		if !confirmed {
			ui.Info("Backup cancelled")
			return nil
		}
	}

	spinner.Start("Starting backup...")
	result, err := client.TriggerBackup(ctx, conn.ID, api.TriggerOptions{
		ResourceTypes:    include,
		IncludeWorkflows: includeWorkflows,
	})
	if err != nil {
		spinner.Fail("Backup failed to start")
		return err
	}
	if !result.Success {
		spinner.Fail("Backup failed to start")
		return cmdutil.ErrSilent
	}
	spinner.Succeed("Backup started")

	backupID := result.BackupID
	if backupID == "" {
		backupID = result.Backup.ID
	}
	ui.Info("Backup ID: %s", ui.Cyan(backupID))

	if !opts.wait {
		fmt.Fprintln(out)
		ui.Info("Run %s to check progress", ui.Cyan("butterfly list --org "+conn.OrgURL))
		return nil
	}
	return waitForBackup(ctx, f, client, backupID)
}

// chooseResources は --resources を解釈する。未指定ならカテゴリを選ばせる
func chooseResources(p ui.Prompter, flag string) ([]string, error) {
	if flag != "" {
		return domain.ParseResourceList(flag)
	}

	choices := lo.Map(domain.ResourceCategories, func(c domain.ResourceCategory, _ int) ui.Choice {
		return ui.Choice{Label: c.Label, Value: c.Name}
	})
	names, err := p.ChooseMany("Select resources to backup:", choices, domain.DefaultCategories())
	if err != nil {
		return nil, err
	}

	resources := domain.ResourcesForCategories(names)
	if len(resources) == 0 {
		return nil, fmt.Errorf("no resources selected")
	}
	return resources, nil
}

// waitForBackup は running でなくなるまでバックアップを取得し続ける
// 取得エラーは作成直後でまだ参照できない場合があるため無視する
func waitForBackup(ctx context.Context, f *cmdutil.Factory, client cmdutil.APIClient, id string) error {
	spinner := ui.NewSpinner()
	spinner.Start("Waiting for backup to complete...")

	var backup *api.Backup
	for backup == nil || backup.IsRunning() {
		if err := f.Sleep(ctx, waitInterval); err != nil {
			spinner.Stop()
			return err
		}

		b, err := client.GetBackup(ctx, id)
		if err != nil {
			debug.Log("backup not ready", "id", id, "error", err)
			continue
		}
		backup = b
		if backup.IsRunning() {
			spinner.Update(fmt.Sprintf("Backing up... %d resources collected", backup.TotalResources()))
		}
	}

	if backup.Status != api.StatusCompleted {
		spinner.Fail("Backup %s", backup.Status)
		return cmdutil.ErrSilent
	}
	spinner.Succeed("Backup completed")

	fmt.Fprintln(f.IO.Out)
	fmt.Fprintln(f.IO.Out, ui.Box("Backup Summary", summaryBody(*backup), ui.BoxGreen))
	return nil
}

func summaryBody(b api.Backup) string {
	keys := make([]string, 0, len(b.ResourceCounts))
	for k, v := range b.ResourceCounts {
		if v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([][2]string, 0, len(keys)+1)
	for _, k := range keys {
		pairs = append(pairs, [2]string{k, ui.Green(fmt.Sprint(b.ResourceCounts[k]))})
	}
	pairs = append(pairs, [2]string{"Size", ui.Green(ui.FormatBytes(b.Size()))})
	return strings.TrimSpace(ui.KeyValues(pairs...))
}
