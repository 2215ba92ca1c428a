package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// DefaultBranch は Git エクスポートの既定ブランチ
const DefaultBranch = "okta-backup"

// gitProviders は選択できる Git プロバイダ
var gitProviders = []ui.Choice{
	{Label: "GitHub", Value: "github"},
	{Label: "GitLab", Value: "gitlab"},
	{Label: "Bitbucket", Value: "bitbucket"},
	{Label: "Azure DevOps", Value: "azure-devops"},
}

type gitOptions struct {
	f        *cmdutil.Factory
	backup   string
	provider string
	repo     string
	branch   string
	message  string
}

func newGitCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &gitOptions{f: f}

	cmd := &cobra.Command{
		Use:   "git",
		Short: "Export a backup to a Git repository",
		Long: `Export a backup to a Git repository.

Values not given by flags are asked interactively.`,
		Example: `  $ butterfly export git
  $ butterfly export git --provider github --repo acme/okta-config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGit(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.backup, "backup", "b", "", "Backup ID (defaults to selected or latest backup)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Git provider: github, gitlab, bitbucket, azure-devops")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "Repository in owner/repo form")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "Branch name (default \"okta-backup\")")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "Commit message")

	return cmd
}

func runGit(ctx context.Context, opts *gitOptions) error {
	f := opts.f

	if opts.provider != "" && !isProvider(opts.provider) {
		return fmt.Errorf("unknown provider: %s (valid: %s)", opts.provider, strings.Join(providerNames(), ", "))
	}
	if opts.repo != "" {
		if err := validateRepo(opts.repo); err != nil {
			return err
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

	target, err := gitTarget(f, opts)
	if err != nil {
		return err
	}

	spinner := ui.NewSpinner()
	spinner.Start(fmt.Sprintf("Exporting to %s...", target.Provider))
	result, err := client.ExportGit(ctx, ref.ID, target)
	if err != nil {
		spinner.Fail("Git export failed")
		return err
	}
	if !result.Success {
		spinner.Fail("Git export failed")
		return cmdutil.ErrSilent
	}
	spinner.Stop()

	commit := "N/A"
	if result.CommitSHA != "" {
		commit = result.CommitSHA[:min(7, len(result.CommitSHA))]
	}

	out := f.IO.Out
	fmt.Fprintln(out)
	ui.Success("Successfully exported to Git!")
	fmt.Fprintln(out)
	pairs := [][2]string{
		{"Repository", ui.Cyan(target.Repository)},
		{"Branch", ui.Cyan(target.Branch)},
		{"Commit", ui.Cyan(commit)},
	}
	if result.URL != "" {
		pairs = append(pairs, [2]string{"URL", ui.Cyan(result.URL)})
	}
	for _, line := range strings.Split(ui.KeyValues(pairs...), "\n") {
		fmt.Fprintln(out, "  "+line)
	}
	return nil
}

// gitTarget はフラグで足りない値を対話で埋める
func gitTarget(f *cmdutil.Factory, opts *gitOptions) (api.GitExportOptions, error) {
	target := api.GitExportOptions{
		Provider:      opts.provider,
		Repository:    opts.repo,
		Branch:        opts.branch,
		CommitMessage: opts.message,
	}

	var err error
	if target.Provider == "" {
		if target.Provider, err = f.Prompter.ChooseOne("Select Git provider:", gitProviders); err != nil {
			return target, err
		}
	}
	if target.Repository == "" {
		if target.Repository, err = f.Prompter.TextInput("Repository (owner/repo):", "", validateRepo); err != nil {
			return target, err
		}
	}
	if target.Branch == "" {
		if target.Branch, err = f.Prompter.TextInput("Branch name:", DefaultBranch, nil); err != nil {
			return target, err
		}
	}
	if target.CommitMessage == "" {
		def := "Okta backup export - " + f.Now().UTC().Format("2006-01-02")
		if target.CommitMessage, err = f.Prompter.TextInput("Commit message:", def, nil); err != nil {
			return target, err
		}
	}
	return target, nil
}

func validateRepo(repo string) error {
	if !strings.Contains(repo, "/") {
		return fmt.Errorf("please enter in format: owner/repo")
	}
	return nil
}

func providerNames() []string {
	return lo.Map(gitProviders, func(c ui.Choice, _ int) string { return c.Value })
}

func isProvider(name string) bool {
	return lo.Contains(providerNames(), name)
}
