package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

type showOptions struct {
	f      *cmdutil.Factory
	json   bool
	output string
}

func newShowCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &showOptions{f: f}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Example: `  $ butterfly config show
  $ butterfly config show --json
  $ butterfly config show --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "Output as JSON")
	cmd.Flags().StringVar(&opts.output, "output", "", "Output format: yaml")

	return cmd
}

func runShow(opts *showOptions) error {
	f := opts.f
	cfg, err := f.Config()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	v := currentView(cfg)

	switch {
	case opts.json:
		return f.PrintJSON(v)
	case opts.output == "yaml":
		return cmdutil.OutputYAML(f.IO.Out, v)
	case opts.output != "":
		return fmt.Errorf("unsupported output format: %s", opts.output)
	}

	defaultOrg := ui.Gray("not set")
	if v.DefaultOrg != "" {
		defaultOrg = ui.Cyan(v.DefaultOrg)
	}
	apiKey := ui.Yellow("not configured")
	if v.HasAPIKey {
		apiKey = ui.Green("configured")
	}

	out := f.IO.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Bold("Current Configuration"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  "+ui.Gray("API URL:")+"      "+ui.Cyan(v.APIURL))
	fmt.Fprintln(out, "  "+ui.Gray("Default Org:")+"  "+defaultOrg)
	fmt.Fprintln(out, "  "+ui.Gray("API Key:")+"      "+apiKey)
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Gray("Config location: ")+cfg.Path())
	return nil
}
