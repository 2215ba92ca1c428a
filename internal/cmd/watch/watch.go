package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/debug"
	"github.com/butterflysecurity/butterfly-cli/internal/domain"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
	"github.com/butterflysecurity/butterfly-cli/internal/watch"
)

// DefaultInterval は --interval の既定値（分）
const DefaultInterval = 60

type watchOptions struct {
	f        *cmdutil.Factory
	org      string
	interval int
	once     bool
}

// NewWatchCmd は watch コマンドを作成する
func NewWatchCmd(f *cmdutil.Factory) *cobra.Command {
	opts := &watchOptions{f: f}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch an Okta org for changes",
		Long: `Run a backup periodically and report changes in resource counts.

Press Ctrl+C to stop.`,
		Example: `  $ butterfly watch
  $ butterfly watch --org acme --interval 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.org, "org", "o", "", "Okta org URL or name to watch (defaults to config defaultOrg)")
	cmd.Flags().IntVarP(&opts.interval, "interval", "i", DefaultInterval, "Check interval in minutes")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Run a single check and exit")

	return cmd
}

func runWatch(ctx context.Context, opts *watchOptions) error {
	if opts.interval <= 0 {
		return fmt.Errorf("--interval must be a positive number of minutes")
	}

	f := opts.f
	client, cfg, err := f.Client()
	if err != nil {
		return err
	}

	out := f.IO.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Bold("🦋 Butterfly Watch Mode"))
	fmt.Fprintln(out, ui.Gray(fmt.Sprintf("Monitoring for changes every %d minutes", opts.interval)))
	fmt.Fprintln(out, ui.Gray("Press Ctrl+C to stop"))
	fmt.Fprintln(out)

	spinner := ui.NewSpinner()
	spinner.Start("Finding connection...")
	conns, err := cmdutil.LoadConnections(ctx, client)
	if err != nil {
		spinner.Stop()
		return err
	}

	orgFilter := opts.org
	if orgFilter == "" {
		orgFilter = cfg.DefaultOrg()
	}
	conn := conns[0]
	if orgFilter != "" {
		if c, ok := domain.FindConnection(conns, orgFilter); ok {
			conn = c
		} else {
			debug.Log("no connection matched, watching the first one", "org", orgFilter)
		}
	}
	spinner.Succeed("Watching: %s", ui.Cyan(conn.DisplayName()))

	backups, err := client.ListBackups(ctx, conn.ID)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	p := &printer{f: f}
	w := watch.New(client, conn.ID,
		watch.WithClock(f.Now),
		watch.WithSleep(f.Sleep),
		watch.WithCycleStart(func() {
			p.line(ui.Gray(fmt.Sprintf("[%s] Checking for changes...", p.timestamp())))
		}),
	)
	if latest, ok := domain.LatestBackup(backups); ok {
		w.SetBaseline(&latest)
		p.status(latest)
	}

	if opts.once {
		report, err := w.RunCycle(ctx)
		p.report(report, err)
		return nil
	}

	if err := w.Run(ctx, time.Duration(opts.interval)*time.Minute, p.report); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Gray("Watch mode stopped."))
	return nil
}

// printer はサイクルの結果を表示する
// cron のゴルーチンから呼ばれるため出力を直列化する
type printer struct {
	f  *cmdutil.Factory
	mu sync.Mutex
}

func (p *printer) timestamp() string {
	return p.f.Now().Format("15:04:05")
}

func (p *printer) line(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.f.IO.Out, s)
}

func (p *printer) report(r *watch.Report, err error) {
	ts := p.timestamp()

	if err != nil {
		if errors.Is(err, watch.ErrCycleInProgress) {
			debug.Log("watch tick skipped", "reason", err)
			p.line(ui.Gray(fmt.Sprintf("[%s] Previous check still running, skipped", ts)))
			return
		}
		p.line(ui.Red(fmt.Sprintf("[%s] Error: %s", ts, err)))
		return
	}

	switch r.Phase {
	case watch.PhaseCompleted:
		if r.HasBaseline {
			p.changes(ts, r.Changes)
		}
		p.status(r.Backup)
	case watch.PhaseFailed:
		p.line(ui.Red(fmt.Sprintf("[%s] Backup failed", ts)))
	case watch.PhaseTimedOut:
		p.line(ui.Yellow(fmt.Sprintf("[%s] Backup still running after %d checks, giving up", ts, r.Attempts)))
	}
}

func (p *printer) changes(ts string, changes []watch.Change) {
	if len(changes) == 0 {
		p.line(ui.Gray(fmt.Sprintf("[%s] No changes detected", ts)))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.f.IO.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Yellow("⚠ Changes detected!"))
	for _, c := range changes {
		fmt.Fprintf(out, "  %s %s\n", ui.Gray("•"), c)
	}
	fmt.Fprintln(out)
}

func (p *printer) status(b api.Backup) {
	resources := cmdutil.ResourceSummary(b.ResourceCounts, 0)
	if resources == "" {
		resources = "none"
	}
	body := ui.KeyValues(
		[2]string{"ID", ui.Cyan(domain.ShortID(b.ID)) + "..."},
		[2]string{"Time", ui.FormatRelativeTime(b.Time(), p.f.Now())},
		[2]string{"Status", ui.StatusColor(b.Status)},
		[2]string{"Size", ui.FormatBytes(b.Size())},
		[2]string{"Resources", resources},
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.f.IO.Out)
	fmt.Fprintln(p.f.IO.Out, ui.Box("Latest Backup", body, ui.BoxCyan))
	fmt.Fprintln(p.f.IO.Out)
}
