package watch

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/robfig/cron"
	"github.com/samber/lo"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/debug"
	"github.com/butterflysecurity/butterfly-cli/internal/domain"
)

// ErrCycleInProgress は前回のサイクルが終わっていない場合のエラー
var ErrCycleInProgress = errors.New("previous check is still running")

// BackupService は watch が使う API
type BackupService interface {
	ListBackups(ctx context.Context, connectionID string) ([]api.Backup, error)
	TriggerBackup(ctx context.Context, connectionID string, opts api.TriggerOptions) (*api.TriggerResult, error)
}

// Report はサイクル1回分の結果
type Report struct {
	Phase    Phase
	Backup   api.Backup
	Attempts int
	// Changes は比較対象があった場合だけ設定される
	Changes     []Change
	HasBaseline bool
}

// Watcher は定期的にバックアップを実行し、前回からの件数の変化を検出する
type Watcher struct {
	svc          BackupService
	connectionID string
	resources    []string
	pollInterval time.Duration
	maxAttempts  int
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
	onStart      func()

	running sync.Mutex

	mu       sync.Mutex
	baseline *api.Backup
}

// Option は Watcher のオプション
type Option func(*Watcher)

// WithPollInterval はポーリング間隔を指定する
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithMaxAttempts はポーリング回数の上限を指定する
func WithMaxAttempts(n int) Option {
	return func(w *Watcher) { w.maxAttempts = n }
}

// WithClock は現在時刻の取得元を差し替える
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

// WithSleep は待機処理を差し替える
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Watcher) { w.sleep = sleep }
}

// WithCycleStart はサイクル開始時に呼ばれる関数を指定する
func WithCycleStart(fn func()) Option {
	return func(w *Watcher) { w.onStart = fn }
}

// New は connection を監視する Watcher を作成する
func New(svc BackupService, connectionID string, opts ...Option) *Watcher {
	w := &Watcher{
		svc:          svc,
		connectionID: connectionID,
		resources:    domain.WatchResources,
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
		now:          time.Now,
		sleep:        Sleep,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetBaseline は比較の基準となるバックアップを設定する
func (w *Watcher) SetBaseline(b *api.Backup) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b == nil {
		w.baseline = nil
		return
	}
	copied := *b
	w.baseline = &copied
}

// Baseline は現在の基準バックアップを返す
func (w *Watcher) Baseline() *api.Backup {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.baseline == nil {
		return nil
	}
	copied := *w.baseline
	return &copied
}

// RunCycle はバックアップをトリガーし、終了するまでポーリングする
// completed のときだけ基準を更新する。failed / timed-out では前回の基準を残す
func (w *Watcher) RunCycle(ctx context.Context) (*Report, error) {
	if !w.running.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer w.running.Unlock()

	if w.onStart != nil {
		w.onStart()
	}

	result, err := w.svc.TriggerBackup(ctx, w.connectionID, api.TriggerOptions{ResourceTypes: w.resources})
	if err != nil {
		return nil, errors.Wrap(err, "trigger backup")
	}
	triggered := result.Backup
	if triggered.ID == "" {
		triggered.ID = result.BackupID
	}
	if triggered.Status == "" {
		triggered.Status = api.StatusRunning
	}

	cycle := NewCycle(w.maxAttempts)
	phase := cycle.Trigger(w.now(), triggered)
	debug.Log("watch cycle triggered", "backup", cycle.BackupID(), "phase", phase)

	for !phase.Terminal() {
		if err := w.sleep(ctx, w.pollInterval); err != nil {
			return nil, err
		}

		backups, err := w.svc.ListBackups(ctx, w.connectionID)
		if err != nil {
			return nil, errors.Wrap(err, "poll backups")
		}

		var observed *api.Backup
		if found, ok := lo.Find(backups, func(b api.Backup) bool { return b.ID == cycle.BackupID() }); ok {
			observed = &found
		}
		phase = cycle.Tick(w.now(), observed)
		debug.Log("watch cycle tick", "backup", cycle.BackupID(), "attempt", cycle.Attempts(), "phase", phase)
	}

	report := &Report{
		Phase:    phase,
		Backup:   cycle.Result(),
		Attempts: cycle.Attempts(),
	}

	if phase == PhaseCompleted {
		w.mu.Lock()
		if w.baseline != nil {
			report.HasBaseline = true
			report.Changes = DetectChanges(w.baseline.ResourceCounts, report.Backup.ResourceCounts)
		}
		completed := report.Backup
		w.baseline = &completed
		w.mu.Unlock()
	}

	return report, nil
}

// Run は最初のサイクルを即座に実行し、その後 interval ごとにサイクルを実行する
// ctx がキャンセルされるまで戻らない。サイクル中のエラーは handle に渡して継続する
func (w *Watcher) Run(ctx context.Context, interval time.Duration, handle func(*Report, error)) error {
	if interval <= 0 {
		return errors.Errorf("invalid interval: %s", interval)
	}

	check := func() {
		report, err := w.RunCycle(ctx)
		if ctx.Err() != nil {
			// 中断されたサイクルは報告しない
			return
		}
		handle(report, err)
	}

	check()
	if ctx.Err() != nil {
		return nil
	}

	c := cron.New()
	c.Schedule(cron.Every(interval), cron.FuncJob(check))
	c.Start()
	defer c.Stop()

	<-ctx.Done()
	return nil
}

// Sleep は ctx がキャンセルされるまで d だけ待つ
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
