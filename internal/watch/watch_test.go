package watch

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
)

func TestDetectChanges(t *testing.T) {
	tests := []struct {
		name string
		old  map[string]int
		new  map[string]int
		want []string
	}{
		{
			name: "added and grown",
			old:  map[string]int{"users": 100, "apps": 5},
			new:  map[string]int{"users": 105, "apps": 5, "groups": 2},
			want: []string{"groups: +2 (0 → 2)", "users: +5 (100 → 105)"},
		},
		{
			name: "removed key counts as zero",
			old:  map[string]int{"apps": 3, "policies": 1},
			new:  map[string]int{"apps": 1},
			want: []string{"apps: -2 (3 → 1)", "policies: -1 (1 → 0)"},
		},
		{
			name: "equal",
			old:  map[string]int{"users": 1},
			new:  map[string]int{"users": 1},
			want: []string{},
		},
		{
			name: "both empty",
			want: []string{},
		},
		{
			name: "explicit zero equals missing",
			old:  map[string]int{"roles": 0},
			new:  map[string]int{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, c := range DetectChanges(tt.old, tt.new) {
				got = append(got, c.String())
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DetectChanges = %v, want %v", got, tt.want)
			}
		})
	}
}

func running(id string) api.Backup {
	return api.Backup{ID: id, Status: api.StatusRunning}
}

func TestCycleNeverCompletesWhileRunning(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCycle(DefaultMaxAttempts)

	if got := c.Trigger(now, running("b1")); got != PhaseTriggered {
		t.Fatalf("Trigger phase = %s", got)
	}

	for i := 1; i < DefaultMaxAttempts; i++ {
		b := running("b1")
		// 経過時間は判定に影響しない
		now = now.Add(time.Duration(i) * time.Hour)
		if got := c.Tick(now, &b); got != PhasePolling {
			t.Fatalf("tick %d phase = %s, want polling", i, got)
		}
	}

	b := running("b1")
	if got := c.Tick(now, &b); got != PhaseTimedOut {
		t.Fatalf("tick %d phase = %s, want timed-out", DefaultMaxAttempts, got)
	}
	if c.Attempts() != DefaultMaxAttempts {
		t.Errorf("Attempts = %d", c.Attempts())
	}

	// 終端状態からは動かない
	done := api.Backup{ID: "b1", Status: api.StatusCompleted}
	if got := c.Tick(now, &done); got != PhaseTimedOut {
		t.Errorf("tick after timeout = %s", got)
	}
}

func TestCycleTransitions(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		observed []*api.Backup
		want     Phase
		attempts int
	}{
		{
			name:     "completes",
			observed: []*api.Backup{nil, {ID: "b1", Status: api.StatusRunning}, {ID: "b1", Status: api.StatusCompleted}},
			want:     PhaseCompleted,
			attempts: 3,
		},
		{
			name:     "fails",
			observed: []*api.Backup{{ID: "b1", Status: api.StatusFailed}},
			want:     PhaseFailed,
			attempts: 1,
		},
		{
			name:     "unknown status keeps polling",
			observed: []*api.Backup{{ID: "b1", Status: "queued"}, {ID: "b1", Status: api.StatusCompleted}},
			want:     PhaseCompleted,
			attempts: 2,
		},
		{
			name:     "unknown status counts toward the cap",
			observed: []*api.Backup{{ID: "b1", Status: "queued"}, {ID: "b1", Status: "queued"}, {ID: "b1", Status: "queued"}, {ID: "b1", Status: "queued"}, {ID: "b1", Status: "queued"}},
			want:     PhaseTimedOut,
			attempts: 5,
		},
		{
			name:     "other backup is ignored",
			observed: []*api.Backup{{ID: "b2", Status: api.StatusCompleted}},
			want:     PhasePolling,
			attempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCycle(5)
			c.Trigger(now, running("b1"))
			var phase Phase
			for _, o := range tt.observed {
				phase = c.Tick(now, o)
			}
			if phase != tt.want || c.Attempts() != tt.attempts {
				t.Errorf("phase = %s attempts = %d, want %s/%d", phase, c.Attempts(), tt.want, tt.attempts)
			}
		})
	}
}

func TestCycleTriggeredAlreadyFinished(t *testing.T) {
	c := NewCycle(0)
	if got := c.Trigger(time.Now(), api.Backup{ID: "b1", Status: api.StatusCompleted}); got != PhaseCompleted {
		t.Errorf("phase = %s", got)
	}
	if c.Attempts() != 0 {
		t.Errorf("Attempts = %d", c.Attempts())
	}
}

func TestCycleTriggeredWithUnknownStatus(t *testing.T) {
	c := NewCycle(3)
	if got := c.Trigger(time.Now(), api.Backup{ID: "b1", Status: "queued"}); got != PhaseTriggered {
		t.Errorf("phase = %s, want %s", got, PhaseTriggered)
	}
}

func TestIdleCycleIgnoresTick(t *testing.T) {
	c := NewCycle(1)
	b := running("b1")
	if got := c.Tick(time.Now(), &b); got != PhaseIdle {
		t.Errorf("phase = %s", got)
	}
}

// fakeService は呼び出しごとに用意した一覧を返す
type fakeService struct {
	mu       sync.Mutex
	trigger  api.Backup
	lists    [][]api.Backup
	listErr  error
	triggers int
	polls    int
}

func (f *fakeService) TriggerBackup(ctx context.Context, connectionID string, opts api.TriggerOptions) (*api.TriggerResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
	return &api.TriggerResult{Success: true, BackupID: f.trigger.ID, Backup: f.trigger}, nil
}

func (f *fakeService) ListBackups(ctx context.Context, connectionID string) ([]api.Backup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.lists) == 0 {
		return []api.Backup{running(f.trigger.ID)}, nil
	}
	next := f.lists[0]
	f.lists = f.lists[1:]
	return next, nil
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func TestWatcherRunCycleDetectsChanges(t *testing.T) {
	svc := &fakeService{
		trigger: running("b2"),
		lists: [][]api.Backup{
			{running("b2")},
			{{ID: "b2", Status: api.StatusCompleted, ResourceCounts: map[string]int{"users": 105, "apps": 5, "groups": 2}}},
		},
	}
	w := New(svc, "c1", WithSleep(noSleep))
	w.SetBaseline(&api.Backup{ID: "b1", Status: api.StatusCompleted, ResourceCounts: map[string]int{"users": 100, "apps": 5}})

	report, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if report.Phase != PhaseCompleted || report.Attempts != 2 || !report.HasBaseline {
		t.Fatalf("report = %+v", report)
	}
	want := []Change{{"groups", 0, 2}, {"users", 100, 105}}
	if !reflect.DeepEqual(report.Changes, want) {
		t.Errorf("Changes = %v, want %v", report.Changes, want)
	}
	if got := w.Baseline(); got == nil || got.ID != "b2" {
		t.Errorf("baseline = %+v, want b2", got)
	}
}

func TestWatcherKeepsBaselineOnFailure(t *testing.T) {
	svc := &fakeService{
		trigger: running("b2"),
		lists:   [][]api.Backup{{{ID: "b2", Status: api.StatusFailed}}},
	}
	w := New(svc, "c1", WithSleep(noSleep))
	w.SetBaseline(&api.Backup{ID: "b1", Status: api.StatusCompleted})

	report, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if report.Phase != PhaseFailed {
		t.Errorf("phase = %s", report.Phase)
	}
	if got := w.Baseline(); got == nil || got.ID != "b1" {
		t.Errorf("baseline = %+v, want b1", got)
	}
}

func TestWatcherTimesOut(t *testing.T) {
	svc := &fakeService{trigger: running("b2")}
	w := New(svc, "c1", WithSleep(noSleep), WithMaxAttempts(3))

	report, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if report.Phase != PhaseTimedOut || svc.polls != 3 {
		t.Errorf("phase = %s polls = %d", report.Phase, svc.polls)
	}
	if w.Baseline() != nil {
		t.Error("timed-out cycle should not set a baseline")
	}
}

func TestWatcherFirstCycleSetsBaseline(t *testing.T) {
	svc := &fakeService{trigger: api.Backup{ID: "b1", Status: api.StatusCompleted, ResourceCounts: map[string]int{"users": 1}}}
	w := New(svc, "c1", WithSleep(noSleep))

	report, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if report.HasBaseline || report.Changes != nil || svc.polls != 0 {
		t.Errorf("report = %+v polls = %d", report, svc.polls)
	}
	if got := w.Baseline(); got == nil || got.ID != "b1" {
		t.Errorf("baseline = %+v", got)
	}
}

func TestWatcherPollError(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeService{trigger: running("b2"), listErr: boom}
	w := New(svc, "c1", WithSleep(noSleep))

	if _, err := w.RunCycle(context.Background()); !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
}

func TestWatcherSkipsOverlappingCycle(t *testing.T) {
	w := New(&fakeService{trigger: running("b1")}, "c1")
	w.running.Lock()
	defer w.running.Unlock()

	if _, err := w.RunCycle(context.Background()); !errors.Is(err, ErrCycleInProgress) {
		t.Errorf("error = %v, want ErrCycleInProgress", err)
	}
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	svc := &fakeService{trigger: api.Backup{ID: "b1", Status: api.StatusCompleted}}
	w := New(svc, "c1", WithSleep(noSleep))

	ctx, cancel := context.WithCancel(context.Background())
	var reports int
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, time.Hour, func(r *Report, err error) {
			reports++
			cancel()
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if reports != 1 {
		t.Errorf("reports = %d, want 1", reports)
	}
}

func TestWatcherRunRejectsInvalidInterval(t *testing.T) {
	w := New(&fakeService{}, "c1")
	if err := w.Run(context.Background(), 0, func(*Report, error) {}); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestWatcherCycleStartHook(t *testing.T) {
	svc := &fakeService{trigger: api.Backup{ID: "b1", Status: api.StatusCompleted}}
	started := 0
	w := New(svc, "c1", WithSleep(noSleep), WithCycleStart(func() { started++ }))

	if _, err := w.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if started != 1 {
		t.Errorf("started = %d, want 1", started)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep = %v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep after cancel = %v, want context.Canceled", err)
	}
}
