package watch

import (
	"time"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
)

// Phase はバックアップ1回分の進行状態
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseTriggered Phase = "triggered"
	PhasePolling   Phase = "polling"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
	PhaseTimedOut  Phase = "timed-out"
)

// Terminal は終端状態かどうか
func (p Phase) Terminal() bool {
	switch p {
	case PhaseCompleted, PhaseFailed, PhaseTimedOut:
		return true
	}
	return false
}

const (
	// DefaultMaxAttempts はポーリング回数の上限
	DefaultMaxAttempts = 60
	// DefaultPollInterval はポーリング間隔
	DefaultPollInterval = 5 * time.Second
)

// Cycle はトリガーから完了までの状態機械
// タイマーを持たず、Tick に観測結果を渡して進める
type Cycle struct {
	maxAttempts int
	phase       Phase
	attempts    int
	backupID    string
	startedAt   time.Time
	updatedAt   time.Time
	result      api.Backup
}

// NewCycle は idle 状態の Cycle を作成する
func NewCycle(maxAttempts int) *Cycle {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Cycle{maxAttempts: maxAttempts, phase: PhaseIdle}
}

// Trigger はトリガー直後のバックアップを記録する
// サーバーが既に completed か failed で返した場合はポーリングせずに終端へ進む
func (c *Cycle) Trigger(now time.Time, backup api.Backup) Phase {
	if c.phase != PhaseIdle {
		return c.phase
	}
	c.backupID = backup.ID
	c.startedAt = now
	c.updatedAt = now
	c.result = backup
	c.phase = PhaseTriggered
	c.settle(backup)
	return c.phase
}

// Tick はポーリング1回分の観測結果で状態を進める
// observed はバックアップ一覧から見つかった対象。見つからなければ nil
// 経過時間に関係なく、ポーリング回数だけでタイムアウトを判定する
func (c *Cycle) Tick(now time.Time, observed *api.Backup) Phase {
	if c.phase != PhaseTriggered && c.phase != PhasePolling {
		return c.phase
	}

	c.attempts++
	c.updatedAt = now
	c.phase = PhasePolling

	if observed != nil && observed.ID == c.backupID {
		c.result = *observed
		if c.settle(*observed) {
			return c.phase
		}
	}

	if c.attempts >= c.maxAttempts {
		c.phase = PhaseTimedOut
	}
	return c.phase
}

// settle は completed と failed のときだけ終端へ進める
// それ以外の状態は未完了として扱い、ポーリングを続ける
func (c *Cycle) settle(b api.Backup) bool {
	switch b.Status {
	case api.StatusCompleted:
		c.phase = PhaseCompleted
	case api.StatusFailed:
		c.phase = PhaseFailed
	default:
		return false
	}
	return true
}

// Phase は現在の状態
func (c *Cycle) Phase() Phase { return c.phase }

// Attempts はこれまでのポーリング回数
func (c *Cycle) Attempts() int { return c.attempts }

// BackupID は対象のバックアップID
func (c *Cycle) BackupID() string { return c.backupID }

// Result は最後に観測したバックアップ
func (c *Cycle) Result() api.Backup { return c.result }

// Elapsed はトリガーから最後の観測までの時間
func (c *Cycle) Elapsed() time.Duration { return c.updatedAt.Sub(c.startedAt) }
