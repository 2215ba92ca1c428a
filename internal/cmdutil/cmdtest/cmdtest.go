// Package cmdtest はコマンドハンドラのテスト用の偽実装
package cmdtest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/config"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// Now はテストで使う固定時刻
var Now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Harness はテスト用の Factory と出力バッファ
type Harness struct {
	Factory  *cmdutil.Factory
	Out      *bytes.Buffer
	ErrOut   *bytes.Buffer
	Client   *FakeClient
	Prompter *FakePrompter
	Config   *config.Store
	Backend  *config.MemoryBackend
	Opened   []string
}

// New は認証済みの設定で Harness を作成する
func New(t *testing.T) *Harness {
	t.Helper()
	doc := config.DefaultDocument()
	doc.APIKey = "sk_test"
	return NewWithDocument(t, doc)
}

// NewWithDocument は指定した設定で Harness を作成する
func NewWithDocument(t *testing.T, doc config.Document) *Harness {
	t.Helper()

	backend := config.NewMemoryBackend(doc)
	cfg, err := config.Open(context.Background(), backend)
	if err != nil {
		t.Fatalf("config.Open failed: %v", err)
	}

	h := &Harness{
		Out:      &bytes.Buffer{},
		ErrOut:   &bytes.Buffer{},
		Client:   &FakeClient{Backups: map[string][]api.Backup{}},
		Prompter: &FakePrompter{t: t},
		Config:   cfg,
		Backend:  backend,
	}

	ui.SetColorEnabled(false)
	ui.SetOutput(h.Out, h.ErrOut)
	t.Cleanup(func() { ui.SetOutput(&bytes.Buffer{}, &bytes.Buffer{}) })

	h.Factory = &cmdutil.Factory{
		IO: cmdutil.IOStreams{In: strings.NewReader(""), Out: h.Out, ErrOut: h.ErrOut},
		Config: func() (*config.Store, error) {
			return cfg, nil
		},
		NewClient: func(baseURL, apiKey string) cmdutil.APIClient {
			h.Client.mu.Lock()
			h.Client.UsedKey = apiKey
			h.Client.baseURL = baseURL
			h.Client.mu.Unlock()
			return h.Client
		},
		Prompter: h.Prompter,
		OpenBrowser: func(url string) error {
			h.Opened = append(h.Opened, url)
			return nil
		},
		Now: func() time.Time { return Now },
		Sleep: func(ctx context.Context, d time.Duration) error {
			return ctx.Err()
		},
	}
	return h
}

// StrPtr は文字列のポインタを返す
func StrPtr(s string) *string { return &s }

// Int64Ptr は int64 のポインタを返す
func Int64Ptr(n int64) *int64 { return &n }

// FakeClient は cmdutil.APIClient の偽実装
type FakeClient struct {
	mu      sync.Mutex
	baseURL string

	UsedKey     string
	Me          *api.Me
	MeErr       error
	Connections []api.Connection
	Backups     map[string][]api.Backup
	ListErr     error

	// GetBackupSeq は GetBackup が順に返す値。尽きたら最後の値を返し続ける
	GetBackupSeq []api.Backup
	GetCalls     int

	TriggerResult *api.TriggerResult
	Triggered     []TriggerCall

	DiffResult *api.DiffResult
	DiffCalls  [][3]string

	TerraformResult *api.TerraformExport
	TerraformCalls  []TerraformCall

	GitResult *api.GitExportResult
	GitCalls  []GitCall
}

// TriggerCall は TriggerBackup の呼び出し内容
type TriggerCall struct {
	ConnectionID string
	Options      api.TriggerOptions
}

// TerraformCall は ExportTerraform の呼び出し内容
type TerraformCall struct {
	BackupID  string
	Resources []string
}

// GitCall は ExportGit の呼び出し内容
type GitCall struct {
	BackupID string
	Options  api.GitExportOptions
}

func (c *FakeClient) BaseURL() string { return c.baseURL }

func (c *FakeClient) CurrentUser(ctx context.Context) (*api.Me, error) {
	if c.MeErr != nil {
		return nil, c.MeErr
	}
	if c.Me == nil {
		return &api.Me{}, nil
	}
	return c.Me, nil
}

func (c *FakeClient) ListConnections(ctx context.Context) ([]api.Connection, error) {
	if c.ListErr != nil {
		return nil, c.ListErr
	}
	return c.Connections, nil
}

func (c *FakeClient) ListBackups(ctx context.Context, connectionID string) ([]api.Backup, error) {
	if c.ListErr != nil {
		return nil, c.ListErr
	}
	return c.Backups[connectionID], nil
}

func (c *FakeClient) GetBackup(ctx context.Context, id string) (*api.Backup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++
	if len(c.GetBackupSeq) == 0 {
		return nil, &api.APIError{Message: "not found", StatusCode: 404}
	}
	b := c.GetBackupSeq[0]
	if len(c.GetBackupSeq) > 1 {
		c.GetBackupSeq = c.GetBackupSeq[1:]
	}
	return &b, nil
}

func (c *FakeClient) TriggerBackup(ctx context.Context, connectionID string, opts api.TriggerOptions) (*api.TriggerResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Triggered = append(c.Triggered, TriggerCall{ConnectionID: connectionID, Options: opts})
	if c.TriggerResult == nil {
		return &api.TriggerResult{Success: true, BackupID: "new-backup", Backup: api.Backup{ID: "new-backup", Status: api.StatusRunning}}, nil
	}
	return c.TriggerResult, nil
}

func (c *FakeClient) Diff(ctx context.Context, beforeID, afterID, connectionID string) (*api.DiffResult, error) {
	c.DiffCalls = append(c.DiffCalls, [3]string{beforeID, afterID, connectionID})
	if c.DiffResult == nil {
		return &api.DiffResult{}, nil
	}
	return c.DiffResult, nil
}

func (c *FakeClient) ExportTerraform(ctx context.Context, backupID string, resources []string) (*api.TerraformExport, error) {
	c.TerraformCalls = append(c.TerraformCalls, TerraformCall{BackupID: backupID, Resources: resources})
	if c.TerraformResult == nil {
		return &api.TerraformExport{}, nil
	}
	return c.TerraformResult, nil
}

func (c *FakeClient) ExportGit(ctx context.Context, backupID string, opts api.GitExportOptions) (*api.GitExportResult, error) {
	c.GitCalls = append(c.GitCalls, GitCall{BackupID: backupID, Options: opts})
	if c.GitResult == nil {
		return &api.GitExportResult{Success: true}, nil
	}
	return c.GitResult, nil
}

// FakePrompter は用意した回答を順に返す Prompter
// 回答が尽きた状態でプロンプトが出るとテストを失敗させる
type FakePrompter struct {
	t        *testing.T
	answers  []any
	Messages []string
}

// Answer は回答を追加する
// ChooseOne / TextInput / Password は string、ChooseMany は []string、Confirm は bool
// TextInput に nil を渡すと既定値を使う
func (p *FakePrompter) Answer(answers ...any) {
	p.answers = append(p.answers, answers...)
}

// Remaining は未使用の回答数
func (p *FakePrompter) Remaining() int {
	return len(p.answers)
}

func (p *FakePrompter) next(message string) (any, error) {
	p.Messages = append(p.Messages, message)
	if len(p.answers) == 0 {
		p.t.Errorf("unexpected prompt: %s", message)
		return nil, fmt.Errorf("unexpected prompt: %s", message)
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	if err, ok := a.(error); ok {
		return nil, err
	}
	return a, nil
}

func (p *FakePrompter) ChooseOne(message string, choices []ui.Choice) (string, error) {
	a, err := p.next(message)
	if err != nil {
		return "", err
	}
	v := a.(string)
	for _, c := range choices {
		if c.Value == v {
			return v, nil
		}
	}
	p.t.Errorf("answer %q is not a choice of %q", v, message)
	return v, nil
}

func (p *FakePrompter) ChooseMany(message string, choices []ui.Choice, defaults []string) ([]string, error) {
	a, err := p.next(message)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return defaults, nil
	}
	return a.([]string), nil
}

func (p *FakePrompter) Confirm(message string, defaultValue bool) (bool, error) {
	a, err := p.next(message)
	if err != nil {
		return false, err
	}
	return a.(bool), nil
}

func (p *FakePrompter) TextInput(message, defaultValue string, validate func(string) error) (string, error) {
	a, err := p.next(message)
	if err != nil {
		return "", err
	}
	v := defaultValue
	if a != nil {
		v = a.(string)
	}
	if validate != nil {
		if err := validate(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

func (p *FakePrompter) Password(message string) (string, error) {
	a, err := p.next(message)
	if err != nil {
		return "", err
	}
	return a.(string), nil
}
