package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/browser"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/config"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
	"github.com/butterflysecurity/butterfly-cli/internal/watch"
)

// APIClient はコマンドハンドラが使う API の集合
type APIClient interface {
	BaseURL() string
	CurrentUser(ctx context.Context) (*api.Me, error)
	ListConnections(ctx context.Context) ([]api.Connection, error)
	ListBackups(ctx context.Context, connectionID string) ([]api.Backup, error)
	GetBackup(ctx context.Context, id string) (*api.Backup, error)
	TriggerBackup(ctx context.Context, connectionID string, opts api.TriggerOptions) (*api.TriggerResult, error)
	Diff(ctx context.Context, beforeID, afterID, connectionID string) (*api.DiffResult, error)
	ExportTerraform(ctx context.Context, backupID string, resources []string) (*api.TerraformExport, error)
	ExportGit(ctx context.Context, backupID string, opts api.GitExportOptions) (*api.GitExportResult, error)
}

var _ APIClient = (*api.Client)(nil)

// IOStreams は入出力先
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// Factory はコマンドハンドラに渡す依存関係
// テストでは各フィールドを差し替える
type Factory struct {
	IO IOStreams

	Config      func() (*config.Store, error)
	NewClient   func(baseURL, apiKey string) APIClient
	Prompter    ui.Prompter
	OpenBrowser func(url string) error
	Now         func() time.Time
	Sleep       func(ctx context.Context, d time.Duration) error

	// JQ は --jq で指定されたフィルタ
	JQ string
}

// New は実行環境用の Factory を作成する
func New() *Factory {
	var (
		once   sync.Once
		cfg    *config.Store
		cfgErr error
	)

	return &Factory{
		IO: IOStreams{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr},
		Config: func() (*config.Store, error) {
			once.Do(func() {
				cfg, cfgErr = config.Load(context.Background())
			})
			return cfg, cfgErr
		},
		NewClient: func(baseURL, apiKey string) APIClient {
			return api.NewClient(baseURL, apiKey)
		},
		Prompter:    ui.NewPrompter(),
		OpenBrowser: browser.OpenURL,
		Now:         time.Now,
		Sleep:       watch.Sleep,
	}
}

// Client は保存された API キーでクライアントを作成する
// キーが無い場合は通信せずに api.ErrNotAuthenticated を返す
func (f *Factory) Client() (APIClient, *config.Store, error) {
	cfg, err := f.Config()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.IsAuthenticated() {
		return nil, cfg, api.ErrNotAuthenticated
	}
	return f.NewClient(cfg.APIURL(), cfg.APIKey()), cfg, nil
}
