package config

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/yacchi/jubako"
	"github.com/yacchi/jubako/format/yaml"
	"github.com/yacchi/jubako/layer"
	"github.com/yacchi/jubako/layer/env"
	"github.com/yacchi/jubako/source/bytes"
	"github.com/yacchi/jubako/source/fs"
)

// Backend は設定ドキュメントの永続化ポート
type Backend interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
	Path() string
}

// FileBackend はjubakoで設定ファイルを読み書きする
//
// レイヤー構成:
//   - defaults (埋め込みYAML、読み取り専用)
//   - user (~/.config/butterfly/config.yaml)
//   - env (BUTTERFLY_*、読み取り専用)
//
// 書き込みは常にuserレイヤーに対して行う。
type FileBackend struct {
	store *jubako.Store[Document]
	path  string

	// 最後に読み書きした状態。変更のあったフィールドだけを書き込むために使う
	last Document
}

// NewFileBackend は指定パスの設定ファイルを扱うバックエンドを作成する
func NewFileBackend(path string) (*FileBackend, error) {
	store := jubako.New[Document]()

	// Layer 1: Defaults (embedded YAML)
	if err := store.Add(
		layer.New(
			LayerDefaults,
			bytes.FromString(string(defaultConfigYAML)),
			yaml.New(),
		),
		jubako.WithReadOnly(),
		jubako.WithNoWatch(),
	); err != nil {
		return nil, errors.Wrap(err, "add defaults layer")
	}

	// Layer 2: User config
	// APIキーを含むため0600で書き込む
	if err := store.Add(
		layer.New(
			LayerUser,
			fs.New(path, fs.WithFileMode(0600)),
			yaml.New(),
		),
		jubako.WithOptional(),
	); err != nil {
		return nil, errors.Wrap(err, "add user layer")
	}

	// Layer 3: Environment variables
	if err := store.Add(
		env.NewWithAutoSchema(LayerEnv, EnvPrefix),
		jubako.WithReadOnly(),
	); err != nil {
		return nil, errors.Wrap(err, "add env layer")
	}

	return &FileBackend{store: store, path: path}, nil
}

// Load は全レイヤーを読み込んでマージ済みのドキュメントを返す
func (b *FileBackend) Load(ctx context.Context) (Document, error) {
	if err := b.store.Load(ctx); err != nil {
		return Document{}, errors.Wrapf(err, "load %s", b.path)
	}
	b.last = b.store.Get().clone()
	return b.last.clone(), nil
}

// Save は前回から変更されたフィールドだけをuserレイヤーに書き込む
// 環境変数由来の値がファイルに書き出されることはない
func (b *FileBackend) Save(ctx context.Context, doc Document) error {
	fields := []struct {
		path      string
		old, next string
	}{
		{PathAPIKey, b.last.APIKey, doc.APIKey},
		{PathAPIURL, b.last.APIURL, doc.APIURL},
		{PathDefaultOrg, b.last.DefaultOrg, doc.DefaultOrg},
	}
	for _, f := range fields {
		if f.old == f.next {
			continue
		}
		if err := b.store.SetTo(LayerUser, f.path, f.next); err != nil {
			return errors.Wrapf(err, "set %s", f.path)
		}
	}

	if !sameSelection(b.last.SelectedBackup, doc.SelectedBackup) {
		if err := b.setSelection(doc.SelectedBackup); err != nil {
			return err
		}
	}

	if err := b.store.Save(ctx); err != nil {
		return errors.Wrapf(err, "save %s", b.path)
	}
	b.last = doc.clone()
	return nil
}

func (b *FileBackend) setSelection(sel *SelectedBackup) error {
	if sel == nil {
		// userレイヤーに値がなければ削除するものもない
		rv := b.store.GetAt(PathSelectedBackup)
		if !rv.Exists {
			return nil
		}
		if err := b.store.DeleteFrom(LayerUser, PathSelectedBackup); err != nil {
			return errors.Wrap(err, "delete selected backup")
		}
		return nil
	}
	if err := b.store.Set(LayerUser,
		jubako.Struct(PathSelectedBackup, sel),
		jubako.SkipZeroValues(),
	); err != nil {
		return errors.Wrap(err, "set selected backup")
	}
	return nil
}

// Path は設定ファイルのパスを返す
func (b *FileBackend) Path() string {
	return b.path
}

func sameSelection(a, b *SelectedBackup) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// MemoryBackend はメモリ上に設定を保持するバックエンド（テスト用）
type MemoryBackend struct {
	mu    sync.Mutex
	doc   Document
	Saves int
}

// NewMemoryBackend は初期ドキュメントを持つMemoryBackendを作成する
func NewMemoryBackend(doc Document) *MemoryBackend {
	return &MemoryBackend{doc: doc.clone()}
}

func (m *MemoryBackend) Load(ctx context.Context) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.clone(), nil
}

func (m *MemoryBackend) Save(ctx context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc.clone()
	m.Saves++
	return nil
}

func (m *MemoryBackend) Path() string {
	return ":memory:"
}
