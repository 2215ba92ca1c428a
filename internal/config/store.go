package config

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
)

// SettableKeys は `config set` で変更可能なキー
var SettableKeys = []string{KeyAPIURL, KeyDefaultOrg}

// ErrUnknownKey は未定義の設定キーを指定した場合のエラー
var ErrUnknownKey = errors.New("unknown config key")

// Store は設定ドキュメントを保持し、変更のたびに Backend へ同期的に書き込む
// 単一ユーザー・単一プロセスでの利用を前提とし、プロセス間の排他制御は行わない
type Store struct {
	mu      sync.RWMutex
	backend Backend
	doc     Document
}

// Open は Backend から設定を読み込んで Store を作成する
func Open(ctx context.Context, backend Backend) (*Store, error) {
	doc, err := backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend, doc: doc}, nil
}

// Load はデフォルトパスの設定ファイルを読み込む
func Load(ctx context.Context) (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, errors.Wrap(err, "resolve config path")
	}
	backend, err := NewFileBackend(path)
	if err != nil {
		return nil, err
	}
	return Open(ctx, backend)
}

// ====================
// アクセサ（読み取り）
// ====================

// Snapshot は現在のドキュメントのコピーを返す
func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.clone()
}

// APIKey は保存されたAPIキーを返す
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.APIKey
}

// IsAuthenticated はAPIキーが保存されているかを返す
func (s *Store) IsAuthenticated() bool {
	return s.APIKey() != ""
}

// APIURL はAPIのベースURLを返す。未設定ならデフォルト
func (s *Store) APIURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc.APIURL == "" {
		return DefaultAPIURL
	}
	return strings.TrimRight(s.doc.APIURL, "/")
}

// DefaultOrg はデフォルトのorgフィルタを返す
func (s *Store) DefaultOrg() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.DefaultOrg
}

// SelectedBackup は選択中のバックアップを返す。未選択なら nil
func (s *Store) SelectedBackup() *SelectedBackup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc.SelectedBackup == nil || s.doc.SelectedBackup.ID == "" {
		return nil
	}
	sel := *s.doc.SelectedBackup
	return &sel
}

// Path は設定ファイルのパスを返す
func (s *Store) Path() string {
	return s.backend.Path()
}

// Get はCLIキーで値を取得する
func (s *Store) Get(key string) (any, error) {
	switch key {
	case KeyAPIKey:
		return s.APIKey(), nil
	case KeyAPIURL:
		return s.APIURL(), nil
	case KeyDefaultOrg:
		return s.DefaultOrg(), nil
	case KeySelectedBackup:
		return s.SelectedBackup(), nil
	}
	return nil, errors.Wrap(ErrUnknownKey, key)
}

// ====================
// セッター（書き込み）
// ====================

// Set はCLIキーで文字列値を設定する
// selectedBackup は SetSelectedBackup を使う
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.update(ctx, func(doc *Document) error {
		switch key {
		case KeyAPIKey:
			doc.APIKey = value
		case KeyAPIURL:
			doc.APIURL = value
		case KeyDefaultOrg:
			doc.DefaultOrg = value
		default:
			return errors.Wrap(ErrUnknownKey, key)
		}
		return nil
	})
}

// SetAPIKey はAPIキーを保存する
func (s *Store) SetAPIKey(ctx context.Context, apiKey string) error {
	return s.Set(ctx, KeyAPIKey, apiKey)
}

// SetSelectedBackup は選択中のバックアップを上書きする
func (s *Store) SetSelectedBackup(ctx context.Context, sel SelectedBackup) error {
	if sel.ID == "" {
		return errors.New("selected backup requires an id")
	}
	return s.update(ctx, func(doc *Document) error {
		doc.SelectedBackup = &sel
		return nil
	})
}

// ClearSelectedBackup は選択を解除する
func (s *Store) ClearSelectedBackup(ctx context.Context) error {
	return s.update(ctx, func(doc *Document) error {
		doc.SelectedBackup = nil
		return nil
	})
}

// Clear はドキュメント全体をデフォルトに戻す
// APIキーと選択も消える。呼び出し側で確認を取ること
func (s *Store) Clear(ctx context.Context) error {
	return s.update(ctx, func(doc *Document) error {
		*doc = DefaultDocument()
		return nil
	})
}

// update は変更をコピーに適用し、保存に成功した場合のみ反映する
func (s *Store) update(ctx context.Context, fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.backend.Save(ctx, next); err != nil {
		return err
	}
	s.doc = next
	return nil
}
