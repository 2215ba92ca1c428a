package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/config"
	"github.com/butterflysecurity/butterfly-cli/internal/domain"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// LoadConnections は接続済み org を取得する。0件ならソフトエラー
func LoadConnections(ctx context.Context, client APIClient) ([]api.Connection, error) {
	conns, err := client.ListConnections(ctx)
	if err != nil {
		return nil, err
	}
	if len(conns) == 0 {
		return nil, ErrNoConnections()
	}
	return conns, nil
}

// FilterByOrg は --org で接続を絞り込む。一致しなければソフトエラー
func FilterByOrg(conns []api.Connection, org string) ([]api.Connection, error) {
	if org == "" {
		return conns, nil
	}
	filtered := domain.FilterConnections(conns, org)
	if len(filtered) == 0 {
		return nil, ErrNoMatch(org)
	}
	return filtered, nil
}

// LoadBackupGroups は各接続のバックアップ一覧を取得する
func LoadBackupGroups(ctx context.Context, client APIClient, conns []api.Connection) ([]domain.ConnectionBackups, error) {
	groups := make([]domain.ConnectionBackups, 0, len(conns))
	for _, conn := range conns {
		backups, err := client.ListBackups(ctx, conn.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list backups for %s: %w", conn.DisplayName(), err)
		}
		groups = append(groups, domain.ConnectionBackups{Connection: conn, Backups: backups})
	}
	return groups, nil
}

// ChooseConnection は操作対象の接続を決める
// --org があれば最初に一致したもの、1件ならそれ、複数なら選択させる
func ChooseConnection(p ui.Prompter, conns []api.Connection, org, message string) (api.Connection, error) {
	if org != "" {
		conn, ok := domain.FindConnection(conns, org)
		if !ok {
			return api.Connection{}, ErrNoMatch(org)
		}
		return conn, nil
	}
	if len(conns) == 1 {
		return conns[0], nil
	}

	choices := make([]ui.Choice, len(conns))
	for i, c := range conns {
		state := ui.Gray("(inactive)")
		if c.IsActive {
			state = ui.Green("(active)")
		}
		choices[i] = ui.Choice{Label: c.DisplayName() + " " + state, Value: c.ID}
	}
	id, err := p.ChooseOne(message, choices)
	if err != nil {
		return api.Connection{}, err
	}
	for _, c := range conns {
		if c.ID == id {
			return c, nil
		}
	}
	return api.Connection{}, fmt.Errorf("unknown connection: %s", id)
}

// BackupSource はバックアップIDがどこから決まったか
type BackupSource string

const (
	SourceFlag     BackupSource = "flag"
	SourceSelected BackupSource = "selected"
	SourceLatest   BackupSource = "latest"
)

// BackupRef は解決済みのバックアップ
type BackupRef struct {
	ID           string
	ConnectionID string
	Source       BackupSource
}

// ResolveBackup は操作対象のバックアップを決める
// 指定 > 選択中 > 最初の接続の最新バックアップ の順
// 選択中のIDはサーバーに問い合わせて検証しない
func ResolveBackup(ctx context.Context, client APIClient, cfg *config.Store, flag string) (BackupRef, error) {
	if flag != "" {
		return BackupRef{ID: flag, Source: SourceFlag}, nil
	}
	if sel := cfg.SelectedBackup(); sel != nil {
		return BackupRef{ID: sel.ID, ConnectionID: sel.ConnectionID, Source: SourceSelected}, nil
	}

	conns, err := LoadConnections(ctx, client)
	if err != nil {
		return BackupRef{}, err
	}
	groups, err := LoadBackupGroups(ctx, client, conns[:1])
	if err != nil {
		return BackupRef{}, err
	}
	latest, conn, err := domain.DefaultBackup(groups)
	if err != nil {
		return BackupRef{}, softDomainError(err)
	}
	return BackupRef{ID: latest.ID, ConnectionID: conn.ID, Source: SourceLatest}, nil
}

func softDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoConnections):
		return ErrNoConnections()
	case errors.Is(err, domain.ErrNoBackups):
		return ErrNoBackups()
	}
	return err
}

// ResourceSummary は件数が1以上のリソースを最大 limit 件「3 users, 2 apps」の形で返す
func ResourceSummary(counts map[string]int, limit int) string {
	keys := make([]string, 0, len(counts))
	for k, v := range counts {
		if v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d %s", counts[k], k)
	}
	return strings.Join(parts, ", ")
}
