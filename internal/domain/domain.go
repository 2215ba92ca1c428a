package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
)

// MatchConnection は org URL または org 名（大文字小文字を無視）にクエリが含まれるかを返す
func MatchConnection(conn api.Connection, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(conn.OrgURL, query) {
		return true
	}
	if conn.OrgName != nil && strings.Contains(strings.ToLower(*conn.OrgName), strings.ToLower(query)) {
		return true
	}
	return false
}

// FilterConnections はクエリに一致する connection だけを返す
func FilterConnections(conns []api.Connection, query string) []api.Connection {
	return lo.Filter(conns, func(c api.Connection, _ int) bool {
		return MatchConnection(c, query)
	})
}

// FindConnection はクエリに最初に一致する connection を返す
func FindConnection(conns []api.Connection, query string) (api.Connection, bool) {
	return lo.Find(conns, func(c api.Connection) bool {
		return MatchConnection(c, query)
	})
}

// SortBackupsDesc はタイムスタンプの新しい順に並べたコピーを返す
func SortBackupsDesc(backups []api.Backup) []api.Backup {
	sorted := make([]api.Backup, len(backups))
	copy(sorted, backups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time().After(sorted[j].Time())
	})
	return sorted
}

// LatestBackup は最も新しいバックアップを返す
func LatestBackup(backups []api.Backup) (api.Backup, bool) {
	if len(backups) == 0 {
		return api.Backup{}, false
	}
	return SortBackupsDesc(backups)[0], true
}

// FindBackup は ID の完全一致、なければ前方一致でバックアップを探す
// 前方一致が複数ある場合は新しいものを優先する
func FindBackup(backups []api.Backup, ref string) (api.Backup, bool) {
	if ref == "" {
		return api.Backup{}, false
	}
	if b, ok := lo.Find(backups, func(b api.Backup) bool { return b.ID == ref }); ok {
		return b, true
	}
	return lo.Find(SortBackupsDesc(backups), func(b api.Backup) bool {
		return strings.HasPrefix(b.ID, ref)
	})
}

// PreviousBackup は id のバックアップの1つ前（より古い）バックアップを返す
func PreviousBackup(backups []api.Backup, id string) (api.Backup, bool) {
	sorted := SortBackupsDesc(backups)
	_, idx, ok := lo.FindIndexOf(sorted, func(b api.Backup) bool { return b.ID == id })
	if !ok || idx+1 >= len(sorted) {
		return api.Backup{}, false
	}
	return sorted[idx+1], true
}

// ShortID は表示用に ID の先頭8文字を返す
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// ConnectionBackups は connection とそのバックアップ一覧の組
type ConnectionBackups struct {
	Connection api.Connection
	Backups    []api.Backup
}

// DefaultBackup はバックアップ未指定時の既定を返す
// 最初の connection のバックアップのうち最も新しいもの
func DefaultBackup(groups []ConnectionBackups) (api.Backup, api.Connection, error) {
	if len(groups) == 0 {
		return api.Backup{}, api.Connection{}, ErrNoConnections
	}
	first := groups[0]
	latest, ok := LatestBackup(first.Backups)
	if !ok {
		return api.Backup{}, first.Connection, ErrNoBackups
	}
	return latest, first.Connection, nil
}

// BackupEntry は connection 情報付きのバックアップ
type BackupEntry struct {
	api.Backup
	OrgName      string `json:"orgName"`
	ConnectionID string `json:"connectionId"`
}

// FlattenBackups は connection ごとのバックアップを1つの一覧にまとめ、新しい順に並べる
// JSON では Backup のフィールドに orgName と connectionId を加えた形になる
// limit が 0 以下なら全件
func FlattenBackups(groups []ConnectionBackups, limit int) []BackupEntry {
	entries := lo.FlatMap(groups, func(g ConnectionBackups, _ int) []BackupEntry {
		return lo.Map(g.Backups, func(b api.Backup, _ int) BackupEntry {
			return BackupEntry{Backup: b, OrgName: g.Connection.DisplayName(), ConnectionID: g.Connection.ID}
		})
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Backup.Time().After(entries[j].Backup.Time())
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// ErrNoConnections などはソフトな失敗としてメッセージ表示だけで終了するための目印
var (
	ErrNoConnections = fmt.Errorf("no Okta connections found")
	ErrNoBackups     = fmt.Errorf("no backups found")
)
