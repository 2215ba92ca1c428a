package cmdutil

import (
	"errors"
	"fmt"
)

// SoftError は終了コード 0 のまま案内を表示して終わる失敗
// 接続先やバックアップが無い場合などに使う
type SoftError struct {
	Message string
	Hint    string
}

func (e *SoftError) Error() string {
	return e.Message
}

// ErrNoConnections は接続済み org が無い場合
func ErrNoConnections() error {
	return &SoftError{
		Message: "No Okta connections found",
		Hint:    "Connect your first Okta org at: " + ConnectionsURL,
	}
}

// ErrNoMatch は --org に一致する接続が無い場合
func ErrNoMatch(org string) error {
	return &SoftError{Message: fmt.Sprintf("No connection found matching %q", org)}
}

// ErrNoBackups はバックアップが無い場合
func ErrNoBackups() error {
	return &SoftError{
		Message: "No backups found",
		Hint:    "Run `butterfly backup` to create your first backup.",
	}
}

// ConnectionsURL は org を接続するダッシュボードのページ
const ConnectionsURL = "https://butterflysecurity.org/dashboard/connections/new"

// ErrSilent はメッセージを表示せずに終了コード 1 で終わるためのエラー
var ErrSilent = errors.New("silent exit")
