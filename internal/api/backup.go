package api

import (
	"context"
	"net/url"
	"time"
)

// バックアップのステータス
// running から completed / failed への遷移はサーバーが行い、CLI はポーリングで観測するだけ
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Backup はバックアップのスナップショット
type Backup struct {
	ID             string         `json:"id"`
	ConnectionID   string         `json:"connection_id"`
	Timestamp      string         `json:"timestamp"`
	Status         string         `json:"status"`
	SizeBytes      *int64         `json:"size_bytes"`
	ResourceCounts map[string]int `json:"resource_counts"`
}

// Time はタイムスタンプを解釈して返す。解釈できなければゼロ値
func (b Backup) Time() time.Time {
	t, err := time.Parse(time.RFC3339, b.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Size はバイト数を返す。不明なら 0
func (b Backup) Size() int64 {
	if b.SizeBytes == nil {
		return 0
	}
	return *b.SizeBytes
}

// TotalResources はリソース数の合計
func (b Backup) TotalResources() int {
	total := 0
	for _, n := range b.ResourceCounts {
		total += n
	}
	return total
}

// IsRunning はバックアップが実行中かどうか
func (b Backup) IsRunning() bool {
	return b.Status == StatusRunning
}

// TriggerOptions はバックアップ実行時のオプション
type TriggerOptions struct {
	ResourceTypes    []string
	IncludeWorkflows bool
}

// TriggerResult は /backup/run のレスポンス
type TriggerResult struct {
	Success  bool   `json:"success"`
	BackupID string `json:"backupId"`
	Backup   Backup `json:"backup"`
}

type triggerRequest struct {
	ConnectionID     string   `json:"connectionId"`
	Include          []string `json:"include,omitempty"`
	IncludeWorkflows bool     `json:"includeWorkflows"`
}

// ListBackups は指定 connection のバックアップ一覧を取得する
// connectionID が空なら全 connection が対象
func (c *Client) ListBackups(ctx context.Context, connectionID string) ([]Backup, error) {
	query := url.Values{}
	if connectionID != "" {
		query.Set("connectionId", connectionID)
	}

	var resp struct {
		Backups []Backup `json:"backups"`
	}
	if err := c.get(ctx, "api.ListBackups", "/backup/list", query, &resp); err != nil {
		return nil, err
	}
	return resp.Backups, nil
}

// GetBackup はバックアップを1件取得する
func (c *Client) GetBackup(ctx context.Context, id string) (*Backup, error) {
	var backup Backup
	if err := c.get(ctx, "api.GetBackup", "/backup/"+url.PathEscape(id), nil, &backup); err != nil {
		return nil, err
	}
	return &backup, nil
}

// TriggerBackup はバックアップを開始する
func (c *Client) TriggerBackup(ctx context.Context, connectionID string, opts TriggerOptions) (*TriggerResult, error) {
	body := triggerRequest{
		ConnectionID:     connectionID,
		Include:          opts.ResourceTypes,
		IncludeWorkflows: opts.IncludeWorkflows,
	}

	var result TriggerResult
	if err := c.post(ctx, "api.TriggerBackup", "/backup/run", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
