package api

import (
	"context"
	"net/url"
)

// 差分のアクション
const (
	ActionAdded    = "added"
	ActionRemoved  = "removed"
	ActionModified = "modified"
)

// DiffChange は2つのバックアップ間の変更1件
type DiffChange struct {
	ResourceType string        `json:"resourceType"`
	ResourceID   string        `json:"resourceId"`
	ResourceName string        `json:"resourceName"`
	Action       string        `json:"action"`
	Severity     string        `json:"severity"`
	Details      string        `json:"details,omitempty"`
	Changes      []FieldChange `json:"changes,omitempty"`
}

// FieldChange はフィールド単位の変更
type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"oldValue"`
	NewValue any    `json:"newValue"`
}

// DiffSummary は変更件数の集計
type DiffSummary struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

// DiffResult は /diff/compare のレスポンス
type DiffResult struct {
	Changes []DiffChange `json:"changes"`
	Summary DiffSummary  `json:"summary"`
}

// Diff は2つのバックアップを比較する。差分計算はサーバー側で行われる
func (c *Client) Diff(ctx context.Context, beforeID, afterID, connectionID string) (*DiffResult, error) {
	query := url.Values{}
	query.Set("before", beforeID)
	query.Set("after", afterID)
	if connectionID != "" {
		query.Set("connectionId", connectionID)
	}

	var result DiffResult
	if err := c.get(ctx, "api.Diff", "/diff/compare", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
