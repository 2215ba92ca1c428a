package api

import (
	"context"
	"strings"
)

// Connection は連携済みの Okta org
// サーバー所有で、CLI からは読み取り専用
type Connection struct {
	ID             string  `json:"id"`
	OrgURL         string  `json:"org_url"`
	OrgName        *string `json:"org_name"`
	AuthType       string  `json:"auth_type"`
	LastBackupAt   *string `json:"last_backup_at"`
	BackupSchedule string  `json:"backup_schedule"`
	IsActive       bool    `json:"is_active"`
}

// DisplayName は org 名、なければ org URL を返す
func (c Connection) DisplayName() string {
	if c.OrgName != nil && *c.OrgName != "" {
		return *c.OrgName
	}
	return c.OrgURL
}

// ShortName は表示用に org URL からスキームと .okta.com を除いた名前を返す
func (c Connection) ShortName() string {
	if c.OrgName != nil && *c.OrgName != "" {
		return *c.OrgName
	}
	name := strings.TrimPrefix(c.OrgURL, "https://")
	return strings.TrimSuffix(name, ".okta.com")
}

// ListConnections は連携済みの org 一覧を取得する
func (c *Client) ListConnections(ctx context.Context) ([]Connection, error) {
	var resp struct {
		Connections []Connection `json:"connections"`
	}
	if err := c.get(ctx, "api.ListConnections", "/connections", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Connections, nil
}
