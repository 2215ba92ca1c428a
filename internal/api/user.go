package api

import "context"

// Me は /auth/me のレスポンス
// サーバーの版によってメールアドレスがトップレベルか user 配下に入る
type Me struct {
	Email string `json:"email,omitempty"`
	User  *struct {
		Email string `json:"email,omitempty"`
	} `json:"user,omitempty"`
}

// EmailAddress はどちらかに入っているメールアドレスを返す
func (m *Me) EmailAddress() string {
	if m.Email != "" {
		return m.Email
	}
	if m.User != nil {
		return m.User.Email
	}
	return ""
}

// CurrentUser は認証中のユーザー情報を取得する
// APIキーの検証にも使う
func (c *Client) CurrentUser(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.get(ctx, "api.CurrentUser", "/auth/me", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}
