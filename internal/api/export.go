package api

import "context"

// TerraformFile はエクスポートされた Terraform ファイル
type TerraformFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// TerraformExport は /export/terraform のレスポンス
type TerraformExport struct {
	Files       []TerraformFile `json:"files"`
	TotalSize   int64           `json:"totalSize"`
	DownloadURL string          `json:"downloadUrl,omitempty"`
}

// GitExportOptions は Git エクスポートの宛先
type GitExportOptions struct {
	Provider      string
	Repository    string
	Branch        string
	CommitMessage string
}

// GitExportResult は /export/git のレスポンス
type GitExportResult struct {
	Success   bool   `json:"success"`
	CommitSHA string `json:"commitSha,omitempty"`
	URL       string `json:"url,omitempty"`
}

// ExportTerraform はバックアップを Terraform HCL に変換する
func (c *Client) ExportTerraform(ctx context.Context, backupID string, resources []string) (*TerraformExport, error) {
	body := struct {
		BackupID  string   `json:"backupId"`
		Resources []string `json:"resources,omitempty"`
	}{backupID, resources}

	var result TerraformExport
	if err := c.post(ctx, "api.ExportTerraform", "/export/terraform", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExportGit はバックアップを Git リポジトリへプッシュする
func (c *Client) ExportGit(ctx context.Context, backupID string, opts GitExportOptions) (*GitExportResult, error) {
	body := struct {
		BackupID string `json:"backupId"`
		Provider string `json:"provider"`
		Repo     string `json:"repo"`
		Branch   string `json:"branch"`
		Message  string `json:"message,omitempty"`
	}{backupID, opts.Provider, opts.Repository, opts.Branch, opts.CommitMessage}

	var result GitExportResult
	if err := c.post(ctx, "api.ExportGit", "/export/git", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
