package config

// SelectedBackup は後続コマンドのデフォルトとして記憶しておくバックアップへのポインタ
// 選択時点で存在したバックアップを指すが、読み出し時にサーバーへ再検証はしない
type SelectedBackup struct {
	ID           string `json:"id" yaml:"id" jubako:"/selected_backup/id"`
	OrgName      string `json:"org_name" yaml:"org_name" jubako:"/selected_backup/org_name"`
	Timestamp    string `json:"timestamp" yaml:"timestamp" jubako:"/selected_backup/timestamp"`
	ConnectionID string `json:"connection_id" yaml:"connection_id" jubako:"/selected_backup/connection_id"`
}

// Document は設定ファイル全体を表す
// jubakoのmaterializationはJSONを使用するため、jsonタグが必須
type Document struct {
	APIKey         string          `json:"api_key" jubako:"/api_key,env:API_KEY"`
	APIURL         string          `json:"api_url" jubako:"/api_url,env:API_URL"`
	DefaultOrg     string          `json:"default_org" jubako:"/default_org,env:DEFAULT_ORG"`
	// 子フィールドが絶対パスを持つため親はマッピングしない
	SelectedBackup *SelectedBackup `json:"selected_backup,omitempty" jubako:"-"`
}

// DefaultDocument はリセット直後の状態を返す
func DefaultDocument() Document {
	return Document{APIURL: DefaultAPIURL}
}

func (d Document) clone() Document {
	out := d
	if d.SelectedBackup != nil {
		sel := *d.SelectedBackup
		out.SelectedBackup = &sel
	}
	return out
}
