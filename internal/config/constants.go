package config

import (
	_ "embed"
)

// レイヤー名定数
const (
	LayerDefaults = "defaults"
	LayerUser     = "user"
	LayerEnv      = "env"
)

// DefaultAPIURL は本番APIのベースURL
const DefaultAPIURL = "https://butterflysecurity.org"

// CLIで使用する設定キー
const (
	KeyAPIKey         = "apiKey"
	KeyAPIURL         = "apiUrl"
	KeyDefaultOrg     = "defaultOrg"
	KeySelectedBackup = "selectedBackup"
)

// 設定ドキュメント内のJSON Pointer
const (
	PathAPIKey         = "/api_key"
	PathAPIURL         = "/api_url"
	PathDefaultOrg     = "/default_org"
	PathSelectedBackup = "/selected_backup"
)

// EnvPrefix は環境変数レイヤーのプレフィックス
const EnvPrefix = "BUTTERFLY_"

//go:embed defaults.yaml
var defaultConfigYAML []byte
