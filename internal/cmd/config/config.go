package config

import (
	"github.com/spf13/cobra"

	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/config"
)

// NewConfigCmd は config コマンドを作成する
func NewConfigCmd(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "Show and change CLI configuration.",
	}

	cmd.AddCommand(newShowCmd(f))
	cmd.AddCommand(newSetCmd(f))
	cmd.AddCommand(newEditCmd(f))
	cmd.AddCommand(newResetCmd(f))
	cmd.AddCommand(newPathCmd(f))

	return cmd
}

// view は config show が出力する内容
// APIキーそのものは出さない
type view struct {
	APIURL     string `json:"apiUrl" yaml:"apiUrl"`
	DefaultOrg string `json:"defaultOrg,omitempty" yaml:"defaultOrg,omitempty"`
	HasAPIKey  bool   `json:"hasApiKey" yaml:"hasApiKey"`
}

func currentView(cfg *config.Store) view {
	return view{
		APIURL:     cfg.APIURL(),
		DefaultOrg: cfg.DefaultOrg(),
		HasAPIKey:  cfg.IsAuthenticated(),
	}
}
