package cmd

import (
	"errors"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// ExitCode はエラーの終了コード
type ExitCode int

const (
	ExitOK    ExitCode = 0
	ExitError ExitCode = 1
)

// HandleError はエラーを処理して適切なメッセージを表示する
func HandleError(err error) ExitCode {
	if err == nil {
		return ExitOK
	}

	// プロンプトの中断は何もしなかった扱い
	if errors.Is(err, ui.ErrCancelled) {
		ui.Info("Cancelled")
		return ExitOK
	}

	if errors.Is(err, cmdutil.ErrSilent) {
		return ExitError
	}

	var soft *cmdutil.SoftError
	if errors.As(err, &soft) {
		ui.Warning("%s", soft.Message)
		if soft.Hint != "" {
			ui.Info("%s", soft.Hint)
		}
		return ExitOK
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return handleAPIError(apiErr)
	}

	// 一般的なエラー（未認証を含む）
	ui.Error("%v", err)
	return ExitError
}

func handleAPIError(err *api.APIError) ExitCode {
	ui.Error("API error (%d): %s", err.StatusCode, err.Message)
	switch err.StatusCode {
	case 401:
		ui.Info("Your API key may be invalid or expired. Run `butterfly login` to re-authenticate.")
	case 429:
		ui.Info("Rate limit exceeded. Please wait and try again.")
	}
	return ExitError
}
