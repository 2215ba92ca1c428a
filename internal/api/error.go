package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// ErrNotAuthenticated はAPIキーが設定されていない場合のエラー
var ErrNotAuthenticated = errors.New("Not authenticated. Run `butterfly login` first.")

// APIError は 2xx 以外のレスポンス
type APIError struct {
	Message    string
	StatusCode int
	// Body はJSONとして解釈できたエラーボディ。解釈できなければ nil
	Body any
}

func (e *APIError) Error() string {
	return e.Message
}

// checkResponse はステータスコードを確認し、2xx 以外なら *APIError を返す
// エラーボディがJSONでない場合はステータステキストにフォールバックする
func checkResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("API request failed: %s", http.StatusText(statusCode)),
	}

	var parsed map[string]any
	if json.Unmarshal(body, &parsed) == nil {
		apiErr.Body = parsed
		if msg, ok := parsed["error"].(string); ok && msg != "" {
			apiErr.Message = msg
		}
	}

	return apiErr
}

// IsStatus は err が指定ステータスの *APIError かどうかを返す
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == statusCode
	}
	return false
}
