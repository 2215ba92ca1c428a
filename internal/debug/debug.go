package debug

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
)

var (
	enabled bool
	mu      sync.RWMutex
	logger  *slog.Logger
)

func init() {
	// デフォルトは無効。BUTTERFLY_DEBUG が真なら有効
	logger = newLogger(os.Stderr)
	if v, err := strconv.ParseBool(os.Getenv("BUTTERFLY_DEBUG")); err == nil && v {
		enabled = true
	}
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// Enable はデバッグモードを有効化する
func Enable() {
	mu.Lock()
	defer mu.Unlock()
	enabled = true
}

// Disable はデバッグモードを無効化する
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	enabled = false
}

// IsEnabled はデバッグモードが有効かどうかを返す
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetOutput はログの出力先を差し替える
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

// Log はデバッグモード時にログを出力する
func Log(msg string, args ...any) {
	mu.RLock()
	on, l := enabled, logger
	mu.RUnlock()
	if !on {
		return
	}
	l.Debug(msg, args...)
}
