package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var colorEnabled = true

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func init() {
	// 色が使えるかチェック
	colorEnabled = term.IsTerminal(int(os.Stdout.Fd()))
}

// SetColorEnabled は色の有効/無効を設定する
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

// IsColorEnabled は色が有効かどうかを返す
func IsColorEnabled() bool {
	return colorEnabled
}

// SetOutput はメッセージの出力先を差し替える
func SetOutput(out, errOut io.Writer) {
	stdout = out
	stderr = errOut
}

const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	blue    = "\033[34m"
	magenta = "\033[35m"
	cyan    = "\033[36m"
	gray    = "\033[90m"
)

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + reset
}

// Bold は太字にする
func Bold(s string) string { return paint(bold, s) }

// Red は赤色にする
func Red(s string) string { return paint(red, s) }

// Green は緑色にする
func Green(s string) string { return paint(green, s) }

// Yellow は黄色にする
func Yellow(s string) string { return paint(yellow, s) }

// Blue は青色にする
func Blue(s string) string { return paint(blue, s) }

// Magenta はマゼンタにする
func Magenta(s string) string { return paint(magenta, s) }

// Cyan はシアン色にする
func Cyan(s string) string { return paint(cyan, s) }

// Gray はグレーにする
func Gray(s string) string { return paint(gray, s) }

// StatusColor はバックアップのステータスに応じた色を返す
func StatusColor(status string) string {
	switch status {
	case "completed":
		return Green(status)
	case "running":
		return Yellow(status)
	case "failed":
		return Red(status)
	default:
		return status
	}
}

// ActionColor は差分アクションに応じたラベルを返す
func ActionColor(action string) string {
	switch action {
	case "added":
		return Green("+ ADDED")
	case "removed":
		return Red("- REMOVED")
	case "modified":
		return Yellow("~ MODIFIED")
	default:
		return action
	}
}

// SeverityColor は重要度に応じた色を返す
func SeverityColor(severity string) string {
	switch severity {
	case "critical":
		return Bold(Red(severity))
	case "high":
		return Red(severity)
	case "medium":
		return Yellow(severity)
	case "low":
		return Gray(severity)
	default:
		return severity
	}
}

// Success は成功メッセージを出力する
func Success(format string, args ...interface{}) {
	fmt.Fprintf(stdout, Green("✓ ")+format+"\n", args...)
}

// Error はエラーメッセージを出力する
func Error(format string, args ...interface{}) {
	fmt.Fprintf(stderr, Red("✗ ")+format+"\n", args...)
}

// Warning は警告メッセージを出力する
func Warning(format string, args ...interface{}) {
	fmt.Fprintf(stdout, Yellow("! ")+format+"\n", args...)
}

// Info は情報メッセージを出力する
func Info(format string, args ...interface{}) {
	fmt.Fprintf(stdout, Blue("ℹ ")+format+"\n", args...)
}

// Hyperlink はターミナルハイパーリンク（OSC 8）を生成する
// 色が無効なときはラベルだけを返す
func Hyperlink(url, label string) string {
	if !colorEnabled {
		return label
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, label)
}
