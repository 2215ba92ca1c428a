package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// 枠の色
const (
	BoxCyan   = "6"
	BoxGreen  = "2"
	BoxYellow = "3"
	BoxRed    = "1"
)

// Box はタイトル付きの角丸枠で本文を囲んだ文字列を返す
// 色が無効なときは枠だけを描く
func Box(title, body, color string) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if colorEnabled && color != "" {
		style = style.BorderForeground(lipgloss.Color(color))
	}

	content := strings.TrimRight(body, "\n")
	if title != "" {
		content = Bold(title) + "\n\n" + content
	}
	return style.Render(content)
}

// KeyValues はラベルを揃えた「ラベル: 値」の行を作る
func KeyValues(pairs ...[2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, displayWidth(p[0]))
	}
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, padRight(p[0]+":", width+1)+" "+p[1])
	}
	return strings.Join(lines, "\n")
}
