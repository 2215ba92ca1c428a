package ui

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Table は罫線なしの整列テーブル
// セル内の ANSI エスケープは幅計算から除外する
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable は新しいテーブルを作成する
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow は行を追加する
func (t *Table) AddRow(values ...string) {
	t.rows = append(t.rows, values)
}

// Len は行数を返す
func (t *Table) Len() int {
	return len(t.rows)
}

// Render はテーブルを出力する
func (t *Table) Render(w io.Writer) {
	widths := t.columnWidths()

	header := make([]string, len(t.headers))
	for i, h := range t.headers {
		header[i] = Bold(h)
	}
	writeRow(w, header, widths)
	for _, row := range t.rows {
		writeRow(w, row, widths)
	}
}

func writeRow(w io.Writer, cells []string, widths []int) {
	var sb strings.Builder
	for i, cell := range cells {
		if i > 0 {
			sb.WriteString("  ")
		}
		// 最終カラムは末尾に空白を付けない
		if i < len(widths) && i < len(cells)-1 {
			sb.WriteString(padRight(cell, widths[i]))
		} else {
			sb.WriteString(cell)
		}
	}
	_, _ = fmt.Fprintln(w, sb.String())
}

// columnWidths は各カラムの最大表示幅を計算する
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = displayWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], displayWidth(cell))
			}
		}
	}
	return widths
}

var (
	ansiEscapeRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	osc8Regex       = regexp.MustCompile(`\x1b\]8;;[^\x1b]*\x1b\\`)
)

// displayWidth はエスケープシーケンスを除いた表示幅を返す
// 3バイト以上の文字（CJK など）は幅2として数える
func displayWidth(s string) int {
	clean := osc8Regex.ReplaceAllString(s, "")
	clean = ansiEscapeRegex.ReplaceAllString(clean, "")

	width := 0
	for _, r := range clean {
		if utf8.RuneLen(r) >= 3 && !isNarrowSymbol(r) {
			width += 2
		} else {
			width++
		}
	}
	return width
}

// isNarrowSymbol は3バイトだが端末上で幅1の記号
func isNarrowSymbol(r rune) bool {
	switch {
	case r >= 0x2000 && r <= 0x27BF: // 一般句読点・矢印・罫線・記号（✓ ✗ → — など）
		return true
	case r >= 0x2800 && r <= 0x28FF: // 点字（スピナー）
		return true
	}
	return false
}

func padRight(s string, targetWidth int) string {
	current := displayWidth(s)
	if current >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-current)
}
