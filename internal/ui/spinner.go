package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"golang.org/x/term"
)

// Spinner は処理中の表示
// 端末でない場合はアニメーションせず、開始時と終了時に1行ずつ出す
type Spinner struct {
	w       io.Writer
	animate bool
	style   spinner.Spinner

	mu      sync.Mutex
	message string
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner は stderr に描画するスピナーを作成する
func NewSpinner() *Spinner {
	return &Spinner{
		w:       stderr,
		animate: colorEnabled && term.IsTerminal(int(os.Stderr.Fd())),
		style:   spinner.MiniDot,
	}
}

// Start は表示を開始する
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()

	if !s.animate {
		_, _ = fmt.Fprintln(s.w, message)
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop()
}

// Update は表示中のメッセージを差し替える
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *Spinner) loop() {
	defer close(s.done)
	frames := s.style.Frames
	ticker := time.NewTicker(s.style.FPS)
	defer ticker.Stop()

	for i := 0; ; i++ {
		s.mu.Lock()
		msg := s.message
		s.mu.Unlock()
		_, _ = fmt.Fprintf(s.w, "\r\033[K%s %s", Cyan(frames[i%len(frames)]), msg)

		select {
		case <-s.stop:
			_, _ = fmt.Fprint(s.w, "\r\033[K")
			return
		case <-ticker.C:
		}
	}
}

func (s *Spinner) halt() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}

// Stop は表示を消す
func (s *Spinner) Stop() {
	s.halt()
}

// Succeed は成功として終了する
func (s *Spinner) Succeed(format string, args ...interface{}) {
	s.halt()
	_, _ = fmt.Fprintf(s.w, Green("✓ ")+format+"\n", args...)
}

// Fail は失敗として終了する
func (s *Spinner) Fail(format string, args ...interface{}) {
	s.halt()
	_, _ = fmt.Fprintf(s.w, Red("✗ ")+format+"\n", args...)
}

// Warn は警告として終了する
func (s *Spinner) Warn(format string, args ...interface{}) {
	s.halt()
	_, _ = fmt.Fprintf(s.w, Yellow("! ")+format+"\n", args...)
}
