// Package progress 在终端显示导出进度。
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	clearLine = "\r\033[K"
	barWidth  = 24
)

// Reporter 将 0-100 的进度写到终端。输出不是终端时退化为逐行文本，
// 并且只在消息变化时输出，避免日志被刷屏。
type Reporter struct {
	mu      sync.Mutex
	w       io.Writer
	isTTY   bool
	last    int
	lastMsg string
	done    bool
}

// New creates a reporter writing to w (os.Stderr when nil).
func New(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stderr
	}
	return &Reporter{w: w, isTTY: isTerminalWriter(w), last: -1}
}

func isTerminalWriter(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Report 记录进度。百分比不会倒退，超出范围的值会被截断。
func (r *Reporter) Report(percent int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	percent = max(0, min(100, percent))
	if percent < r.last {
		percent = r.last
	}
	if r.isTTY {
		filled := percent * barWidth / 100
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		fmt.Fprintf(r.w, "%s%s %3d%% %s", clearLine, bar, percent, message)
	} else if message != r.lastMsg {
		fmt.Fprintf(r.w, "[%3d%%] %s\n", percent, message)
	}
	r.last = percent
	r.lastMsg = message
	if percent == 100 {
		r.finish()
	}
}

// Done 结束进度显示；终端下补一个换行。
func (r *Reporter) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finish()
}

func (r *Reporter) finish() {
	if r.done {
		return
	}
	r.done = true
	if r.isTTY {
		fmt.Fprintln(r.w)
	}
}

// Percent 返回目前显示的进度。
func (r *Reporter) Percent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return max(r.last, 0)
}
