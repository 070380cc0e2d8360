package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

var (
	nameStyle    = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	pendingStyle = lipgloss.NewStyle().Faint(true)
)

// defaultWidth is assumed when the terminal size cannot be read.
const defaultWidth = 80

const (
	markPending = "·"
	markSuccess = "✓"
	markFailure = "✗"
)

// Board renders one line per task on a shared writer. All writes go through
// the board's mutex, so lines from different tasks never interleave.
//
// On a terminal the whole board is redrawn in place, one row per line, and
// rows are cut to the terminal width. Elsewhere every reportable change is
// appended as its own line.
//
// A Board is also an io.Writer: text written to it is printed above the
// board, so loggers can share the terminal with it.
type Board struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	width       int
	frames      []string
	lines       []*Line
	drawn       int
	stopped     bool
	now         func() time.Time

	stop chan struct{}
	done chan struct{}
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithInteractive forces in-place redrawing on or off.
func WithInteractive(on bool) BoardOption {
	return func(b *Board) { b.interactive = on }
}

// WithWidth sets the column count rows are truncated to.
func WithWidth(cols int) BoardOption {
	return func(b *Board) { b.width = cols }
}

// NewBoard creates a board writing to w. Redrawing is enabled when w is a
// terminal.
func NewBoard(w io.Writer, opts ...BoardOption) *Board {
	b := &Board{
		w:           w,
		interactive: isTerminal(w),
		width:       terminalWidth(w),
		frames:      spinner.MiniDot.Frames,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(f.Fd()); err == nil && cols > 0 {
			return cols
		}
	}
	return defaultWidth
}

// Interactive reports whether the board redraws in place.
func (b *Board) Interactive() bool {
	return b.interactive
}

// Line registers a task line labelled name. Lines are drawn in the order
// they are added.
func (b *Board) Line(name string) *Line {
	b.mu.Lock()
	defer b.mu.Unlock()

	l := &Line{board: b, name: name}
	b.lines = append(b.lines, l)
	if b.interactive {
		b.redraw()
	}
	return l
}

// Animate advances spinner frames until Stop is called. It is a no-op on a
// non-interactive board.
func (b *Board) Animate() {
	if !b.interactive {
		return
	}
	b.mu.Lock()
	if b.stop != nil {
		b.mu.Unlock()
		return
	}
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	stop, done := b.stop, b.done
	b.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(spinner.MiniDot.FPS)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				b.mu.Lock()
				for _, l := range b.lines {
					if l.state.status == StatusInProgress {
						l.frame++
					}
				}
				b.redraw()
				b.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and draws the final state. Later calls do
// nothing.
func (b *Board) Stop() {
	b.mu.Lock()
	stop, done := b.stop, b.done
	b.stop, b.done = nil, nil
	b.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.interactive && !b.stopped {
		b.redraw()
	}
	b.stopped = true
}

// Write prints p above the board and redraws the board below it. Once the
// board is stopped, p is written as is.
func (b *Board) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.interactive || b.drawn == 0 || b.stopped {
		return b.w.Write(p)
	}

	var sb strings.Builder
	sb.WriteString(ansi.CursorUp(b.drawn))
	sb.WriteString("\r")
	sb.WriteString(ansi.EraseScreenBelow)
	sb.Write(p)
	if len(p) > 0 && p[len(p)-1] != '\n' {
		sb.WriteByte('\n')
	}
	if _, err := io.WriteString(b.w, sb.String()); err != nil {
		return 0, err
	}
	b.drawn = 0
	b.redraw()
	return len(p), nil
}

// redraw moves the cursor to the top of the board and rewrites every line.
// A row never reaches the last column, where the terminal would wrap it and
// throw off the cursor arithmetic. Callers hold b.mu.
func (b *Board) redraw() {
	var sb strings.Builder
	if b.drawn > 0 {
		sb.WriteString(ansi.CursorUp(b.drawn))
	}
	for _, l := range b.lines {
		row := l.render(true)
		if b.width > 1 {
			row = ansi.Truncate(row, b.width-1, "…")
		}
		sb.WriteString("\r")
		sb.WriteString(ansi.EraseEntireLine)
		sb.WriteString(row)
		sb.WriteString("\n")
	}
	b.drawn = len(b.lines)
	io.WriteString(b.w, sb.String())
}

// changed is called by a line after its state moved. Callers hold b.mu.
func (b *Board) changed(l *Line, significant bool) {
	if b.interactive {
		b.redraw()
		return
	}
	if significant {
		fmt.Fprintln(b.w, l.render(false))
	}
}

type lineState struct {
	status string
	op     *Operation
	err    error
}

// Line is the Tracker of a single task on a Board.
type Line struct {
	board *Board
	name  string
	state lineState
	frame int
}

// Start begins a new phase of the task.
func (l *Line) Start(operation string) *Operation {
	b := l.board
	b.mu.Lock()
	defer b.mu.Unlock()

	op := newOperation(operation, b.now())
	l.state.status = StatusInProgress
	l.state.op = op
	b.changed(l, true)
	return op
}

// Update reports counted progress inside the current phase.
func (l *Line) Update(current, total int64) {
	b := l.board
	b.mu.Lock()
	defer b.mu.Unlock()

	if l.state.op == nil {
		l.state.op = newOperation("", b.now())
		l.state.status = StatusInProgress
	}
	l.state.op.observe(current, total, b.now())
	b.changed(l, false)
}

// Complete marks the task as succeeded.
func (l *Line) Complete() {
	b := l.board
	b.mu.Lock()
	defer b.mu.Unlock()

	l.state.status = StatusCompleted
	if l.state.op != nil {
		l.state.op.Status = StatusCompleted
	}
	b.changed(l, true)
}

// Error marks the task as failed.
func (l *Line) Error(err error) {
	b := l.board
	b.mu.Lock()
	defer b.mu.Unlock()

	l.state.status = StatusFailed
	l.state.err = err
	if l.state.op != nil {
		l.state.op.Status = StatusFailed
	}
	b.changed(l, true)
}

// Status returns the line's current status, empty while pending.
func (l *Line) Status() string {
	l.board.mu.Lock()
	defer l.board.mu.Unlock()
	return l.state.status
}

// render formats the line. Callers hold the board mutex.
func (l *Line) render(interactive bool) string {
	var mark string
	switch l.state.status {
	case StatusCompleted:
		mark = successStyle.Render(markSuccess)
	case StatusFailed:
		mark = failureStyle.Render(markFailure)
	case StatusInProgress:
		if interactive {
			mark = l.board.frames[l.frame%len(l.board.frames)]
		} else {
			mark = "-"
		}
	default:
		mark = pendingStyle.Render(markPending)
	}

	parts := []string{mark, nameStyle.Render(l.name)}
	switch {
	case l.state.status == StatusFailed && l.state.err != nil:
		parts = append(parts, failureStyle.Render(firstLine(l.state.err.Error())))
	case l.state.status == StatusCompleted:
		parts = append(parts, successStyle.Render("done"))
	case l.state.op != nil && l.state.op.Name != "":
		desc := l.state.op.Name
		if p := l.state.op.Percent(); p >= 0 {
			desc = fmt.Sprintf("%s %3d%% (%d/%d)", desc, p, l.state.op.LastCurrent, l.state.op.LastTotal)
		}
		parts = append(parts, desc)
	}
	return strings.Join(parts, " ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
