package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardNonInteractive(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf)
	require.False(t, board.Interactive())

	a := board.Line("github.com/a/one")
	b := board.Line("github.com/b/two")

	a.Start("Cloning")
	a.Update(10, 100)
	b.Start("Cloning")
	b.Error(errors.New("repository not found\nfatal: details"))
	a.Complete()

	lines := strings.Split(strings.TrimRight(ansi.Strip(buf.String()), "\n"), "\n")
	require.Len(t, lines, 4, "progress updates are not printed on plain writers")
	assert.Contains(t, lines[0], "github.com/a/one")
	assert.Contains(t, lines[0], "Cloning")
	assert.Contains(t, lines[1], "github.com/b/two")
	assert.Contains(t, lines[2], markFailure)
	assert.Contains(t, lines[2], "repository not found")
	assert.NotContains(t, lines[2], "fatal: details")
	assert.Contains(t, lines[3], markSuccess)

	assert.Equal(t, StatusCompleted, a.Status())
	assert.Equal(t, StatusFailed, b.Status())
}

func TestBoardInteractiveRedraw(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf, WithInteractive(true))

	l := board.Line("one")
	board.Line("two")
	buf.Reset()

	l.Start("Receiving objects")
	l.Update(25, 100)

	out := buf.String()
	assert.Contains(t, out, ansi.CursorUp(2))
	assert.Contains(t, out, ansi.EraseEntireLine)
	assert.Contains(t, ansi.Strip(out), "Receiving objects  25% (25/100)")
}

func TestBoardTruncatesRows(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf, WithInteractive(true), WithWidth(24))

	l := board.Line("github.com/some-organization/a-very-long-repository-name")
	l.Error(errors.New("remote: Repository not found because the token lacks access"))
	board.Stop()

	for _, row := range strings.Split(ansi.Strip(buf.String()), "\n") {
		row = strings.TrimLeft(row, "\r")
		assert.LessOrEqual(t, ansi.StringWidth(row), 23, "row %q", row)
	}
	assert.Contains(t, ansi.Strip(buf.String()), "…")
}

func TestBoardWriteKeepsBoardBelow(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf, WithInteractive(true))

	board.Line("one").Start("Cloning")
	board.Line("two")
	buf.Reset()

	n, err := board.Write([]byte("level=WARN msg=\"retrying clone\""))
	require.NoError(t, err)
	assert.Equal(t, len("level=WARN msg=\"retrying clone\""), n)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, ansi.CursorUp(2)+"\r"+ansi.EraseScreenBelow), "board is cleared before the log line")

	rows := strings.Split(strings.TrimRight(ansi.Strip(out), "\n"), "\n")
	require.Len(t, rows, 3)
	assert.Contains(t, rows[0], "retrying clone")
	assert.Contains(t, rows[1], "one")
	assert.Contains(t, rows[2], "two")

	// The next redraw only climbs over the board, not the log line.
	buf.Reset()
	board.Line("three")
	assert.True(t, strings.HasPrefix(buf.String(), ansi.CursorUp(2)))
}

func TestBoardWritePassesThroughWhenPlain(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf)
	board.Line("one").Start("Cloning")

	_, err := board.Write([]byte("log line\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ansi.Strip(buf.String()), "log line\n"))
}

func TestBoardStopWithoutAnimate(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf, WithInteractive(true))
	board.Line("one").Complete()

	board.Animate()
	board.Animate()
	board.Stop()
	assert.Contains(t, ansi.Strip(buf.String()), markSuccess)

	buf.Reset()
	board.Stop()
	assert.Empty(t, buf.String(), "a second Stop does not redraw over later output")
}

func TestBoardConcurrentLines(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		l := board.Line("task")
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Start("Cloning")
			for j := int64(0); j <= 10; j++ {
				l.Update(j, 10)
			}
			l.Complete()
		}()
	}
	wg.Wait()

	for _, line := range strings.Split(strings.TrimRight(ansi.Strip(buf.String()), "\n"), "\n") {
		assert.True(t, strings.HasPrefix(line, "- task") || strings.HasPrefix(line, markSuccess+" task"), "interleaved line %q", line)
	}
}

func TestDiscard(t *testing.T) {
	tr := Discard()
	tr.Start("x")
	tr.Update(1, 2)
	tr.Complete()
}
