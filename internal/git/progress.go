package git

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/NicabarNimble/go-gitws/internal/progress"
)

// Match lines like:
// Receiving objects:  67% (35484/52960), 236.76 MiB | 78.92 MiB/s
// remote: Counting objects: 100% (12/12), done.
var progressRegex = regexp.MustCompile(`^(?:remote:\s*)?([A-Za-z][A-Za-z ]*[a-z]):\s+(\d+)%\s+\((\d+)/(\d+)\)`)

const tailSize = 8

// progressWriter turns git's progress output into tracker updates. Lines
// that are not progress are kept so failures can quote them.
type progressWriter struct {
	mu      sync.Mutex
	tracker progress.Tracker
	phase   string
	partial []byte
	tail    []string
}

func newProgressWriter(t progress.Tracker) *progressWriter {
	return &progressWriter{tracker: trackerOrDiscard(t)}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	data := append(pw.partial, p...)
	for {
		i := bytes.IndexAny(data, "\r\n")
		if i < 0 {
			break
		}
		pw.line(string(data[:i]))
		data = data[i+1:]
	}
	pw.partial = append([]byte(nil), data...)
	return len(p), nil
}

// Flush handles a trailing line without terminator.
func (pw *progressWriter) Flush() {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if len(pw.partial) > 0 {
		pw.line(string(pw.partial))
		pw.partial = nil
	}
}

func (pw *progressWriter) line(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "Cloning into") {
		return
	}

	if m := progressRegex.FindStringSubmatch(line); m != nil {
		phase := m[1]
		current, _ := strconv.ParseInt(m[3], 10, 64)
		total, _ := strconv.ParseInt(m[4], 10, 64)
		if phase != pw.phase {
			pw.phase = phase
			pw.tracker.Start(phase)
		}
		pw.tracker.Update(current, total)
		return
	}

	if len(pw.tail) == tailSize {
		pw.tail = pw.tail[1:]
	}
	pw.tail = append(pw.tail, line)
}

// Tail returns the last non-progress lines, oldest first.
func (pw *progressWriter) Tail() string {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return strings.Join(pw.tail, "\n")
}
