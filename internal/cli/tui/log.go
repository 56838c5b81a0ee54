package tui

import (
	"bytes"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// LogWriter redirects stdlib log output into the TUI log pane so the
// watchdog's log lines don't tear the rendered screen. Set it as the
// log output while the program runs.
type LogWriter struct {
	program *tea.Program

	mu      sync.Mutex
	partial bytes.Buffer
	maxLine int
}

// NewLogWriter creates a LogWriter that sends complete log lines into
// the program as LogMsg values.
func NewLogWriter(program *tea.Program) *LogWriter {
	return &LogWriter{
		program: program,
		maxLine: 500,
	}
}

// Write implements io.Writer, buffering until a newline completes a line
func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial.Write(p)

	for {
		data := w.partial.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			return len(p), nil
		}

		line := string(data[:idx])
		w.partial.Next(idx + 1)
		w.send(line)
	}
}

// Flush sends any buffered partial line
func (w *LogWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.partial.Len() == 0 {
		return
	}
	line := w.partial.String()
	w.partial.Reset()
	w.send(line)
}

func (w *LogWriter) send(line string) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return
	}
	if w.maxLine > 0 && len(line) > w.maxLine {
		line = line[:w.maxLine] + "..."
	}
	if w.program != nil {
		w.program.Send(LogMsg{Line: line})
	}
}
