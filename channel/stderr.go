package channel

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"

	"github.com/dmora/referee/internal/errfmt"
)

// stderrLogger is an io.Writer that logs each complete line an agent writes
// to stderr. Partial lines are held until the newline arrives or flush.
type stderrLogger struct {
	logger *slog.Logger
	agent  string

	mu  sync.Mutex
	buf []byte
}

func newStderrLogger(logger *slog.Logger, agent string) *stderrLogger {
	return &stderrLogger{logger: logger, agent: agent}
}

func (w *stderrLogger) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, b...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) > errfmt.MaxLen {
		w.emit(w.buf)
		w.buf = nil
	}
	return len(b), nil
}

// flush logs any trailing partial line.
func (w *stderrLogger) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *stderrLogger) emit(b []byte) {
	line := strings.TrimRight(string(b), "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	w.logger.Debug("agent stderr", "agent", w.agent, "line", errfmt.ForLog(line))
}
