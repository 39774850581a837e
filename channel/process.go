//go:build !windows

package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/dmora/referee"
	"github.com/dmora/referee/internal/errfmt"
)

// process implements referee.Agent for one agent subprocess.
type process struct {
	name string
	opts LauncherOptions

	cmd    *exec.Cmd
	pgid   int
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr *stderrLogger // nil when stderr is not forwarded

	sendMu sync.Mutex
	writer *bufio.Writer

	mu      sync.Mutex
	queue   []string    // lines read while no Receive was pending
	waiter  chan string // pending Receive, buffered(1); nil when idle
	discard int         // lines owed to abandoned reads
	readErr error       // set before eof closes

	eof     chan struct{} // closed when the read worker stops scanning
	done    chan struct{} // closed after cmd.Wait returns
	waitErr error         // set before done closes

	stopping atomic.Bool
	stopOnce sync.Once
	stopErr  error
}

var _ referee.Agent = (*process)(nil)

// newProcess wraps a started command and launches its read worker.
func newProcess(name string, opts LauncherOptions, cmd *exec.Cmd, stdin io.WriteCloser, stdout io.ReadCloser, stderr *stderrLogger) *process {
	p := &process{
		name:   name,
		opts:   opts,
		cmd:    cmd,
		pgid:   cmd.Process.Pid,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		writer: bufio.NewWriter(stdin),
		eof:    make(chan struct{}),
		done:   make(chan struct{}),
	}
	go p.readLoop()
	return p
}

// Name returns the agent's display name.
func (p *process) Name() string { return p.name }

// Send writes line and a newline to the agent's stdin and flushes.
func (p *process) Send(ctx context.Context, line string) error {
	if p.stopping.Load() {
		return referee.ErrTerminated
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.done:
		return fmt.Errorf("%w: %s exited", referee.ErrTerminated, p.name)
	default:
	}

	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	if _, err := p.writer.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("%w: write stdin: %w", referee.ErrTerminated, err)
	}
	if err := p.writer.Flush(); err != nil {
		return fmt.Errorf("%w: flush stdin: %w", referee.ErrTerminated, err)
	}
	return nil
}

// Receive returns the next line from the agent, waiting at most timeout.
func (p *process) Receive(ctx context.Context, timeout time.Duration) (string, error) {
	if p.stopping.Load() {
		return "", referee.ErrTerminated
	}

	p.mu.Lock()
	if len(p.queue) > 0 {
		line := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()
		return line, nil
	}
	select {
	case <-p.eof:
		err := p.eofErrorLocked()
		p.mu.Unlock()
		return "", err
	default:
	}
	w := make(chan string, 1)
	p.waiter = w
	p.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case line := <-w:
		return line, nil
	case <-timer.C:
		return p.abandon(w, referee.ErrTimeout)
	case <-ctx.Done():
		return p.abandon(w, ctx.Err())
	case <-p.eof:
		// A final line may have been handed over just before EOF.
		select {
		case line := <-w:
			return line, nil
		default:
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.waiter == w {
			p.waiter = nil
		}
		return "", p.eofErrorLocked()
	}
}

// abandon withdraws the pending read w. If the read worker already handed a
// line to w, that line wins; otherwise the next line is marked for discard.
func (p *process) abandon(w chan string, err error) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.waiter != w {
		select {
		case line := <-w:
			return line, nil
		default:
			// Cleared by Stop.
			return "", err
		}
	}
	p.waiter = nil
	p.discard++
	return "", err
}

// eofErrorLocked describes why the agent's output ended. Caller holds p.mu.
func (p *process) eofErrorLocked() error {
	if p.readErr != nil {
		return fmt.Errorf("%w: %s: read stdout: %w", referee.ErrTerminated, p.name, p.readErr)
	}
	select {
	case <-p.done:
		if p.waitErr != nil {
			return fmt.Errorf("%w: %s: %w", referee.ErrTerminated, p.name, p.waitErr)
		}
	default:
	}
	return fmt.Errorf("%w: %s closed its output", referee.ErrTerminated, p.name)
}

// Stop terminates the agent's process group. Safe to call multiple times.
// Blocks until the read worker has exited and the process has been reaped.
func (p *process) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.stopping.Store(true)
		_ = p.stdin.Close() // Best-effort: pipe may already be closed.

		p.stopErr = p.signal(unix.SIGTERM)

		select {
		case <-p.done:
		case <-time.After(p.opts.GracePeriod):
			p.kill()
		case <-ctx.Done():
			p.kill()
		}

		p.mu.Lock()
		p.queue = nil
		p.waiter = nil
		p.mu.Unlock()
	})
	<-p.done
	return p.stopErr
}

// kill sends SIGKILL to the group and, if stdout is still held open by an
// escaped descendant after the grace period, closes it to release the worker.
func (p *process) kill() {
	if err := p.signal(unix.SIGKILL); err != nil && p.stopErr == nil {
		p.stopErr = err
	}
	select {
	case <-p.eof:
	case <-time.After(p.opts.GracePeriod):
		_ = p.stdout.Close()
	}
	<-p.done
}

// signal delivers sig to the agent's process group. A group that no longer
// exists is not an error.
func (p *process) signal(sig unix.Signal) error {
	select {
	case <-p.done:
		return nil
	default:
	}
	err := unix.Kill(-p.pgid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

// readLoop is the read worker: it scans stdout until EOF, then reaps the
// process.
func (p *process) readLoop() {
	defer func() {
		waitErr := wrapExitError(p.cmd.Wait())
		if p.stderr != nil {
			p.stderr.flush()
		}
		if p.stopping.Load() {
			waitErr = nil
		}
		p.mu.Lock()
		p.waitErr = waitErr
		p.mu.Unlock()
		close(p.done)

		p.opts.Logger.Debug("agent exited", "agent", p.name, "error", waitErr)
	}()

	scanErr := p.scanLines()

	p.mu.Lock()
	p.readErr = scanErr
	p.mu.Unlock()
	close(p.eof)
}

// scanLines reads lines from stdout and hands each one to deliver. A line
// longer than ScannerBuffer is cut to that size and delivered; the rest of it
// is skipped so framing resumes at the next newline.
func (p *process) scanLines() error {
	reader := bufio.NewReaderSize(p.stdout, min(4096, p.opts.ScannerBuffer))
	limit := p.opts.ScannerBuffer

	var line []byte
	truncated := false
	for {
		frag, more, err := reader.ReadLine()
		if err != nil {
			if len(line) > 0 {
				p.deliverLine(line, truncated)
			}
			if errors.Is(err, io.EOF) || p.stopping.Load() {
				return nil
			}
			return err
		}
		if room := limit - len(line); room < len(frag) {
			frag = frag[:max(room, 0)]
			truncated = true
		}
		line = append(line, frag...)
		if more {
			continue
		}
		p.deliverLine(line, truncated)
		line, truncated = line[:0], false
	}
}

func (p *process) deliverLine(b []byte, truncated bool) {
	line := strings.TrimSuffix(string(b), "\r")
	if truncated {
		p.opts.Logger.Warn("truncated overlong line", "agent", p.name, "limit", p.opts.ScannerBuffer)
	}
	p.deliver(line)
}

// deliver routes one line: to an abandoned read (dropped), to the pending
// Receive, or to the queue.
func (p *process) deliver(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.discard > 0:
		p.discard--
		p.opts.Logger.Warn("discarding late line", "agent", p.name, "line", errfmt.ForLog(line))
	case p.waiter != nil:
		p.waiter <- line
		p.waiter = nil
	case len(p.queue) >= maxQueuedLines:
		p.opts.Logger.Warn("dropping unsolicited line", "agent", p.name, "line", errfmt.ForLog(line))
	default:
		p.queue = append(p.queue, line)
	}
}

// wrapExitError converts a non-zero *exec.ExitError to *referee.ExitError.
// nil → nil, non-ExitError → passthrough, code 0 → nil (clean exit).
// Preserves the error chain via ExitError.Unwrap.
func wrapExitError(err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return err
	}
	code := ee.ExitCode()
	if code == 0 {
		return nil
	}
	return &referee.ExitError{Code: code, Err: err}
}
