//go:build !windows

package channel

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dmora/referee"
)

// Launcher spawns agent executables as subprocesses.
type Launcher struct {
	opts LauncherOptions
}

// Compile-time interface satisfaction check.
var _ referee.Launcher = (*Launcher)(nil)

// NewLauncher creates a Launcher.
// Use LauncherOption functions to customize grace period, line size and logging.
func NewLauncher(opts ...LauncherOption) *Launcher {
	return &Launcher{opts: resolveLauncherOptions(opts...)}
}

// Validate checks that spec is well formed and its command can be found.
func (l *Launcher) Validate(spec referee.AgentSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("%w: %w", referee.ErrUnavailable, err)
	}
	if _, err := resolveCommand(spec); err != nil {
		return fmt.Errorf("%w: %s: %w", referee.ErrUnavailable, spec.Command, err)
	}
	return nil
}

// resolveCommand returns the absolute path of spec's executable. A bare name
// is searched on PATH; a command containing a path separator, such as
// "./player.exe", is taken relative to spec.Dir, where the agent runs.
func resolveCommand(spec referee.AgentSpec) (string, error) {
	command := spec.Command
	if strings.ContainsRune(command, filepath.Separator) && !filepath.IsAbs(command) && spec.Dir != "" {
		command = filepath.Join(spec.Dir, command)
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

// Start launches "<command> <args...> <role>" and returns its Agent handle.
// The context only gates the launch; the process lifetime is controlled via
// [referee.Agent.Stop].
func (l *Launcher) Start(ctx context.Context, spec referee.AgentSpec) (referee.Agent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.Validate(spec); err != nil {
		return nil, err
	}
	spec = spec.Clone()

	resolved, err := resolveCommand(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", referee.ErrUnavailable, spec.Command, err)
	}

	cmd := exec.Command(resolved, spec.Argv()...)
	cmd.Dir = spec.Dir
	cmd.Env = referee.MergeEnv(os.Environ(), spec.Env)
	// Own process group so teardown reaches interpreters and their children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = l.opts.GracePeriod

	var stderr *stderrLogger
	if l.opts.ForwardStderr {
		stderr = newStderrLogger(l.opts.Logger, spec.Name)
		cmd.Stderr = stderr
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: stdout pipe: %w", referee.ErrUnavailable, spec.Name, err)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: stdin pipe: %w", referee.ErrUnavailable, spec.Name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", referee.ErrUnavailable, spec.Name, err)
	}

	l.opts.Logger.Info("agent started",
		"agent", spec.Name,
		"role", spec.Role,
		"binary", resolved,
		"pid", cmd.Process.Pid,
	)
	return newProcess(spec.Name, l.opts, cmd, stdin, stdout, stderr), nil
}
