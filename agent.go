package referee

import (
	"context"
	"time"
)

// Agent is the referee's handle on one running player.
//
// Send and Receive are only ever called from the match goroutine; turns are
// strictly alternating, so an Agent is never asked to Send and Receive
// concurrently. Stop may be called from any goroutine, any number of times.
//
// Agent is an interface to enable wrapping with logging or metrics
// middleware, and to let tests substitute scripted doubles.
type Agent interface {
	// Name returns the agent's display name ("A" or "B").
	Name() string

	// Send writes line plus a line terminator to the agent and flushes.
	// Returns an error wrapping ErrTerminated if the agent's input is closed.
	Send(ctx context.Context, line string) error

	// Receive reads one line from the agent, waiting at most timeout.
	// Returns ErrTimeout when the bound elapses; the abandoned read's
	// eventual line is discarded rather than returned by the next call.
	// Returns an error wrapping ErrTerminated once the agent's output ends.
	Receive(ctx context.Context, timeout time.Duration) (string, error)

	// Stop cancels any in-flight read and terminates the agent process.
	// Safe to call multiple times; blocks until resources are released.
	Stop(ctx context.Context) error
}

// Launcher starts agents from an AgentSpec.
//
// The channel package provides the subprocess implementation. Use Validate
// to check a spec's prerequisites before calling Start.
type Launcher interface {
	// Start launches the agent process and returns its handle.
	// Launch failures wrap ErrUnavailable and are fatal to the referee.
	Start(ctx context.Context, spec AgentSpec) (Agent, error)

	// Validate checks that the spec's command is available and executable.
	Validate(spec AgentSpec) error
}
