package referee

import (
	"errors"
	"strconv"
)

// Sentinel errors for agent operations.
var (
	// ErrUnavailable indicates an agent could not be launched
	// (binary not found, not executable, fork failure).
	ErrUnavailable = errors.New("referee: agent unavailable")

	// ErrTerminated indicates the agent's streams are gone
	// (process exited, stdout closed, or Stop already called).
	ErrTerminated = errors.New("referee: agent terminated")

	// ErrTimeout indicates no complete line arrived within the allotted bound.
	ErrTimeout = errors.New("referee: response timeout")
)

// ExitError represents an agent process that exited with a non-zero status.
// Wraps the underlying error to preserve the error chain; consumers can
// errors.As to *exec.ExitError for OS-level detail (signal info, etc.).
//
// Code semantics: positive = exit status, negative (-1) = signal-killed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "referee: exit status " + strconv.Itoa(e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode extracts the exit code from an error chain containing *ExitError.
// Returns (0, false) if the error does not contain an ExitError.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
