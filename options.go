package referee

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"
)

// Default match configuration values.
const (
	DefaultStartupTimeout = 10 * time.Second
	DefaultTurnTimeout    = 2 * time.Second
	DefaultMoveLimit      = 400
)

// Config holds the timing and cap of a match.
type Config struct {
	// StartupTimeout bounds each agent's first response, covering
	// process startup latency. Applied exactly once per agent.
	StartupTimeout time.Duration `yaml:"startup_timeout"`

	// TurnTimeout bounds every later response.
	TurnTimeout time.Duration `yaml:"turn_timeout"`

	// MoveLimit is the total number of responses after which the match
	// ends with RESULT LIMIT.
	MoveLimit int `yaml:"move_limit"`
}

// DefaultConfig returns the standard tournament timing.
func DefaultConfig() Config {
	return Config{
		StartupTimeout: DefaultStartupTimeout,
		TurnTimeout:    DefaultTurnTimeout,
		MoveLimit:      DefaultMoveLimit,
	}
}

// Validate rejects non-positive timeouts and limits.
func (c Config) Validate() error {
	var errs []error
	if c.StartupTimeout <= 0 {
		errs = append(errs, errors.New("startup_timeout must be positive"))
	}
	if c.TurnTimeout <= 0 {
		errs = append(errs, errors.New("turn_timeout must be positive"))
	}
	if c.MoveLimit <= 0 {
		errs = append(errs, errors.New("move_limit must be positive"))
	}
	return errors.Join(errs...)
}

// MatchOptions holds resolved construction-time configuration for a Match.
type MatchOptions struct {
	Config

	// Console receives the game transcript. Defaults to os.Stdout.
	Console io.Writer

	// Logger receives diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger

	// Observer is notified of turns and the final outcome. May be nil.
	Observer Observer

	// StopTimeout bounds the teardown of both agents.
	StopTimeout time.Duration
}

// Option configures a Match at construction time.
type Option func(*MatchOptions)

// WithConfig replaces the timing configuration wholesale.
func WithConfig(c Config) Option {
	return func(o *MatchOptions) {
		o.Config = c
	}
}

// WithStartupTimeout sets the first-response bound. Values <= 0 are ignored.
func WithStartupTimeout(d time.Duration) Option {
	return func(o *MatchOptions) {
		if d > 0 {
			o.StartupTimeout = d
		}
	}
}

// WithTurnTimeout sets the steady-state response bound. Values <= 0 are ignored.
func WithTurnTimeout(d time.Duration) Option {
	return func(o *MatchOptions) {
		if d > 0 {
			o.TurnTimeout = d
		}
	}
}

// WithMoveLimit sets the move cap. Values <= 0 are ignored.
func WithMoveLimit(n int) Option {
	return func(o *MatchOptions) {
		if n > 0 {
			o.MoveLimit = n
		}
	}
}

// WithConsole sets the transcript writer.
func WithConsole(w io.Writer) Option {
	return func(o *MatchOptions) {
		if w != nil {
			o.Console = w
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *MatchOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithObserver registers an Observer.
func WithObserver(obs Observer) Option {
	return func(o *MatchOptions) {
		o.Observer = obs
	}
}

// WithStopTimeout bounds agent teardown. Values <= 0 are ignored.
func WithStopTimeout(d time.Duration) Option {
	return func(o *MatchOptions) {
		if d > 0 {
			o.StopTimeout = d
		}
	}
}

// ResolveOptions applies functional options over the defaults.
func ResolveOptions(opts ...Option) MatchOptions {
	o := MatchOptions{
		Config:      DefaultConfig(),
		Console:     os.Stdout,
		Logger:      slog.New(slog.DiscardHandler),
		StopTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
