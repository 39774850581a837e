package channel

import (
	"log/slog"
	"time"
)

// Default launcher configuration values.
const (
	defaultGracePeriod   = 500 * time.Millisecond
	defaultScannerBuffer = 64 << 10 // 64 KiB
	maxQueuedLines       = 1024
)

// LauncherOptions holds resolved construction-time configuration for a Launcher.
// Use NewLauncher with LauncherOption functions to customize these values.
type LauncherOptions struct {
	// GracePeriod is the duration to wait after SIGTERM before sending SIGKILL.
	GracePeriod time.Duration

	// ScannerBuffer is the maximum line size in bytes read from an agent.
	// Longer lines are truncated to this size, not rejected.
	ScannerBuffer int

	// Logger receives lifecycle events and forwarded agent stderr.
	Logger *slog.Logger

	// ForwardStderr copies each agent stderr line to Logger at debug level.
	// When false, agent stderr is discarded.
	ForwardStderr bool
}

// LauncherOption configures a Launcher at construction time.
type LauncherOption func(*LauncherOptions)

// WithGracePeriod sets the duration to wait after SIGTERM before sending SIGKILL.
// Values <= 0 are ignored.
func WithGracePeriod(d time.Duration) LauncherOption {
	return func(o *LauncherOptions) {
		if d > 0 {
			o.GracePeriod = d
		}
	}
}

// WithScannerBuffer sets the maximum line size in bytes; longer lines are
// truncated.
// Values <= 0 are ignored.
func WithScannerBuffer(size int) LauncherOption {
	return func(o *LauncherOptions) {
		if size > 0 {
			o.ScannerBuffer = size
		}
	}
}

// WithLogger sets the logger for lifecycle events and agent stderr.
func WithLogger(l *slog.Logger) LauncherOption {
	return func(o *LauncherOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithStderr enables or disables forwarding of agent stderr to the logger.
func WithStderr(forward bool) LauncherOption {
	return func(o *LauncherOptions) {
		o.ForwardStderr = forward
	}
}

func resolveLauncherOptions(opts ...LauncherOption) LauncherOptions {
	o := LauncherOptions{
		GracePeriod:   defaultGracePeriod,
		ScannerBuffer: defaultScannerBuffer,
		Logger:        slog.New(slog.DiscardHandler),
		ForwardStderr: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
