package refereetest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmora/referee"
)

// Responder decides the reply to one Receive call. sent is the last line
// passed to Send; timeout is the bound the referee applied.
type Responder func(sent string, timeout time.Duration) (string, error)

// Agent is a scripted in-memory referee.Agent. It never sleeps: a reply
// that would miss its bound is reported as referee.ErrTimeout at once.
type Agent struct {
	name    string
	respond Responder

	mu       sync.Mutex
	sent     []string
	timeouts []time.Duration
	sendErr  error
	stops    int
}

var _ referee.Agent = (*Agent)(nil)

// NewAgent returns an agent named name that answers with respond.
func NewAgent(name string, respond Responder) *Agent {
	return &Agent{name: name, respond: respond}
}

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// FailSends makes every later Send return err.
func (a *Agent) FailSends(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sendErr = err
}

// Send records line.
func (a *Agent) Send(_ context.Context, line string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stops > 0 {
		return referee.ErrTerminated
	}
	if a.sendErr != nil {
		return a.sendErr
	}
	a.sent = append(a.sent, line)
	return nil
}

// Receive records timeout and asks the Responder for a reply.
func (a *Agent) Receive(ctx context.Context, timeout time.Duration) (string, error) {
	a.mu.Lock()
	if a.stops > 0 {
		a.mu.Unlock()
		return "", referee.ErrTerminated
	}
	a.timeouts = append(a.timeouts, timeout)
	var last string
	if len(a.sent) > 0 {
		last = a.sent[len(a.sent)-1]
	}
	a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.respond(last, timeout)
}

// Stop marks the agent stopped. Safe to call multiple times.
func (a *Agent) Stop(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops++
	return nil
}

// Sent returns the lines received from the referee, in order.
func (a *Agent) Sent() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.sent)
}

// Timeouts returns the bound applied to each Receive, in order.
func (a *Agent) Timeouts() []time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.timeouts)
}

// Stops returns how many times Stop was called.
func (a *Agent) Stops() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stops
}

// Script replies with lines in order, then stays silent.
func Script(lines ...string) Responder {
	var mu sync.Mutex
	next := 0
	return func(string, time.Duration) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(lines) {
			return "", referee.ErrTimeout
		}
		line := lines[next]
		next++
		return line, nil
	}
}

// Repeat replies with line forever.
func Repeat(line string) Responder {
	return func(string, time.Duration) (string, error) {
		return line, nil
	}
}

// Echo replies with the last line it was sent.
func Echo() Responder {
	return func(sent string, _ time.Duration) (string, error) {
		return sent, nil
	}
}

// Silent never replies.
func Silent() Responder {
	return func(string, time.Duration) (string, error) {
		return "", referee.ErrTimeout
	}
}

// Exited behaves like an agent whose process has already gone.
func Exited() Responder {
	return func(string, time.Duration) (string, error) {
		return "", fmt.Errorf("%w: agent exited", referee.ErrTerminated)
	}
}

// Slow delegates to next but times out whenever the bound is shorter than
// delay, modelling an agent that needs delay to think.
func Slow(delay time.Duration, next Responder) Responder {
	return func(sent string, timeout time.Duration) (string, error) {
		if timeout < delay {
			return "", referee.ErrTimeout
		}
		return next(sent, timeout)
	}
}
