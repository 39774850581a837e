package referee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmora/referee/internal/errfmt"
)

// ErrMatchPlayed is returned by Run when called more than once.
var ErrMatchPlayed = errors.New("referee: match already played")

// Match drives two agents through one game: it alternates the current
// agent, forwards the previous move, bounds each reply, validates it and
// decides whether play continues.
//
// A Match owns both agents from NewMatch on. Run stops them on every exit
// path, including panics, so callers must not reuse the agents afterwards.
type Match struct {
	seats [2]*seat
	opts  MatchOptions

	mu     sync.Mutex
	played bool
}

// seat pairs an agent with its one-shot startup allowance.
type seat struct {
	agent  Agent
	primed bool
}

// timeout returns the bound for the seat's next response and consumes the
// startup allowance on first use.
func (s *seat) timeout(c Config) (time.Duration, bool) {
	if !s.primed {
		s.primed = true
		return c.StartupTimeout, true
	}
	return c.TurnTimeout, false
}

// NewMatch creates a match in which first moves first.
func NewMatch(first, second Agent, opts ...Option) *Match {
	return &Match{
		seats: [2]*seat{{agent: first}, {agent: second}},
		opts:  ResolveOptions(opts...),
	}
}

// Run plays the match to its end and returns the outcome.
//
// Game endings (RESULT, disqualification, move limit) are outcomes, not
// errors. Run returns a non-nil error only when ctx is cancelled mid-game
// or the match was already played. Both agents are stopped and "Fin." is
// written to the console before Run returns, whatever the path.
func (m *Match) Run(ctx context.Context) (Outcome, error) {
	m.mu.Lock()
	if m.played {
		m.mu.Unlock()
		return Outcome{}, ErrMatchPlayed
	}
	m.played = true
	m.mu.Unlock()

	defer func() {
		m.terminate()
		m.println("Fin.")
	}()

	return m.play(ctx)
}

func (m *Match) play(ctx context.Context) (Outcome, error) {
	log := m.opts.Logger
	current, other := m.seats[0], m.seats[1]
	pending := StartLine
	responses, accepted := 0, 0

	for {
		name := current.agent.Name()
		timeout, startup := current.timeout(m.opts.Config)

		reply, elapsed, err := RunTurn(ctx, current.agent, pending, timeout)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				log.Warn("match interrupted", "agent", name, "moves", accepted, "error", ctxErr)
				return Outcome{}, fmt.Errorf("referee: match interrupted: %w", ctxErr)
			}
			log.Debug("no response", "agent", name, "timeout", timeout, "startup", startup, "error", err)
			return m.end(disqualifyTimeout(name, accepted)), nil
		}

		responses++
		if responses >= m.opts.MoveLimit {
			return m.end(Outcome{Kind: EndLimit, Text: reply, Moves: accepted}), nil
		}

		// Classify the full reply; only echo a bounded copy.
		shown := errfmt.Truncate(reply)
		if !ValidMove(reply) {
			return m.end(disqualifyInvalid(name, shown, accepted)), nil
		}
		accepted++

		m.println(name + " -> " + shown)
		m.recordTurn(log, name, reply, TurnTiming{Timeout: timeout, Elapsed: elapsed, Startup: startup})

		if IsResult(reply) {
			return m.end(Outcome{Kind: EndResult, Agent: name, Text: shown, Moves: accepted}), nil
		}

		current, other = other, current
		pending = reply
	}
}

func (m *Match) recordTurn(log *slog.Logger, name, reply string, timing TurnTiming) {
	if m.opts.Observer != nil {
		m.opts.Observer.TurnCompleted(name, reply, timing)
	}
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := []any{"agent", name, "line", errfmt.ForLog(reply), "elapsed", timing.Elapsed, "timeout", timing.Timeout}
	if mv, err := ParseMove(reply); err == nil {
		attrs = append(attrs, "pit", mv.Pit, "color", string(mv.Color))
	}
	log.Debug("turn", attrs...)
}

// end announces o on the console and notifies the observer.
func (m *Match) end(o Outcome) Outcome {
	m.println(o.String())
	m.opts.Logger.Info("match ended",
		"kind", string(o.Kind),
		"agent", o.Agent,
		"moves", o.Moves,
		"text", errfmt.ForLog(o.Text),
	)
	if m.opts.Observer != nil {
		m.opts.Observer.MatchEnded(o)
	}
	return o
}

// terminate stops both agents concurrently and waits for both.
func (m *Match) terminate() {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.StopTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, s := range m.seats {
		wg.Add(1)
		go func(a Agent) {
			defer wg.Done()
			if err := a.Stop(ctx); err != nil {
				m.opts.Logger.Debug("agent stopped", "agent", a.Name(), "error", err)
			}
		}(s.agent)
	}
	wg.Wait()
}

func (m *Match) println(line string) {
	if _, err := fmt.Fprintln(m.opts.Console, line); err != nil {
		m.opts.Logger.Error("console write failed", "error", err)
	}
}
