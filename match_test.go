package referee_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmora/referee"
	"github.com/dmora/referee/refereetest"
)

const (
	testStartup = 10 * time.Second
	testTurn    = 2 * time.Second
)

type matchResult struct {
	outcome referee.Outcome
	err     error
	lines   []string
}

func play(t *testing.T, a, b referee.Agent, opts ...referee.Option) matchResult {
	t.Helper()
	return playContext(t, context.Background(), a, b, opts...)
}

func playContext(t *testing.T, ctx context.Context, a, b referee.Agent, opts ...referee.Option) matchResult {
	t.Helper()
	var console bytes.Buffer
	opts = append([]referee.Option{
		referee.WithConsole(&console),
		referee.WithStartupTimeout(testStartup),
		referee.WithTurnTimeout(testTurn),
	}, opts...)
	outcome, err := referee.NewMatch(a, b, opts...).Run(ctx)
	return matchResult{
		outcome: outcome,
		err:     err,
		lines:   strings.Split(strings.TrimSuffix(console.String(), "\n"), "\n"),
	}
}

func assertStopped(t *testing.T, agents ...*refereetest.Agent) {
	t.Helper()
	for _, a := range agents {
		assert.Equal(t, 1, a.Stops(), "agent %s stops", a.Name())
	}
}

func TestMatch_InvalidCountDisqualifies(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Script("1R"))
	b := refereetest.NewAgent("B", refereetest.Script("180B"))

	res := play(t, a, b)
	require.NoError(t, res.err)

	assert.Equal(t, referee.EndInvalidMove, res.outcome.Kind)
	assert.Equal(t, "B", res.outcome.Agent)
	assert.Equal(t, "coup invalide : 180B", res.outcome.Reason)
	assert.Equal(t, 1, res.outcome.Moves)
	assert.Equal(t, []string{
		"A -> 1R",
		"RESULT Joueur B disqualifié (coup invalide : 180B)",
		"Fin.",
	}, res.lines)
	assert.Equal(t, []string{referee.StartLine}, a.Sent())
	assert.Equal(t, []string{"1R"}, b.Sent())
	assertStopped(t, a, b)
}

func TestMatch_AlternatesAndForwards(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Script("1R", "3B", "5TR", "RESULT A 30 18"))
	b := refereetest.NewAgent("B", refereetest.Script("2B", "4TB", "6R"))

	res := play(t, a, b)
	require.NoError(t, res.err)

	assert.Equal(t, referee.EndResult, res.outcome.Kind)
	assert.Equal(t, "A", res.outcome.Agent)
	assert.Equal(t, "RESULT A 30 18", res.outcome.Text)
	assert.Equal(t, 7, res.outcome.Moves)
	assert.Equal(t, []string{referee.StartLine, "2B", "4TB", "6R"}, a.Sent())
	assert.Equal(t, []string{"1R", "3B", "5TR"}, b.Sent())
	assert.Equal(t, []string{
		"A -> 1R",
		"B -> 2B",
		"A -> 3B",
		"B -> 4TB",
		"A -> 5TR",
		"B -> 6R",
		"A -> RESULT A 30 18",
		"RESULT A 30 18",
		"Fin.",
	}, res.lines)
	assertStopped(t, a, b)
}

func TestMatch_StartupTimeoutAppliedOncePerAgent(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Script("1R", "3R", "RESULT draw"))
	b := refereetest.NewAgent("B", refereetest.Script("2R", "4R"))

	res := play(t, a, b)
	require.NoError(t, res.err)

	assert.Equal(t, []time.Duration{testStartup, testTurn, testTurn}, a.Timeouts())
	assert.Equal(t, []time.Duration{testStartup, testTurn}, b.Timeouts())
}

func TestMatch_SlowFirstMoveWithinStartupAllowance(t *testing.T) {
	// Needs 5s: fine at startup, fatal afterwards.
	a := refereetest.NewAgent("A", refereetest.Slow(5*time.Second, refereetest.Repeat("1R")))
	b := refereetest.NewAgent("B", refereetest.Repeat("2R"))

	res := play(t, a, b)
	require.NoError(t, res.err)

	assert.Equal(t, referee.EndTimeout, res.outcome.Kind)
	assert.Equal(t, "A", res.outcome.Agent)
	assert.Equal(t, []string{
		"A -> 1R",
		"B -> 2R",
		"RESULT Joueur A disqualifié (timeout)",
		"Fin.",
	}, res.lines)
}

func TestMatch_TimeoutOnFirstMove(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Silent())
	b := refereetest.NewAgent("B", refereetest.Echo())

	res := play(t, a, b)
	require.NoError(t, res.err)

	assert.True(t, res.outcome.Disqualified())
	assert.Equal(t, 0, res.outcome.Moves)
	assert.Equal(t, []string{"RESULT Joueur A disqualifié (timeout)", "Fin."}, res.lines)
	assert.Empty(t, b.Sent(), "B never asked to move")
	assertStopped(t, a, b)
}

func TestMatch_ExitedAgentIsTimeout(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Repeat("1R"))
	b := refereetest.NewAgent("B", refereetest.Exited())

	res := play(t, a, b)
	require.NoError(t, res.err)

	assert.Equal(t, referee.EndTimeout, res.outcome.Kind)
	assert.Equal(t, "B", res.outcome.Agent)
}

func TestMatch_SendFailureIsTimeout(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Repeat("1R"))
	b := refereetest.NewAgent("B", refereetest.Repeat("2R"))
	b.FailSends(referee.ErrTerminated)

	res := play(t, a, b)
	require.NoError(t, res.err)

	assert.Equal(t, referee.EndTimeout, res.outcome.Kind)
	assert.Equal(t, "B", res.outcome.Agent)
	assert.Equal(t, []string{"A -> 1R", "RESULT Joueur B disqualifié (timeout)", "Fin."}, res.lines)
}

func TestMatch_MoveLimit(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Repeat("1R"))
	b := refereetest.NewAgent("B", refereetest.Repeat("2R"))

	res := play(t, a, b, referee.WithMoveLimit(4))
	require.NoError(t, res.err)

	assert.Equal(t, referee.EndLimit, res.outcome.Kind)
	assert.False(t, res.outcome.Disqualified())
	assert.Empty(t, res.outcome.Agent)
	assert.Equal(t, 3, res.outcome.Moves)
	assert.Equal(t, []string{
		"A -> 1R",
		"B -> 2R",
		"A -> 1R",
		"RESULT LIMIT",
		"Fin.",
	}, res.lines)
	assertStopped(t, a, b)
}

func TestMatch_MoveLimitBeatsValidation(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Repeat("1R"))
	b := refereetest.NewAgent("B", refereetest.Repeat("garbage"))

	res := play(t, a, b, referee.WithMoveLimit(2))
	require.NoError(t, res.err)

	assert.Equal(t, referee.EndLimit, res.outcome.Kind)
	assert.Equal(t, []string{"A -> 1R", "RESULT LIMIT", "Fin."}, res.lines)
}

func TestMatch_DefaultMoveLimit(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Repeat("1R"))
	b := refereetest.NewAgent("B", refereetest.Repeat("2R"))

	res := play(t, a, b)
	require.NoError(t, res.err)

	assert.Equal(t, referee.EndLimit, res.outcome.Kind)
	assert.Equal(t, referee.DefaultMoveLimit-1, res.outcome.Moves)
	assert.Len(t, res.lines, referee.DefaultMoveLimit+1)
}

func TestMatch_InvalidResponses(t *testing.T) {
	tests := []string{"", "R", "123R", "1G", " 1R", "1R ", "1r", "START", "12BB"}
	for _, reply := range tests {
		t.Run(reply, func(t *testing.T) {
			a := refereetest.NewAgent("A", refereetest.Repeat(reply))
			b := refereetest.NewAgent("B", refereetest.Echo())

			res := play(t, a, b)
			require.NoError(t, res.err)

			assert.Equal(t, referee.EndInvalidMove, res.outcome.Kind)
			assert.Equal(t, reply, res.outcome.Text)
			assert.Equal(t, []string{
				"RESULT Joueur A disqualifié (coup invalide : " + reply + ")",
				"Fin.",
			}, res.lines)
		})
	}
}

func TestMatch_ResultFromSecondAgent(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Script("1R"))
	b := refereetest.NewAgent("B", refereetest.Script("GAME RESULT B wins"))

	res := play(t, a, b)
	require.NoError(t, res.err)

	assert.Equal(t, referee.EndResult, res.outcome.Kind)
	assert.Equal(t, "B", res.outcome.Agent)
	assert.Equal(t, []string{"A -> 1R", "B -> GAME RESULT B wins", "GAME RESULT B wins", "Fin."}, res.lines)
}

func TestMatch_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := refereetest.NewAgent("A", func(string, time.Duration) (string, error) {
		cancel()
		return "", context.Canceled
	})
	b := refereetest.NewAgent("B", refereetest.Echo())

	res := playContext(t, ctx, a, b)
	require.ErrorIs(t, res.err, context.Canceled)
	assert.Equal(t, []string{"Fin."}, res.lines, "no RESULT on interrupt")
	assertStopped(t, a, b)
}

func TestMatch_RunTwice(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Script("RESULT A"))
	b := refereetest.NewAgent("B", refereetest.Silent())
	m := referee.NewMatch(a, b, referee.WithConsole(&bytes.Buffer{}))

	_, err := m.Run(context.Background())
	require.NoError(t, err)
	_, err = m.Run(context.Background())
	require.ErrorIs(t, err, referee.ErrMatchPlayed)
	assertStopped(t, a, b)
}

type panicAgent struct{ *refereetest.Agent }

func (p panicAgent) Receive(context.Context, time.Duration) (string, error) {
	panic("agent exploded")
}

func TestMatch_PanicStillStopsAgents(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Silent())
	b := refereetest.NewAgent("B", refereetest.Silent())
	var console bytes.Buffer
	m := referee.NewMatch(panicAgent{a}, b, referee.WithConsole(&console))

	assert.Panics(t, func() { _, _ = m.Run(context.Background()) })
	assertStopped(t, a, b)
	assert.Equal(t, "Fin.\n", console.String())
}

type recordingObserver struct {
	mu      sync.Mutex
	turns   []string
	timings []referee.TurnTiming
	ended   []referee.Outcome
}

func (r *recordingObserver) TurnCompleted(agent, line string, timing referee.TurnTiming) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, agent+" "+line)
	r.timings = append(r.timings, timing)
}

func (r *recordingObserver) MatchEnded(o referee.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, o)
}

func TestMatch_Observer(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Script("1R", "3R"))
	b := refereetest.NewAgent("B", refereetest.Script("2R", "4X"))
	obs := &recordingObserver{}

	res := play(t, a, b, referee.WithObserver(obs))
	require.NoError(t, res.err)

	assert.Equal(t, []string{"A 1R", "B 2R", "A 3R"}, obs.turns)
	require.Len(t, obs.timings, 3)
	assert.True(t, obs.timings[0].Startup)
	assert.True(t, obs.timings[1].Startup)
	assert.False(t, obs.timings[2].Startup)
	assert.Equal(t, testTurn, obs.timings[2].Timeout)
	require.Len(t, obs.ended, 1)
	assert.Equal(t, res.outcome, obs.ended[0])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestMatch_ConsoleFailureDoesNotAbort(t *testing.T) {
	a := refereetest.NewAgent("A", refereetest.Script("1R", "RESULT A"))
	b := refereetest.NewAgent("B", refereetest.Script("2R"))

	outcome, err := referee.NewMatch(a, b, referee.WithConsole(failingWriter{})).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, referee.EndResult, outcome.Kind)
}

func TestMatch_LongResponsesAreClassifiedInFull(t *testing.T) {
	long := strings.Repeat("x", 10000)

	t.Run("result", func(t *testing.T) {
		// RESULT lies beyond the echoed prefix but still ends the game.
		a := refereetest.NewAgent("A", refereetest.Script(long+" RESULT A 25 23"))
		b := refereetest.NewAgent("B", refereetest.Silent())

		res := play(t, a, b)
		require.NoError(t, res.err)

		assert.Equal(t, referee.EndResult, res.outcome.Kind)
		assert.Len(t, res.outcome.Text, 4096)
		assert.Equal(t, []string{"A -> " + long[:4096], long[:4096], "Fin."}, res.lines)
	})

	t.Run("invalid", func(t *testing.T) {
		a := refereetest.NewAgent("A", refereetest.Script("1R"+long))
		b := refereetest.NewAgent("B", refereetest.Silent())

		res := play(t, a, b)
		require.NoError(t, res.err)

		assert.Equal(t, referee.EndInvalidMove, res.outcome.Kind)
		assert.Len(t, res.outcome.Text, 4096)
		assert.Equal(t, "RESULT Joueur A disqualifié (coup invalide : 1R"+long[:4094]+")", res.lines[0])
	})
}
