package refereetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmora/referee"
)

// Behavior names a way an agent under test must act.
type Behavior string

const (
	// BehaviorEcho answers every line with the same line.
	BehaviorEcho Behavior = "echo"

	// BehaviorSilent reads lines and never answers.
	BehaviorSilent Behavior = "silent"

	// BehaviorLate answers every line with "late:<line>" after LateDelay.
	BehaviorLate Behavior = "late"

	// BehaviorExit exits immediately without output.
	BehaviorExit Behavior = "exit"
)

// LateDelay is how long a BehaviorLate agent waits before answering.
const LateDelay = 300 * time.Millisecond

// LatePrefix is prepended by a BehaviorLate agent to each answer.
const LatePrefix = "late:"

// Starter launches an agent that exhibits b. The suite stops it.
type Starter func(t *testing.T, b Behavior) referee.Agent

const generous = 5 * time.Second

// RunAgentTests runs the compliance suite against agents from start.
func RunAgentTests(t *testing.T, start Starter) {
	t.Helper()

	launch := func(t *testing.T, b Behavior) referee.Agent {
		t.Helper()
		agent := start(t, b)
		require.NotNil(t, agent)
		t.Cleanup(func() { _ = agent.Stop(context.Background()) })
		return agent
	}

	t.Run("RoundTrip", func(t *testing.T) {
		agent := launch(t, BehaviorEcho)
		ctx := context.Background()
		for _, line := range []string{referee.StartLine, "15TB", "RESULT A 25 23"} {
			require.NoError(t, agent.Send(ctx, line))
			got, err := agent.Receive(ctx, generous)
			require.NoError(t, err)
			assert.Equal(t, line, got)
		}
	})

	t.Run("TimeoutIsBounded", func(t *testing.T) {
		agent := launch(t, BehaviorSilent)
		ctx := context.Background()
		require.NoError(t, agent.Send(ctx, referee.StartLine))

		const bound = 50 * time.Millisecond
		begin := time.Now()
		_, err := agent.Receive(ctx, bound)
		require.ErrorIs(t, err, referee.ErrTimeout)
		assert.Less(t, time.Since(begin), bound+time.Second)
	})

	t.Run("AbandonedReadIsDiscarded", func(t *testing.T) {
		agent := launch(t, BehaviorLate)
		ctx := context.Background()

		require.NoError(t, agent.Send(ctx, "first"))
		_, err := agent.Receive(ctx, LateDelay/3)
		require.ErrorIs(t, err, referee.ErrTimeout)

		require.NoError(t, agent.Send(ctx, "second"))
		got, err := agent.Receive(ctx, generous)
		require.NoError(t, err)
		assert.Equal(t, LatePrefix+"second", got)
	})

	t.Run("ExitIsTerminated", func(t *testing.T) {
		agent := launch(t, BehaviorExit)
		_, err := agent.Receive(context.Background(), generous)
		require.ErrorIs(t, err, referee.ErrTerminated)
		assert.NotErrorIs(t, err, referee.ErrTimeout)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		agent := launch(t, BehaviorSilent)
		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, agent.Send(ctx, referee.StartLine))
		cancel()
		_, err := agent.Receive(ctx, generous)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("StopIsIdempotent", func(t *testing.T) {
		agent := launch(t, BehaviorEcho)
		ctx := context.Background()
		require.NoError(t, agent.Stop(ctx))
		require.NoError(t, agent.Stop(ctx))

		assert.ErrorIs(t, agent.Send(ctx, "1R"), referee.ErrTerminated)
		_, err := agent.Receive(ctx, 10*time.Millisecond)
		assert.ErrorIs(t, err, referee.ErrTerminated)
	})

	t.Run("StopAfterExit", func(t *testing.T) {
		agent := launch(t, BehaviorExit)
		_, _ = agent.Receive(context.Background(), generous)
		assert.NoError(t, agent.Stop(context.Background()))
	})
}

// FakeStarter builds in-memory Agents for each Behavior.
func FakeStarter(_ *testing.T, b Behavior) referee.Agent {
	switch b {
	case BehaviorEcho:
		return NewAgent("fake", Echo())
	case BehaviorSilent:
		return NewAgent("fake", Silent())
	case BehaviorLate:
		return NewAgent("fake", Slow(LateDelay, func(sent string, _ time.Duration) (string, error) {
			return LatePrefix + sent, nil
		}))
	case BehaviorExit:
		return NewAgent("fake", Exited())
	default:
		return nil
	}
}
