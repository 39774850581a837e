package referee

import (
	"context"
	"fmt"
	"time"
)

// TurnTiming describes the bound a response was held to and how long it took.
type TurnTiming struct {
	// Timeout is the bound applied to the response.
	Timeout time.Duration

	// Elapsed runs from just before Send to the end of Receive.
	Elapsed time.Duration

	// Startup is true when Timeout was the agent's one-time startup bound.
	Startup bool
}

// RunTurn transmits line to agent and waits at most timeout for one reply.
//
// A Send failure is returned without attempting Receive; callers treat it
// exactly like a Receive failure (the agent's input is gone, so it cannot
// answer). Errors are wrapped with the agent name and keep their sentinel:
// errors.Is(err, ErrTimeout) and errors.Is(err, ErrTerminated) both work.
func RunTurn(ctx context.Context, agent Agent, line string, timeout time.Duration) (string, time.Duration, error) {
	start := time.Now()
	if err := agent.Send(ctx, line); err != nil {
		return "", time.Since(start), fmt.Errorf("send to %s: %w", agent.Name(), err)
	}
	reply, err := agent.Receive(ctx, timeout)
	elapsed := time.Since(start)
	if err != nil {
		return "", elapsed, fmt.Errorf("receive from %s: %w", agent.Name(), err)
	}
	return reply, elapsed, nil
}
