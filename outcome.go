package referee

import "fmt"

// EndKind identifies how a match terminated.
type EndKind string

const (
	// EndResult means an agent sent a RESULT message.
	EndResult EndKind = "result"

	// EndTimeout means an agent did not answer in time (or its
	// streams failed) and was disqualified.
	EndTimeout EndKind = "timeout"

	// EndInvalidMove means an agent sent a malformed move and was
	// disqualified.
	EndInvalidMove EndKind = "invalid_move"

	// EndLimit means the move cap was reached. Nobody is at fault.
	EndLimit EndKind = "limit"
)

// Disqualification reasons as printed on the console.
const (
	reasonTimeout     = "timeout"
	reasonInvalidMove = "coup invalide : "
)

// Outcome is the single termination result of a match.
type Outcome struct {
	Kind EndKind

	// Agent names the disqualified agent for EndTimeout and
	// EndInvalidMove, or the agent that sent RESULT for EndResult.
	// Empty for EndLimit.
	Agent string

	// Reason is the disqualification reason; empty otherwise.
	Reason string

	// Text is the RESULT line or the offending response, cut to 4096
	// bytes.
	Text string

	// Moves counts responses accepted by the validator and logged.
	Moves int
}

// Disqualified reports whether the outcome blames an agent.
func (o Outcome) Disqualified() bool {
	return o.Kind == EndTimeout || o.Kind == EndInvalidMove
}

// String returns the console line announcing the outcome.
func (o Outcome) String() string {
	switch o.Kind {
	case EndLimit:
		return "RESULT LIMIT"
	case EndResult:
		return o.Text
	case EndTimeout, EndInvalidMove:
		return fmt.Sprintf("RESULT Joueur %s disqualifié (%s)", o.Agent, o.Reason)
	default:
		return "RESULT " + string(o.Kind)
	}
}

func disqualifyTimeout(agent string, moves int) Outcome {
	return Outcome{Kind: EndTimeout, Agent: agent, Reason: reasonTimeout, Moves: moves}
}

func disqualifyInvalid(agent, text string, moves int) Outcome {
	return Outcome{Kind: EndInvalidMove, Agent: agent, Reason: reasonInvalidMove + text, Text: text, Moves: moves}
}

// Observer is notified as a match progresses. Implementations must not
// block; they run on the match goroutine.
type Observer interface {
	// TurnCompleted is called after a response passed validation.
	TurnCompleted(agent, line string, timing TurnTiming)

	// MatchEnded is called once with the final outcome, before teardown.
	MatchEnded(o Outcome)
}
