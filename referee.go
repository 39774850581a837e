// Package referee arbitrates a two-player turn-based board game played by
// two external agent processes over a line-oriented text protocol.
//
// The referee knows nothing about the board. It forwards each move to the
// other agent, bounds every reply with a timeout, checks replies against the
// move grammar, and decides when the game is over: an agent sends RESULT, an
// agent is disqualified (timeout or malformed move), or the move cap is hit.
//
// # Core Types
//
//   - [Agent]: a running player that takes one line and answers within a bound
//   - [Launcher]: starts an [Agent] from an [AgentSpec]
//   - [Match]: the turn state machine; [Match.Run] always stops both agents
//   - [Outcome]: the single termination result of a match
//   - [ValidMove]: the syntactic move check
//
// # Protocol
//
// The first agent receives the literal START. Each reply is either a move
// token matching ^\d{1,2}(R|B|TR|TB)$ or any line containing RESULT. A
// validated move is forwarded verbatim to the other agent.
//
// # Quick Start
//
//	launcher := channel.NewLauncher()
//	a, err := launcher.Start(ctx, referee.AgentSpec{Name: "A", Command: "player", Role: referee.RoleFirst})
//	if err != nil { log.Fatal(err) }
//	b, err := launcher.Start(ctx, referee.AgentSpec{Name: "B", Command: "player", Role: referee.RoleSecond})
//	if err != nil { _ = a.Stop(ctx); log.Fatal(err) }
//	outcome, err := referee.NewMatch(a, b).Run(ctx)
package referee
