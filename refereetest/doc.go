// Package refereetest provides test doubles and a compliance suite for
// [referee.Agent] implementations.
//
// [Agent] is an in-memory scripted agent for exercising [referee.Match]
// without processes. [RunAgentTests] checks the behavioral contract of a
// real implementation; callers supply a [Starter] that launches an agent
// exhibiting each [Behavior].
//
// Example usage in a transport test file:
//
//	func TestCompliance(t *testing.T) {
//	    refereetest.RunAgentTests(t, func(t *testing.T, b refereetest.Behavior) referee.Agent {
//	        return startMockAgent(t, string(b))
//	    })
//	}
package refereetest
