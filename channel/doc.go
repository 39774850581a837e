// Package channel provides the subprocess transport for referee agents.
//
// [NewLauncher] returns a [Launcher] whose Start method spawns an agent
// executable as "<command> <args...> <role>" with its stdin and stdout wired
// to pipes. The returned [referee.Agent] sends one line per Send and reads
// one line per Receive, bounded by a timeout.
//
// # Reads
//
// Each agent has a single read worker goroutine that scans stdout for the
// agent's whole lifetime. Receive waits on that worker with a timer. When
// the timer wins, the pending read is abandoned: the next line the agent
// writes is owed to that abandoned read and is discarded (and logged at
// warn level), never returned by a later Receive. Lines that arrive while no
// Receive is pending are queued, so a fast agent that answers before the
// referee starts waiting is not penalized.
//
// # Teardown
//
// Agents run in their own process group. Stop closes stdin, sends SIGTERM to
// the group, escalates to SIGKILL after the grace period, and returns only
// once the read worker has exited and the process has been reaped.
//
// # Platform Support
//
// Process groups and signals are Unix-only; the launcher is not available
// on Windows.
package channel
