// Package poll decides when the monitor re-issues its read queries.
//
// The package splits into a pure Policy and a runtime Poller. Policy maps a
// QueryState (eligibility, last error class, queue occupancy, consecutive
// failures) onto a Decision; the Poller owns the goroutine, the failure
// counter, and the foreground/focus edges.
//
// # Cadence
//
//   - live work in the queue: short interval
//   - queued-but-idle work: medium interval
//   - idle library: long interval
//
// Failures escalate through a fixed step table (2s, 5s, 10s, 20s, 60s); once
// the five budgeted retries are spent the loop parks. Auth-class failures
// stop polling immediately: recovery belongs to the session controller. Rate
// limiting honors the server's retry hint when one was provided.
//
// Every scheduled interval carries ±20% uniform jitter with a one second
// floor so that many clients never thunder against one server.
//
// Losing foreground or focus parks the loop without tearing it down;
// regaining either triggers an immediate refetch and resets the failure
// escalation.
package poll
