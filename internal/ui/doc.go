// Package ui provides the Lantern terminal monitor built on Bubble Tea.
//
// The monitor is a single read-only screen showing the current session
// state, library totals, and the processing queue. Data is never fetched
// from the UI itself: the poller keeps state.Store current and the model
// re-reads snapshots on a one-second tick.
//
// Terminal focus events map directly onto the poller's eligibility: losing
// focus parks polling, regaining it triggers an immediate refetch. The "r"
// key forces a refresh, which also recovers from a terminal poll stop.
package ui
