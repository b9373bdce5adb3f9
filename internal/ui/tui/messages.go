// Package tui provides a Bubble Tea terminal UI for watching AWX jobs.
package tui

import "github.com/imamik/awxgate/internal/monitor"

// JobStatusMsg carries the latest observation of the watched job.
type JobStatusMsg monitor.Update

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that watching ended without a terminal status.
type DoneMsg struct{}
