// Package monitor reads the state of launched AWX jobs.
//
// It holds no timers: callers decide how often to poll and when to give up.
package monitor

import (
	"context"
	"strings"
	"time"

	"github.com/imamik/awxgate/internal/platform/awx"
)

// Status is an AWX job status.
type Status string

// Job statuses reported by AWX. Unrecognised values map to StatusUnknown.
const (
	StatusPending    Status = "pending"
	StatusWaiting    Status = "waiting"
	StatusRunning    Status = "running"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusError      Status = "error"
	StatusCanceled   Status = "canceled"
	StatusUnknown    Status = "unknown"
)

// ParseStatus normalises a remote status string.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusWaiting, StatusRunning,
		StatusSuccessful, StatusFailed, StatusError, StatusCanceled:
		return st
	case "new":
		// AWX reports freshly created jobs as "new" before they are queued.
		return StatusPending
	default:
		return StatusUnknown
	}
}

// IsTerminal reports whether a job in status s will not change again.
func IsTerminal(s Status) bool {
	switch s {
	case StatusSuccessful, StatusFailed, StatusError, StatusCanceled:
		return true
	}
	return false
}

// Succeeded reports whether s is the successful terminal status.
func Succeeded(s Status) bool {
	return s == StatusSuccessful
}

// Monitor polls job state through an AutomationClient.
type Monitor struct {
	client awx.AutomationClient
}

// New creates a Monitor.
func New(client awx.AutomationClient) *Monitor {
	return &Monitor{client: client}
}

// Poll returns the job's current status and output. Failures surface as
// StatusError with the failure message as output.
func (m *Monitor) Poll(ctx context.Context, jobID int) (Status, string) {
	status, output := m.client.GetJobStatusAndOutput(ctx, jobID)
	return ParseStatus(status), output
}

// Update is one observation made while watching a job.
type Update struct {
	Status Status
	Output string
	Polls  int
}

// Watch polls jobID every interval until its status is terminal or ctx
// ends. onUpdate, when non-nil, sees every observation including the
// terminal one. On cancellation the last observation is returned with
// ctx's error.
func (m *Monitor) Watch(ctx context.Context, jobID int, interval time.Duration, onUpdate func(Update)) (Update, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last Update
	for {
		status, output := m.Poll(ctx, jobID)
		last = Update{Status: status, Output: output, Polls: last.Polls + 1}
		if onUpdate != nil {
			onUpdate(last)
		}
		if IsTerminal(status) {
			return last, nil
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
