package provisioning

import (
	"context"
	"strings"
	"time"

	"github.com/imamik/awxgate/internal/metrics"
	"github.com/imamik/awxgate/internal/platform/awx"
	"github.com/imamik/awxgate/internal/session"
)

// Result describes the outcome of one Launch.
type Result struct {
	Success       bool
	JobID         int
	InventoryID   int
	InventoryName string

	// Attempt is set when the job was launched; the inventory then stays
	// open until the attempt is finalized.
	Attempt *session.Attempt

	// Log is the operator-facing transcript of the attempt.
	Log []string

	// RollbackErr is non-nil when a created inventory could not be deleted.
	RollbackErr error
}

// LogText returns the transcript as one string.
func (r *Result) LogText() string {
	return strings.Join(r.Log, "\n")
}

// Workflow launches deploy attempts.
type Workflow struct {
	client         awx.AutomationClient
	organizationID int
	observer       Observer
	phases         func() []Phase
	now            func() time.Time
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithObserver sets the observer that receives every event.
func WithObserver(o Observer) Option {
	return func(w *Workflow) { w.observer = o }
}

// WithClock overrides the clock used for the attempt start time.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// NewWorkflow creates a Workflow creating inventories in organizationID.
func NewWorkflow(client awx.AutomationClient, organizationID int, opts ...Option) *Workflow {
	w := &Workflow{
		client:         client,
		organizationID: organizationID,
		observer:       NopObserver{},
		phases:         DefaultPhases,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Launch runs the deploy phases for templateName against hostname.
//
// The returned Result is never nil. On error, Result.Success is false, any
// inventory created on the way has been rolled back, and the error wraps
// one of the package sentinels.
func (w *Workflow) Launch(ctx context.Context, hostname, templateName string) (*Result, error) {
	transcript := NewTranscriptObserver(w.observer.WithFields(map[string]string{
		"host":     hostname,
		"template": templateName,
	}))
	state := NewState(hostname, templateName, w.now())
	pctx := NewContext(ctx, w.client, w.organizationID, state, transcript)

	transcript.Printf("Starting deploy of %s to %s", templateName, hostname)
	err := RunPhases(pctx, w.phases())

	res := &Result{
		JobID:         state.JobID,
		InventoryID:   state.InventoryID,
		InventoryName: state.InventoryName,
		RollbackErr:   state.RollbackErr,
	}

	if err != nil {
		metrics.RecordDeployAttempt("failed")
		transcript.Printf("Deploy failed: %v", err)
		if state.RollbackErr != nil {
			transcript.Printf("WARNING: scoped inventory %s (id %d) was not removed: %v",
				state.InventoryName, state.InventoryID, state.RollbackErr)
		}
		res.Log = transcript.Lines()
		return res, err
	}

	metrics.RecordDeployAttempt("launched")
	attempt := state.Attempt()
	res.Success = true
	res.Attempt = &attempt
	transcript.Printf("Deploy launched as job %d", state.JobID)
	res.Log = transcript.Lines()
	return res, nil
}
