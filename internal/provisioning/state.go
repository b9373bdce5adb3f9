package provisioning

import (
	"time"

	"github.com/imamik/awxgate/internal/session"
)

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results.
type State struct {
	Hostname     string
	TemplateName string
	StartTime    time.Time

	// Populated by the inventory phase.
	InventoryName string
	InventoryID   int

	// InventoryReleased is set once the scoped inventory was deleted by rollback.
	InventoryReleased bool

	// Populated by the launch phase.
	JobID int

	// RollbackErr joins every *RollbackError raised while unwinding.
	RollbackErr error
}

// NewState creates the state for one attempt.
func NewState(hostname, templateName string, start time.Time) *State {
	return &State{
		Hostname:     hostname,
		TemplateName: templateName,
		StartTime:    start,
	}
}

// Attempt returns the session context of a launched attempt.
func (s *State) Attempt() session.Attempt {
	return session.Attempt{
		JobID:        s.JobID,
		Hostname:     s.Hostname,
		TemplateName: s.TemplateName,
		StartTime:    s.StartTime,
		InventoryID:  s.InventoryID,
	}
}
