package finalize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/awxgate/internal/audit"
	"github.com/imamik/awxgate/internal/metrics"
	"github.com/imamik/awxgate/internal/monitor"
	"github.com/imamik/awxgate/internal/platform/awx"
	"github.com/imamik/awxgate/internal/session"
)

// Auditor persists audit records. Implemented by *audit.Recorder.
type Auditor interface {
	Record(ctx context.Context, rec audit.Record) error
}

// Request identifies the job being finalized and who asked.
type Request struct {
	JobID       int
	FinalStatus string
	Output      string
	Actor       string

	// SessionID, when set, is the session whose attempt is cleared.
	SessionID string
}

// Outcome reports what Finalize did.
type Outcome struct {
	AlreadyFinalized bool
	JobSucceeded     bool
	InventoryDeleted bool
	Message          string

	// AuditErr and DeleteErr are logged failures that did not abort Finalize.
	AuditErr  error
	DeleteErr error
}

// Handler finalizes deploy attempts.
type Handler struct {
	client  awx.AutomationClient
	store   session.Store
	auditor Auditor
	log     logr.Logger
	now     func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// WithClock overrides the clock used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates a Handler.
func NewHandler(client awx.AutomationClient, store session.Store, auditor Auditor, opts ...Option) *Handler {
	h := &Handler{
		client:  client,
		store:   store,
		auditor: auditor,
		log:     logr.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Finalize audits and tears down the attempt behind req.JobID.
//
// attempt may be nil or partially filled; missing values are audited as
// audit.UnknownValue. An attempt that belongs to a different job is ignored
// and left in the session. Audit and inventory deletion failures are logged
// and reported in the Outcome; the only error returned is a failure to
// claim the job, in which case nothing was written.
//
// A job is audited once. When someone without the attempt finalized it
// first, the owner's later call still releases the inventory and clears
// the session.
func (h *Handler) Finalize(ctx context.Context, req Request, attempt *session.Attempt) (*Outcome, error) {
	log := h.log.WithValues("job", req.JobID)

	owned := attempt != nil && (attempt.JobID == 0 || attempt.JobID == req.JobID)
	if attempt != nil && !owned {
		log.Info("session attempt belongs to another job, ignoring it", "attempt_job", attempt.JobID)
	}

	claimed, err := h.store.ClaimFinalize(ctx, req.JobID)
	if err != nil {
		metrics.RecordFinalize("error")
		return nil, fmt.Errorf("claim job %d: %w", req.JobID, err)
	}
	if !claimed {
		metrics.RecordFinalize("duplicate")
		log.V(1).Info("job already finalized")
		out := &Outcome{
			AlreadyFinalized: true,
			Message:          fmt.Sprintf("Job %d was already finalized", req.JobID),
		}
		if owned && req.SessionID != "" {
			h.releaseUnclaimed(ctx, log, req, *attempt, out)
		}
		return out, nil
	}

	var a session.Attempt
	if owned {
		a = *attempt
	}

	status := monitor.ParseStatus(req.FinalStatus)
	out := &Outcome{JobSucceeded: monitor.Succeeded(status)}

	rec := audit.Record{
		Timestamp: h.now(),
		Actor:     orUnknown(req.Actor),
		Hostname:  orUnknown(a.Hostname),
		Template:  orUnknown(a.TemplateName),
		Success:   out.JobSucceeded,
		Output:    req.Output,
	}
	if err := h.auditor.Record(ctx, rec); err != nil {
		out.AuditErr = err
		log.Error(err, "audit record could not be written", "host", rec.Hostname, "template", rec.Template)
	}

	if owned {
		h.release(ctx, log, req.SessionID, a, out)
	} else {
		log.Info("no scoped inventory recorded for job")
	}

	out.Message = message(req.JobID, status, a, out)
	metrics.RecordFinalize("finalized")
	log.Info("job finalized", "status", string(status), "host", rec.Hostname, "inventory_deleted", out.InventoryDeleted)
	return out, nil
}

// release deletes the attempt's scoped inventory and clears its session.
func (h *Handler) release(ctx context.Context, log logr.Logger, sessionID string, a session.Attempt, out *Outcome) {
	h.deleteInventory(ctx, log, a.InventoryID, out)
	if sessionID != "" {
		if err := h.store.Clear(ctx, sessionID); err != nil && !errors.Is(err, session.ErrNoAttempt) {
			log.Error(err, "session attempt could not be cleared")
		}
	}
}

// releaseUnclaimed handles an owner arriving after the job was finalized
// without its attempt. The inventory is deleted only by the caller that
// removes the attempt from the session.
func (h *Handler) releaseUnclaimed(ctx context.Context, log logr.Logger, req Request, a session.Attempt, out *Outcome) {
	removed, err := h.store.ClearJob(ctx, req.SessionID, req.JobID)
	if err != nil {
		log.Error(err, "session attempt could not be cleared")
		return
	}
	if !removed {
		return
	}
	log.Info("job was finalized without its attempt, releasing inventory", "inventory", a.InventoryID)
	h.deleteInventory(ctx, log, a.InventoryID, out)
	if out.DeleteErr != nil {
		out.Message += fmt.Sprintf("; scoped inventory %d not deleted: %v", a.InventoryID, out.DeleteErr)
	}
}

func (h *Handler) deleteInventory(ctx context.Context, log logr.Logger, inventoryID int, out *Outcome) {
	if inventoryID == 0 {
		log.Info("no scoped inventory recorded for job")
		return
	}
	if err := h.client.DeleteInventory(ctx, inventoryID); err != nil {
		out.DeleteErr = err
		metrics.RecordInventoryLeak()
		log.Error(err, "scoped inventory could not be deleted", "inventory", inventoryID)
		return
	}
	out.InventoryDeleted = true
}

func message(jobID int, status monitor.Status, a session.Attempt, out *Outcome) string {
	parts := []string{fmt.Sprintf("Job %d finalized with status %s", jobID, status)}
	if out.AuditErr != nil {
		parts = append(parts, fmt.Sprintf("audit record not written: %v", out.AuditErr))
	}
	if out.DeleteErr != nil {
		parts = append(parts, fmt.Sprintf("scoped inventory %d not deleted: %v", a.InventoryID, out.DeleteErr))
	}
	return strings.Join(parts, "; ")
}

func orUnknown(s string) string {
	if s == "" {
		return audit.UnknownValue
	}
	return s
}
