package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-playground/validator/v10"

	"github.com/imamik/awxgate/internal/audit"
	"github.com/imamik/awxgate/internal/finalize"
	"github.com/imamik/awxgate/internal/monitor"
	"github.com/imamik/awxgate/internal/platform/awx"
	"github.com/imamik/awxgate/internal/provisioning"
	"github.com/imamik/awxgate/internal/session"
)

// ErrAttemptInProgress is returned by a launch into a session whose previous
// attempt has not been finalized.
var ErrAttemptInProgress = errors.New("deploy attempt in progress")

// AuditStore is the audit trail used by the service. Implemented by *audit.Recorder.
type AuditStore interface {
	finalize.Auditor
	Query(ctx context.Context, rng audit.Range) ([]audit.Record, error)
	GetDetail(ctx context.Context, timestamp time.Time, hostname, actor string) (*audit.Detail, error)
}

// LaunchRequest asks for one template to be run against one or more hosts.
type LaunchRequest struct {
	SessionID string `validate:"required"`
	Actor     string `validate:"max=255"`
	Hostname  string `validate:"required,max=1024"`
	Template  string `validate:"required,max=512"`
}

// LaunchResult is the outcome of one attempt.
type LaunchResult struct {
	Hostname string `json:"hostname"`
	Success  bool   `json:"success"`
	Log      string `json:"log"`
	JobID    int    `json:"jobId,omitempty"`

	// Err is the failure behind an unsuccessful result.
	Err error `json:"-"`
}

// PollResult is the current state of a job.
type PollResult struct {
	Status   monitor.Status `json:"status"`
	Output   string         `json:"output"`
	Terminal bool           `json:"terminal"`
}

// FinalizeRequest closes the attempt behind JobID.
type FinalizeRequest struct {
	SessionID   string
	Actor       string
	JobID       int    `validate:"gt=0"`
	FinalStatus string `validate:"required"`
	Output      string
}

// FinalizeResult reports the outcome of Finalize.
type FinalizeResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	AlreadyFinalized bool   `json:"alreadyFinalized,omitempty"`
}

// Service implements the caller-facing operations.
type Service struct {
	client       awx.AutomationClient
	workflow     *provisioning.Workflow
	monitor      *monitor.Monitor
	finalizer    *finalize.Handler
	audit        AuditStore
	store        session.Store
	hosts        HostPolicy
	reachability ReachabilityChecker
	validate     *validator.Validate
	sessions     keyedMutex
	log          logr.Logger
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithHostPolicy replaces DefaultHostPolicy.
func WithHostPolicy(p HostPolicy) Option {
	return func(s *Service) { s.hosts = p }
}

// WithReachabilityCheck enables a reachability check before each attempt.
func WithReachabilityCheck(c ReachabilityChecker) Option {
	return func(s *Service) { s.reachability = c }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the clock used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New wires a Service. workflow and finalizer must use the same client,
// store and audit trail passed here.
func New(client awx.AutomationClient, workflow *provisioning.Workflow, finalizer *finalize.Handler,
	auditStore AuditStore, store session.Store, opts ...Option) *Service {
	s := &Service{
		client:    client,
		workflow:  workflow,
		monitor:   monitor.New(client),
		finalizer: finalizer,
		audit:     auditStore,
		store:     store,
		hosts:     DefaultHostPolicy(),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       logr.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetTemplates lists the job templates available to launch.
func (s *Service) GetTemplates(ctx context.Context) []string {
	return s.client.ListTemplates(ctx)
}

// Launch runs req.Template against req.Hostname, which must name exactly
// one host. An invalid request returns an error wrapping ErrInvalidRequest
// and touches neither AWX nor the audit trail. A session still holding an
// unfinalized attempt is refused with ErrAttemptInProgress.
func (s *Service) Launch(ctx context.Context, req LaunchRequest) (LaunchResult, error) {
	hosts, err := s.validateLaunch(req)
	if err != nil {
		return LaunchResult{}, err
	}
	if len(hosts) != 1 {
		return LaunchResult{}, fmt.Errorf("%w: exactly one host expected, got %d", ErrInvalidRequest, len(hosts))
	}
	if err := s.checkIdle(ctx, req.SessionID); err != nil {
		return LaunchResult{}, err
	}
	res := s.launchOne(ctx, req, hosts[0])
	if errors.Is(res.Err, ErrAttemptInProgress) {
		return LaunchResult{}, res.Err
	}
	return res, nil
}

// LaunchMany runs req.Template against every host of a ";"-separated list,
// one attempt after another. Each successful attempt is stored under
// req.SessionID plus the host name (see HostSessionID).
func (s *Service) LaunchMany(ctx context.Context, req LaunchRequest) ([]LaunchResult, error) {
	hosts, err := s.validateLaunch(req)
	if err != nil {
		return nil, err
	}
	if len(hosts) == 1 {
		if err := s.checkIdle(ctx, req.SessionID); err != nil {
			return nil, err
		}
		return []LaunchResult{s.launchOne(ctx, req, hosts[0])}, nil
	}

	sessionIDs := make([]string, len(hosts))
	for i, h := range hosts {
		sessionIDs[i] = HostSessionID(req.SessionID, h)
	}
	if err := s.checkIdle(ctx, sessionIDs...); err != nil {
		return nil, err
	}

	results := make([]LaunchResult, 0, len(hosts))
	for i, h := range hosts {
		r := req
		r.SessionID = sessionIDs[i]
		results = append(results, s.launchOne(ctx, r, h))
	}
	return results, nil
}

// checkIdle fails with ErrAttemptInProgress if any of the sessions holds an
// attempt.
func (s *Service) checkIdle(ctx context.Context, sessionIDs ...string) error {
	for _, sid := range sessionIDs {
		prev, err := s.store.Get(ctx, sid)
		if errors.Is(err, session.ErrNoAttempt) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read session %s: %w", sid, err)
		}
		return fmt.Errorf("%w: session %s still holds job %d (inventory %d); finalize it before launching again",
			ErrAttemptInProgress, sid, prev.JobID, prev.InventoryID)
	}
	return nil
}

// HostSessionID derives the session holding the attempt for one host of a
// multi-host launch.
func HostSessionID(sessionID, hostname string) string {
	return sessionID + "/" + hostname
}

func (s *Service) validateLaunch(req LaunchRequest) ([]string, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return s.hosts.ParseHosts(s.validate, req.Hostname)
}

func (s *Service) launchOne(ctx context.Context, req LaunchRequest, hostname string) LaunchResult {
	log := s.log.WithValues("host", hostname, "template", req.Template, "actor", req.Actor)

	if s.reachability != nil {
		if err := s.reachability.Check(ctx, hostname); err != nil {
			log.Info("reachability check failed", "error", err.Error())
			msg := fmt.Sprintf("Host %s did not answer the reachability check: %v", hostname, err)
			s.recordFailure(ctx, req, hostname, msg)
			return LaunchResult{Hostname: hostname, Log: msg, Err: err}
		}
	}

	unlock := s.sessions.Lock(req.SessionID)
	defer unlock()

	// A concurrent launch in the same session may have won the race.
	if err := s.checkIdle(ctx, req.SessionID); err != nil {
		log.Info("launch refused", "error", err.Error())
		return LaunchResult{Hostname: hostname, Log: err.Error(), Err: err}
	}

	res, err := s.workflow.Launch(ctx, hostname, req.Template)
	text := res.LogText()
	if err != nil {
		log.Error(err, "deploy launch failed")
		s.recordFailure(ctx, req, hostname, text)
		return LaunchResult{Hostname: hostname, Log: text, Err: err}
	}

	if err := s.store.Put(ctx, req.SessionID, *res.Attempt); err != nil {
		// Finalize will still audit the job, but cannot release inventory.
		log.Error(err, "session attempt could not be stored", "job", res.JobID, "inventory", res.InventoryID)
	}
	log.Info("deploy launched", "job", res.JobID, "inventory", res.InventoryID)
	return LaunchResult{Hostname: hostname, Success: true, Log: text, JobID: res.JobID}
}

func (s *Service) recordFailure(ctx context.Context, req LaunchRequest, hostname, output string) {
	rec := audit.Record{
		Timestamp: s.now(),
		Actor:     req.Actor,
		Hostname:  hostname,
		Template:  req.Template,
		Success:   false,
		Output:    output,
	}
	if err := s.audit.Record(ctx, rec); err != nil {
		s.log.Error(err, "audit record could not be written", "host", hostname)
	}
}

// PollStatus returns the job's status and output.
func (s *Service) PollStatus(ctx context.Context, jobID int) PollResult {
	status, output := s.monitor.Poll(ctx, jobID)
	return PollResult{Status: status, Output: output, Terminal: monitor.IsTerminal(status)}
}

// Finalize audits the job and releases its inventory. The attempt is read
// from req.SessionID; a missing attempt still produces an audit record.
func (s *Service) Finalize(ctx context.Context, req FinalizeRequest) (FinalizeResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return FinalizeResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var attempt *session.Attempt
	if req.SessionID != "" {
		a, err := s.store.Get(ctx, req.SessionID)
		switch {
		case err == nil:
			attempt = a
		case errors.Is(err, session.ErrNoAttempt):
		default:
			s.log.Error(err, "session attempt could not be read", "job", req.JobID)
		}
	}

	out, err := s.finalizer.Finalize(ctx, finalize.Request{
		JobID:       req.JobID,
		FinalStatus: req.FinalStatus,
		Output:      req.Output,
		Actor:       req.Actor,
		SessionID:   req.SessionID,
	}, attempt)
	if err != nil {
		return FinalizeResult{Success: false, Message: err.Error()}, nil
	}
	return FinalizeResult{Success: true, Message: out.Message, AlreadyFinalized: out.AlreadyFinalized}, nil
}

// Attempt returns the attempt stored in a session.
func (s *Service) Attempt(ctx context.Context, sessionID string) (*session.Attempt, error) {
	return s.store.Get(ctx, sessionID)
}

// AuditLog returns the audit records in rng, newest first.
func (s *Service) AuditLog(ctx context.Context, rng audit.Range) ([]audit.Record, error) {
	return s.audit.Query(ctx, rng)
}

// AuditDetail returns the stored detail of one audit record.
func (s *Service) AuditDetail(ctx context.Context, timestamp time.Time, hostname, actor string) (*audit.Detail, error) {
	return s.audit.GetDetail(ctx, timestamp, hostname, actor)
}
