package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/awxgate/internal/monitor"
	"github.com/imamik/awxgate/internal/service"
	"github.com/imamik/awxgate/internal/session"
)

// FinalizeOptions are the flags of the finalize command.
type FinalizeOptions struct {
	JobID     int
	SessionID string
	Host      string
	Actor     string
	// Status overrides the status read from AWX, e.g. to close a job
	// that AWX no longer knows about.
	Status string
}

// Finalize handles the finalize command.
func Finalize(ctx context.Context, opts Options, fo FinalizeOptions) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if fo.Actor == "" {
		fo.Actor = defaultActor()
	}
	sid := resolveSession(ctx, a, fo)

	poll := a.svc.PollStatus(ctx, fo.JobID)
	status := string(poll.Status)
	if fo.Status != "" {
		status = string(monitor.ParseStatus(fo.Status))
	} else if !poll.Terminal {
		return fmt.Errorf("job %d is still %s; finalize it once it has ended or pass --status", fo.JobID, poll.Status)
	}

	res, err := a.svc.Finalize(ctx, service.FinalizeRequest{
		SessionID:   sid,
		Actor:       fo.Actor,
		JobID:       fo.JobID,
		FinalStatus: status,
		Output:      poll.Output,
	})
	if err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(stdout, res)
	}
	fmt.Fprintln(stdout, res.Message)
	if !res.Success {
		return errors.New("finalization failed")
	}
	return nil
}

// resolveSession picks the session holding the job's attempt. A host
// names the per-host session of a multi-host launch when one exists.
func resolveSession(ctx context.Context, a *app, fo FinalizeOptions) string {
	sid := fo.SessionID
	if sid == "" {
		sid = defaultSession(fo.Actor)
	}
	if fo.Host == "" {
		return sid
	}
	hostSID := service.HostSessionID(sid, fo.Host)
	if _, err := a.svc.Attempt(ctx, hostSID); err == nil || !errors.Is(err, session.ErrNoAttempt) {
		return hostSID
	}
	return sid
}
