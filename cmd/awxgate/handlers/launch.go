package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/imamik/awxgate/internal/config"
	"github.com/imamik/awxgate/internal/monitor"
	"github.com/imamik/awxgate/internal/service"
	"github.com/imamik/awxgate/internal/ui/tui"
)

// LaunchOptions are the flags of the launch command.
type LaunchOptions struct {
	Hosts     string
	Template  string
	Actor     string
	SessionID string
	Watch     bool
}

// pickTemplate asks the operator to choose a template. Replaced in tests.
var pickTemplate = func(ctx context.Context, templates []string) (string, error) {
	var choice string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Job Template").
				Description("AWX job template to run against the host(s)").
				Options(huh.NewOptions(templates...)...).
				Value(&choice),
		),
	).RunWithContext(ctx)
	return choice, err
}

// Launch handles the launch command.
//
// Every host of the ";"-separated list is deployed in turn. With watch
// set, each launched job is followed until it ends and then finalized.
func Launch(ctx context.Context, opts Options, lo LaunchOptions) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	// A memory store dies with this process, so a later finalize could not
	// find the attempt and its inventory would never be deleted.
	if !lo.Watch && a.cfg.Session.Driver == config.DriverMemory {
		return errors.New("the memory session driver cannot carry a launch to a later finalize; " +
			"use --watch or set session.driver to sqlite")
	}

	if lo.Actor == "" {
		lo.Actor = defaultActor()
	}
	if lo.SessionID == "" {
		lo.SessionID = defaultSession(lo.Actor)
	}

	if lo.Template == "" {
		if !stdoutIsTerminal() {
			return errors.New("--template is required when not running in a terminal")
		}
		templates := a.svc.GetTemplates(ctx)
		if len(templates) == 0 {
			return errors.New("no job templates available to choose from")
		}
		if lo.Template, err = pickTemplate(ctx, templates); err != nil {
			return fmt.Errorf("template selection cancelled: %w", err)
		}
	}

	results, err := a.svc.LaunchMany(ctx, service.LaunchRequest{
		SessionID: lo.SessionID,
		Actor:     lo.Actor,
		Hostname:  lo.Hosts,
		Template:  lo.Template,
	})
	if err != nil {
		return err
	}

	multi := len(results) > 1
	failed := 0
	for _, res := range results {
		if opts.JSON {
			if err := printJSON(stdout, res); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(stdout, "=== %s ===\n%s\n", res.Hostname, res.Log)
		}
		if !res.Success {
			failed++
			continue
		}

		sid := lo.SessionID
		if multi {
			sid = service.HostSessionID(lo.SessionID, res.Hostname)
		}
		if !lo.Watch {
			if !opts.JSON {
				fmt.Fprintf(stdout, "Job %d launched. Finalize with: awxgate finalize %d --session %q\n",
					res.JobID, res.JobID, sid)
			}
			continue
		}
		if ok, err := watchAndFinalize(ctx, a, opts, res, lo, sid); err != nil {
			return err
		} else if !ok {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d deployment(s) failed", failed, len(results))
	}
	return nil
}

// watchAndFinalize follows a launched job to its end and finalizes it.
// It reports whether the job succeeded.
func watchAndFinalize(ctx context.Context, a *app, opts Options, res service.LaunchResult, lo LaunchOptions, sid string) (bool, error) {
	watchCtx, cancel := context.WithTimeout(ctx, a.timeouts.Watch)
	defer cancel()

	var (
		last monitor.Update
		err  error
	)
	if stdoutIsTerminal() && !opts.JSON {
		last, err = tui.RunWatchTUI(watchCtx, a.monitor, res.JobID, res.Hostname, lo.Template, a.timeouts.PollInterval)
	} else {
		last, err = watchPlain(watchCtx, a, res.JobID, !opts.JSON)
	}
	if !monitor.IsTerminal(last.Status) {
		if err == nil {
			err = errors.New("watch stopped")
		}
		fmt.Fprintf(stdout, "Job %d is still %s (%v). Finalize later with: awxgate finalize %d --session %q\n",
			res.JobID, last.Status, err, res.JobID, sid)
		return false, nil
	}

	out, err := a.svc.Finalize(ctx, service.FinalizeRequest{
		SessionID:   sid,
		Actor:       lo.Actor,
		JobID:       res.JobID,
		FinalStatus: string(last.Status),
		Output:      last.Output,
	})
	if err != nil {
		return false, err
	}
	if opts.JSON {
		if err := printJSON(stdout, out); err != nil {
			return false, err
		}
	} else {
		fmt.Fprintln(stdout, out.Message)
	}
	return out.Success && monitor.Succeeded(last.Status), nil
}

// watchPlain follows a job until it ends, printing status changes when
// verbose is set.
func watchPlain(ctx context.Context, a *app, jobID int, verbose bool) (monitor.Update, error) {
	var prev monitor.Status
	return a.monitor.Watch(ctx, jobID, a.timeouts.PollInterval, func(u monitor.Update) {
		if verbose && u.Status != prev {
			fmt.Fprintf(stdout, "Job %d: %s\n", jobID, u.Status)
			prev = u.Status
		}
	})
}
