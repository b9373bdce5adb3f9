package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/awxgate/internal/monitor"
	"github.com/imamik/awxgate/internal/service"
	"github.com/imamik/awxgate/internal/ui/tui"
)

// Status handles the status command.
func Status(ctx context.Context, opts Options, jobID int, watch bool) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if !watch {
		return printPoll(opts, jobID, a.svc.PollStatus(ctx, jobID))
	}

	watchCtx, cancel := context.WithTimeout(ctx, a.timeouts.Watch)
	defer cancel()

	var last monitor.Update
	if stdoutIsTerminal() && !opts.JSON {
		last, err = tui.RunWatchTUI(watchCtx, a.monitor, jobID, "", "", a.timeouts.PollInterval)
	} else {
		last, err = watchPlain(watchCtx, a, jobID, !opts.JSON)
	}
	if perr := printPoll(opts, jobID, service.PollResult{
		Status:   last.Status,
		Output:   last.Output,
		Terminal: monitor.IsTerminal(last.Status),
	}); perr != nil {
		return perr
	}
	return err
}

func printPoll(opts Options, jobID int, res service.PollResult) error {
	if opts.JSON {
		return printJSON(stdout, res)
	}
	fmt.Fprint(stdout, tui.RenderStatusOnce(jobID, res.Status, res.Output))
	return nil
}
