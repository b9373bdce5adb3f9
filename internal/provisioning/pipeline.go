package provisioning

import (
	"errors"
	"fmt"
	"time"
)

// RunPhases executes all provisioning phases sequentially. When a phase
// fails, the completed phases are rolled back in reverse order and the
// phase error is returned.
func RunPhases(ctx *Context, phases []Phase) error {
	start := time.Now()
	completed := make([]Phase, 0, len(phases))

	for _, phase := range phases {
		phaseStart := time.Now()
		LogPhaseStart(ctx.Observer, phase.Name())

		if err := phase.Provision(ctx); err != nil {
			LogPhaseFailed(ctx.Observer, phase.Name(), err)
			rollback(ctx, completed)
			return fmt.Errorf("%s phase failed: %w", phase.Name(), err)
		}

		LogPhaseComplete(ctx.Observer, phase.Name(), time.Since(phaseStart))
		completed = append(completed, phase)
	}

	ctx.Observer.Printf("All %d phases completed in %v", len(phases), time.Since(start).Round(time.Millisecond))
	return nil
}

func rollback(ctx *Context, completed []Phase) {
	rctx := ctx.detached()
	for i := len(completed) - 1; i >= 0; i-- {
		r, ok := completed[i].(Rollbacker)
		if !ok {
			continue
		}
		if err := r.Rollback(rctx); err != nil {
			rerr := &RollbackError{Phase: completed[i].Name(), Err: err}
			ctx.State.RollbackErr = errors.Join(ctx.State.RollbackErr, rerr)
			ctx.Observer.Event(Event{
				Type:    EventRollbackFailed,
				Phase:   completed[i].Name(),
				Message: rerr.Error(),
			})
		}
	}
}
