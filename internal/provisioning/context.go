package provisioning

import (
	"context"

	"github.com/imamik/awxgate/internal/platform/awx"
)

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Client         awx.AutomationClient
	State          *State
	Observer       Observer
	OrganizationID int
}

// NewContext creates a new provisioning context.
func NewContext(ctx context.Context, client awx.AutomationClient, organizationID int, state *State, observer Observer) *Context {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Context{
		Context:        ctx,
		Client:         client,
		State:          state,
		Observer:       observer,
		OrganizationID: organizationID,
	}
}

// detached returns a copy whose context ignores cancellation of the
// parent, for cleanup that must still reach AWX.
func (c *Context) detached() *Context {
	cp := *c
	cp.Context = context.WithoutCancel(c.Context)
	return &cp
}
