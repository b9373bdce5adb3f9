package provisioning

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// Rollbacker is implemented by phases that create remote resources.
// Rollback is called at most once, and only after Provision succeeded.
type Rollbacker interface {
	Rollback(ctx *Context) error
}
