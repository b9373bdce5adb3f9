package provisioning

import (
	"errors"
	"fmt"
)

var (
	// ErrHostNotRegistered means AWX does not know the target host.
	ErrHostNotRegistered = errors.New("host is not registered in AWX")

	// ErrInventoryCreationFailed means the scoped inventory could not be created.
	ErrInventoryCreationFailed = errors.New("scoped inventory could not be created")

	// ErrHostRegistrationFailed means the host could not be added to the scoped inventory.
	ErrHostRegistrationFailed = errors.New("host could not be added to scoped inventory")

	// ErrLaunch means the job template could not be launched.
	// It wraps awx.ErrTemplateNotFound or an *awx.LaunchError.
	ErrLaunch = errors.New("job launch failed")
)

// RollbackError reports a phase whose rollback failed.
type RollbackError struct {
	Phase string
	Err   error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback of %s phase failed: %v", e.Phase, e.Err)
}

func (e *RollbackError) Unwrap() error {
	return e.Err
}
