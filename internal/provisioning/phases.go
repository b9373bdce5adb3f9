package provisioning

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/imamik/awxgate/internal/metrics"
	"github.com/imamik/awxgate/internal/util/naming"
)

const (
	phaseHostCheck        = "host-check"
	phaseInventory        = "inventory"
	phaseHostRegistration = "host-registration"
	phaseLaunch           = "launch"
)

// DefaultPhases returns the deploy phases in execution order.
func DefaultPhases() []Phase {
	return []Phase{
		&hostCheckPhase{},
		&inventoryPhase{},
		&hostRegistrationPhase{},
		&launchPhase{},
	}
}

type hostCheckPhase struct{}

func (p *hostCheckPhase) Name() string { return phaseHostCheck }

func (p *hostCheckPhase) Provision(ctx *Context) error {
	if !ctx.Client.HostExists(ctx, ctx.State.Hostname) {
		return fmt.Errorf("%w: %s", ErrHostNotRegistered, ctx.State.Hostname)
	}
	ctx.Observer.Printf("Host %s is registered in AWX", ctx.State.Hostname)
	return nil
}

type inventoryPhase struct{}

func (p *inventoryPhase) Name() string { return phaseInventory }

func (p *inventoryPhase) Provision(ctx *Context) error {
	name := naming.NewScopedInventory(ctx.State.Hostname, ctx.State.StartTime)
	LogResourceCreating(ctx.Observer, phaseInventory, "scoped inventory", name)

	id, err := ctx.Client.CreateInventory(ctx, name, ctx.OrganizationID)
	if err == nil && id == 0 {
		err = errors.New("AWX returned no inventory id")
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInventoryCreationFailed, name, err)
	}

	ctx.State.InventoryName = name
	ctx.State.InventoryID = id
	LogResourceCreated(ctx.Observer, phaseInventory, "scoped inventory", name, strconv.Itoa(id))
	return nil
}

func (p *inventoryPhase) Rollback(ctx *Context) error {
	if ctx.State.InventoryID == 0 || ctx.State.InventoryReleased {
		return nil
	}
	LogResourceDeleting(ctx.Observer, phaseInventory, "scoped inventory", ctx.State.InventoryName)

	err := ctx.Client.DeleteInventory(ctx, ctx.State.InventoryID)
	metrics.RecordRollback(err == nil)
	if err != nil {
		return fmt.Errorf("delete inventory %d: %w", ctx.State.InventoryID, err)
	}

	ctx.State.InventoryReleased = true
	LogResourceDeleted(ctx.Observer, phaseInventory, "scoped inventory", ctx.State.InventoryName)
	return nil
}

type hostRegistrationPhase struct{}

func (p *hostRegistrationPhase) Name() string { return phaseHostRegistration }

func (p *hostRegistrationPhase) Provision(ctx *Context) error {
	if err := ctx.Client.AddHost(ctx, ctx.State.InventoryID, ctx.State.Hostname); err != nil {
		return fmt.Errorf("%w: %w", ErrHostRegistrationFailed, err)
	}
	ctx.Observer.Printf("Host %s added to inventory %d", ctx.State.Hostname, ctx.State.InventoryID)
	return nil
}

type launchPhase struct{}

func (p *launchPhase) Name() string { return phaseLaunch }

func (p *launchPhase) Provision(ctx *Context) error {
	jobID, err := ctx.Client.LaunchTemplate(ctx, ctx.State.Hostname, ctx.State.TemplateName, ctx.State.InventoryID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	ctx.State.JobID = jobID
	ctx.Observer.Printf("Job %d launched from template %s", jobID, ctx.State.TemplateName)
	return nil
}
