// Package provisioning runs a deploy attempt against AWX as a sequence of
// phases.
//
// # Phases
//
//   - host-check: the target must already be known to AWX
//   - inventory: create the scoped inventory for this attempt
//   - host-registration: add the target to the scoped inventory
//   - launch: launch the job template against the scoped inventory
//
// Phases run strictly in order, each depending on the result of the previous
// one. When a phase fails, completed phases that created remote resources are
// rolled back in reverse order before the error is returned. A rollback
// failure is recorded on the State and reported, but the phase error is what
// the caller receives.
//
// # Core Types
//
// Context carries the AWX client, the attempt State and an Observer.
// Phase defines a step with Name() and Provision(); phases that create
// resources also implement Rollbacker.
// Workflow wires the default phases together and produces a Result.
package provisioning
