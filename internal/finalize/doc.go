// Package finalize closes a deploy attempt once its job reached a terminal
// status: it writes the audit record, releases the scoped inventory and
// clears the session's attempt.
//
// Finalize is idempotent per job id. The first call does the work; later
// calls for the same job report AlreadyFinalized and touch nothing, so a
// client retrying after a crash never produces a second audit record.
package finalize
