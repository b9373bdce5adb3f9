// Package service exposes the caller-facing deploy operations: listing
// templates, launching a deploy, polling its job and finalizing it, plus
// read access to the audit trail.
//
// Launch requests are validated before any call reaches AWX. Once a request
// is valid, every outcome of the attempt is audited exactly once: failures
// right away, successful launches when the caller finalizes the job.
package service
