// Package awx provides a minimal client for the AWX / Ansible Automation
// Controller REST API (v2).
//
// Only the calls needed to run a job template against a single host inside a
// scoped inventory are implemented: template lookup and listing, host lookup,
// inventory create/delete, host registration, job launch, and job status/log
// retrieval.
//
// # Failure policy
//
// Read-only queries used on advisory or polling paths degrade to a safe value
// instead of returning an error: [Client.ListTemplates] returns an empty list,
// [Client.HostExists] returns false, and [Client.GetJobStatusAndOutput] returns
// the "error" status with the failure message as output. Mutating calls return
// errors so the caller can roll back.
//
// Idempotent requests (GET, DELETE) are retried with exponential backoff when
// [WithRetry] is set; POST requests are attempted once.
package awx
