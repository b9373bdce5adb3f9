// Package audit persists one record per deploy attempt.
//
// Records are appended to day partitions named deploy_audit_<yyyyMMdd>.json,
// each holding an indented JSON array. Every record additionally gets a
// detail file under detailed/ that carries the full job output and is looked
// up by host and actor.
//
// Appends to a partition are serialised per partition and replace the file
// atomically, so concurrent writers never lose records. Reads are
// best-effort: an unreadable partition is skipped with a warning.
package audit
