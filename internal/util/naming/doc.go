// Package naming provides consistent naming functions for AWX resources and
// audit files.
//
// Scoped inventories follow the pattern deploy_temp_{host}_{yyyyMMddHHmmss}_{8hex}.
// The timestamp keeps names readable in the AWX UI; the random suffix keeps two
// attempts against the same host in the same second apart. Audit partitions are
// keyed by calendar day and detail files by second, host and actor.
package naming
