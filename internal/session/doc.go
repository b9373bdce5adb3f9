// Package session keeps the in-flight deploy attempt of each caller session
// and the set of jobs that have already been finalized.
//
// Two backends are provided: an in-process [MemoryStore] and a SQLite-backed
// [SQLiteStore] that survives restarts of the server. Both guarantee that
// [Store.ClaimFinalize] succeeds at most once per job id.
package session
