package session

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoAttempt is returned when a session holds no attempt.
var ErrNoAttempt = errors.New("no deploy attempt in session")

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Store persists attempts per session id.
type Store interface {
	// Get returns the session's attempt or ErrNoAttempt.
	Get(ctx context.Context, sessionID string) (*Attempt, error)
	// Put replaces the session's attempt.
	Put(ctx context.Context, sessionID string, a Attempt) error
	// Clear removes the session's attempt. Clearing an empty session is not an error.
	Clear(ctx context.Context, sessionID string) error
	// ClearJob removes the session's attempt only if it belongs to jobID and
	// reports whether it did. Of concurrent callers at most one sees true.
	ClearJob(ctx context.Context, sessionID string, jobID int) (bool, error)
	// ClaimFinalize marks jobID as finalized. It reports true only for the
	// first claim of a given job id.
	ClaimFinalize(ctx context.Context, jobID int) (bool, error)
	Close() error
}

// Open returns a store for driver. path is ignored by the memory driver.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown session driver %q", driver)
	}
}
