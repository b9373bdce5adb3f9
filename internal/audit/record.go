package audit

import (
	"errors"
	"time"
)

// UnknownValue is recorded for any attempt field that was not available.
const UnknownValue = "Unknown"

var (
	// ErrNotFound is returned by GetDetail when no detail file matches.
	ErrNotFound = errors.New("audit record not found")

	// ErrWriteFailure wraps any failure to persist a record.
	ErrWriteFailure = errors.New("audit write failure")
)

// Record is one immutable audit entry.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Hostname  string    `json:"hostname"`
	Template  string    `json:"template"`
	Success   bool      `json:"success"`
	Output    string    `json:"output"`
}

// Detail is a Record as stored in its detail file.
type Detail struct {
	Record
	LogFile   string    `json:"log_file"`
	CreatedAt time.Time `json:"created_at"`
}

// Range selects records by timestamp, both ends inclusive.
// A zero From or To leaves that end open.
type Range struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Day returns the range covering the calendar day of t in t's location.
func Day(t time.Time) Range {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return Range{From: start, To: start.AddDate(0, 0, 1).Add(-time.Nanosecond)}
}

func withDefaults(r Record) Record {
	if r.Actor == "" {
		r.Actor = UnknownValue
	}
	if r.Hostname == "" {
		r.Hostname = UnknownValue
	}
	if r.Template == "" {
		r.Template = UnknownValue
	}
	return r
}
