package awx

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrTemplateNotFound is returned when no job template matches a name.
var ErrTemplateNotFound = errors.New("job template not found")

// CommunicationError describes a failed exchange with the AWX API.
// StatusCode is 0 when no HTTP response was received.
type CommunicationError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error

	// RetryAfter is the wait AWX asked for on a throttled response.
	RetryAfter time.Duration
}

func (e *CommunicationError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("awx %s: %v", e.Operation, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("awx %s: HTTP %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("awx %s: HTTP %d: %s", e.Operation, e.StatusCode, e.Body)
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the request may succeed.
func (e *CommunicationError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// LaunchError is returned when AWX rejects a job launch. Body holds the
// remote error document for diagnostics.
type LaunchError struct {
	Template   string
	TemplateID int
	StatusCode int
	Body       string
	Err        error
}

func (e *LaunchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("launch of job template %q (id %d) failed: %v", e.Template, e.TemplateID, e.Err)
	}
	return fmt.Sprintf("launch of job template %q (id %d) failed: HTTP %d: %s", e.Template, e.TemplateID, e.StatusCode, e.Body)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by a CommunicationError in the
// chain, or 0.
func StatusCode(err error) int {
	var ce *CommunicationError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}
