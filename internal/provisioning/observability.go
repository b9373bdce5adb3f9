package provisioning

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	// Printf records a free-form progress line.
	Printf(format string, v ...any)

	// Event emits a structured event
	Event(event Event)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "inventory", "launch")
	Message   string            // Human-readable message
	Resource  string            // Resource name/ID if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates a provisioning phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a provisioning phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a provisioning phase failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventResourceCreating indicates a resource is being created.
	EventResourceCreating EventType = "resource.creating"
	// EventResourceCreated indicates a resource was created successfully.
	EventResourceCreated EventType = "resource.created"
	// EventResourceDeleting indicates a resource is being deleted.
	EventResourceDeleting EventType = "resource.deleting"
	// EventResourceDeleted indicates a resource was deleted successfully.
	EventResourceDeleted EventType = "resource.deleted"

	// EventRollbackFailed indicates a created resource could not be released.
	EventRollbackFailed EventType = "rollback.failed"
)

func (t EventType) failure() bool {
	return t == EventPhaseFailed || t == EventRollbackFailed
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) Printf(string, ...any)                   {}
func (NopObserver) Event(Event)                             {}
func (n NopObserver) WithFields(map[string]string) Observer { return n }

// LogrObserver implements Observer on top of a logr.Logger.
type LogrObserver struct {
	log logr.Logger
}

// NewLogrObserver creates an observer writing to log.
func NewLogrObserver(log logr.Logger) *LogrObserver {
	return &LogrObserver{log: log}
}

// Printf logs a formatted line at info level.
func (o *LogrObserver) Printf(format string, v ...any) {
	o.log.Info(fmt.Sprintf(format, v...))
}

// Event logs the event with its fields as key/value pairs. Failure events
// are logged at error level.
func (o *LogrObserver) Event(event Event) {
	kv := []any{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	for _, k := range sortedKeys(event.Fields) {
		kv = append(kv, k, event.Fields[k])
	}

	if event.Type.failure() {
		o.log.Error(nil, event.Message, kv...)
		return
	}
	o.log.Info(event.Message, kv...)
}

// WithFields returns an observer whose logger carries fields.
func (o *LogrObserver) WithFields(fields map[string]string) Observer {
	kv := make([]any, 0, 2*len(fields))
	for _, k := range sortedKeys(fields) {
		kv = append(kv, k, fields[k])
	}
	return &LogrObserver{log: o.log.WithValues(kv...)}
}

// TranscriptObserver keeps a human-readable copy of everything it observes
// and forwards each call to next.
type TranscriptObserver struct {
	next Observer
	now  func() time.Time

	mu    *sync.Mutex
	lines *[]string
}

// NewTranscriptObserver creates a transcript forwarding to next (may be nil).
func NewTranscriptObserver(next Observer) *TranscriptObserver {
	if next == nil {
		next = NopObserver{}
	}
	lines := make([]string, 0, 16)
	return &TranscriptObserver{
		next:  next,
		now:   time.Now,
		mu:    &sync.Mutex{},
		lines: &lines,
	}
}

func (o *TranscriptObserver) add(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	*o.lines = append(*o.lines, fmt.Sprintf("[%s] %s", o.now().Format("15:04:05"), line))
}

// Printf records the line and forwards it.
func (o *TranscriptObserver) Printf(format string, v ...any) {
	o.add(fmt.Sprintf(format, v...))
	o.next.Printf(format, v...)
}

// Event records the formatted event and forwards it.
func (o *TranscriptObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = o.now()
	}
	o.add(formatEvent(event))
	o.next.Event(event)
}

// WithFields shares the transcript and adds fields to the forwarded observer.
func (o *TranscriptObserver) WithFields(fields map[string]string) Observer {
	return &TranscriptObserver{
		next:  o.next.WithFields(fields),
		now:   o.now,
		mu:    o.mu,
		lines: o.lines,
	}
}

// Lines returns a copy of the transcript.
func (o *TranscriptObserver) Lines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), *o.lines...)
}

// formatEvent formats an event for the transcript.
func formatEvent(event Event) string {
	var parts []string

	if event.Phase != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Phase))
	}
	parts = append(parts, event.Message)
	if event.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", event.Resource))
	}
	if len(event.Fields) > 0 {
		var fieldParts []string
		for _, k := range sortedKeys(event.Fields) {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, event.Fields[k]))
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", ")))
	}

	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Helper functions for common events

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// LogResourceCreating logs a resource creation start event.
func LogResourceCreating(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceCreating,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("creating %s", resourceType),
	})
}

// LogResourceCreated logs a successful resource creation event.
func LogResourceCreated(observer Observer, phase, resourceType, resourceName, resourceID string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s created", resourceType),
		Fields: map[string]string{
			"id": resourceID,
		},
	})
}

// LogResourceDeleting logs a resource deletion start event.
func LogResourceDeleting(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceDeleting,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("deleting %s", resourceType),
	})
}

// LogResourceDeleted logs a successful resource deletion event.
func LogResourceDeleted(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s deleted", resourceType),
	})
}
