package entities

// EventStatus classifies a progress event.
type EventStatus string

const (
	EventInfo    EventStatus = "info"
	EventSuccess EventStatus = "success"
	EventCreated EventStatus = "created"
	EventSkipped EventStatus = "skipped"
	EventWarning EventStatus = "warning"
	EventError   EventStatus = "error"
)

// EventKind marks the event that ends a pass early. Progress and record
// events leave it empty.
type EventKind string

const (
	EventKindPassFailed  EventKind = "pass_failed"
	EventKindPassAborted EventKind = "pass_aborted"
)

// SyncEvent is one entry of a sync pass's progress stream.
type SyncEvent struct {
	Title  string      `json:"title"`
	Status EventStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
	Kind   EventKind   `json:"kind,omitempty"`
}

// IsItemOutcome reports whether the event is the final outcome of one record.
func (e SyncEvent) IsItemOutcome() bool {
	if e.Kind != "" {
		return false
	}
	switch e.Status {
	case EventCreated, EventSkipped, EventError:
		return true
	}
	return false
}
