package audit

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	MonitorRecovered EventKind = "monitor.recovered"
	MonitorDegraded  EventKind = "monitor.degraded"
	MonitorFailed    EventKind = "monitor.failed"
	NotificationSent EventKind = "notification.sent"
	IncidentCreated  EventKind = "incident.created"
	IncidentResolved EventKind = "incident.resolved"

	// EngineDegraded marks a transition the engine could not persist
	// after exhausting its retries. The monitor's real state and the
	// stored state may disagree until the next result.
	EngineDegraded EventKind = "engine.degraded"
)

// Entry is one append-only audit record. Duplicates are acceptable
// downstream; missing entries are not.
type Entry struct {
	ID        uuid.UUID         `json:"id"`
	Kind      EventKind         `json:"kind"`
	MonitorID uuid.UUID         `json:"monitor_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	At        time.Time         `json:"at"`
}
