package incident

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateOpen         State = "open"
	StateAcknowledged State = "acknowledged"
	StateResolved     State = "resolved"
)

// Incident records one continuous outage of a monitor. At most one
// incident per monitor is unresolved at any time; resolution is
// monotonic, a resolved incident never reopens.
type Incident struct {
	ID             uuid.UUID
	MonitorID      uuid.UUID
	WorkspaceID    uuid.UUID
	State          State
	Cause          string
	ScreenshotURL  *string
	AcknowledgedBy *string
	AcknowledgedAt *time.Time
	StartedAt      time.Time
	ResolvedAt     *time.Time
}

func (i *Incident) Open() bool {
	return i.ResolvedAt == nil
}
