package monitor

import (
	"time"

	"watchpost/internals/modules/status"

	"github.com/google/uuid"
)

type JobType string

const (
	JobTypeHTTP JobType = "http"
	JobTypeTCP  JobType = "tcp"
)

// Monitor is a probe definition owned by a workspace. The engine never
// mutates it except the denormalized Status projection, which is written
// only through the incident coordinator path.
type Monitor struct {
	ID              uuid.UUID
	WorkspaceID     uuid.UUID
	Name            string
	JobType         JobType
	Url             string
	Regions         []status.Region
	Assertions      []status.Assertion
	DegradedAfterMs int32
	TimeoutMs       int32
	Active          bool
	Status          status.AggregateStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (m *Monitor) DegradedAfter() time.Duration {
	return time.Duration(m.DegradedAfterMs) * time.Millisecond
}

type CreateMonitorCmd struct {
	WorkspaceID     uuid.UUID
	Name            string
	JobType         JobType
	Url             string
	Regions         []status.Region
	Assertions      []status.Assertion
	DegradedAfterMs int32
	TimeoutMs       int32
}

type UpdateMonitorCmd struct {
	Name            string
	Url             string
	Regions         []status.Region
	Assertions      []status.Assertion
	DegradedAfterMs int32
	TimeoutMs       int32
}
