package report

import (
	"time"

	"github.com/google/uuid"
)

// Status follows the public incident-communication ladder. Transitions
// only move forward; a resolved report stays resolved.
type Status string

const (
	StatusInvestigating Status = "investigating"
	StatusIdentified    Status = "identified"
	StatusMonitoring    Status = "monitoring"
	StatusResolved      Status = "resolved"
)

var statusRank = map[Status]int{
	StatusInvestigating: 0,
	StatusIdentified:    1,
	StatusMonitoring:    2,
	StatusResolved:      3,
}

func ValidStatus(s Status) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether a report may move from one status to
// another. Staying in place is allowed, posting another update under
// the same status is normal.
func CanTransition(from, to Status) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}

// Report is a public communication about an ongoing issue or a planned
// maintenance, shown on status pages.
type Report struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Title       string
	Status      Status
	Monitors    []uuid.UUID
	Updates     []Update
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Update is one timeline entry on a report.
type Update struct {
	ID        uuid.UUID
	ReportID  uuid.UUID
	Status    Status
	Message   string
	CreatedAt time.Time
}

// MaintenanceWindow schedules a planned maintenance. Its linked report
// is advanced automatically: monitoring when the window opens, resolved
// when it closes. Title mirrors the linked report's title on listing
// reads; the activator's claim queries leave it empty.
type MaintenanceWindow struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	ReportID    uuid.UUID
	Title       string
	StartsAt    time.Time
	EndsAt      time.Time
	Started     bool
	Ended       bool
}

type CreateReportCmd struct {
	WorkspaceID uuid.UUID
	Title       string
	Status      Status
	Message     string
	Monitors    []uuid.UUID
}

type AddUpdateCmd struct {
	Status  Status
	Message string
}

type CreateMaintenanceCmd struct {
	WorkspaceID uuid.UUID
	Title       string
	Message     string
	Monitors    []uuid.UUID
	StartsAt    time.Time
	EndsAt      time.Time
}
