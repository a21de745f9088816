package statuspage

import (
	"time"

	"github.com/google/uuid"
)

// Page maps a public slug to a set of monitors. Everything else on the
// feed is derived at render time.
type Page struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Slug        string
	Name        string
	Monitors    []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreatePageCmd struct {
	WorkspaceID uuid.UUID
	Slug        string
	Name        string
	Monitors    []uuid.UUID
}

type UpdatePageCmd struct {
	Name     string
	Monitors []uuid.UUID
}

// Feed is the public JSON document served on /status/{slug}.
type Feed struct {
	Slug          string            `json:"slug"`
	Name          string            `json:"name"`
	Status        string            `json:"status"`
	Monitors      []FeedMonitor     `json:"monitors"`
	StatusReports []FeedReport      `json:"status_reports"`
	Maintenances  []FeedMaintenance `json:"maintenances"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

type FeedMonitor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type FeedReport struct {
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type FeedMaintenance struct {
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Active   bool      `json:"active"`
}
