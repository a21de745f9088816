package notification

import (
	"encoding/json"
	"time"

	"watchpost/internals/modules/notification/provider"

	"github.com/google/uuid"
)

// Channel is one configured delivery target. Config is provider-shaped
// JSON validated by the provider at save time, opaque everywhere else.
type Channel struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Kind        provider.Kind
	Name        string
	Config      json.RawMessage
	Monitors    []uuid.UUID
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateChannelCmd struct {
	WorkspaceID uuid.UUID
	Kind        provider.Kind
	Name        string
	Config      json.RawMessage
	Monitors    []uuid.UUID
}

type UpdateChannelCmd struct {
	Name     string
	Config   json.RawMessage
	Monitors []uuid.UUID
}

// DeliveryResult is the per-channel outcome of one event fan-out.
type DeliveryResult struct {
	ChannelID uuid.UUID
	Kind      provider.Kind
	OK        bool
	Attempts  int
	Error     string
}
