package notification

import (
	"encoding/json"
	"time"
)

type CreateChannelRequest struct {
	Kind     string          `json:"kind" validate:"required,oneof=slack discord email sms webhook pagerduty opsgenie ntfy"`
	Name     string          `json:"name" validate:"required,max=120"`
	Config   json.RawMessage `json:"config" validate:"required"`
	Monitors []string        `json:"monitors" validate:"dive,uuid"`
}

type UpdateChannelRequest struct {
	Name     string          `json:"name" validate:"required,max=120"`
	Config   json.RawMessage `json:"config" validate:"required"`
	Monitors []string        `json:"monitors" validate:"dive,uuid"`
}

type ChannelResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Name      string          `json:"name"`
	Config    json.RawMessage `json:"config"`
	Monitors  []string        `json:"monitors,omitempty"`
	LastError *string         `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type ListChannelsResponse struct {
	WorkspaceID string            `json:"workspace_id"`
	Channels    []ChannelResponse `json:"channels"`
}

func toChannelResponse(ch *Channel) ChannelResponse {
	monitors := make([]string, 0, len(ch.Monitors))
	for _, id := range ch.Monitors {
		monitors = append(monitors, id.String())
	}
	return ChannelResponse{
		ID:        ch.ID.String(),
		Kind:      string(ch.Kind),
		Name:      ch.Name,
		Config:    ch.Config,
		Monitors:  monitors,
		LastError: ch.LastError,
		CreatedAt: ch.CreatedAt,
	}
}
