package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"watchpost/internals/modules/status"

	"github.com/google/uuid"
)

// Kind is the closed enum of notification providers. Channels are
// resolved through the registry by this value, never by arbitrary
// strings.
type Kind string

const (
	KindSlack     Kind = "slack"
	KindDiscord   Kind = "discord"
	KindEmail     Kind = "email"
	KindSMS       Kind = "sms"
	KindWebhook   Kind = "webhook"
	KindPagerDuty Kind = "pagerduty"
	KindOpsGenie  Kind = "opsgenie"
	KindNtfy      Kind = "ntfy"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSlack, KindDiscord, KindEmail, KindSMS, KindWebhook, KindPagerDuty, KindOpsGenie, KindNtfy:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown provider kind %q", s)
	}
}

type EventKind string

const (
	EventIncidentCreated  EventKind = "incident.created"
	EventIncidentResolved EventKind = "incident.resolved"
	EventMonitorDegraded  EventKind = "monitor.degraded"
)

// Event is the transition a provider delivers. It is a value object,
// not a persisted row.
type Event struct {
	Kind        EventKind              `json:"kind"`
	MonitorID   uuid.UUID              `json:"monitor_id"`
	MonitorName string                 `json:"monitor_name"`
	Url         string                 `json:"url"`
	Status      status.AggregateStatus `json:"status"`
	At          time.Time              `json:"at"`
}

// Provider is the capability contract every variant implements. Send
// and SendTest must share one transport path: a passing test has to
// guarantee the real path works.
type Provider interface {
	Kind() Kind
	ValidateConfig(raw json.RawMessage) error
	Send(ctx context.Context, e Event, raw json.RawMessage) error
	SendTest(ctx context.Context, raw json.RawMessage) error
}

func parseConfig[T any](kind Kind, raw json.RawMessage, dst *T) error {
	if len(raw) == 0 {
		return newError(InvalidConfig, kind, "empty provider config", nil)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return newError(InvalidConfig, kind, "malformed provider config", err)
	}
	return nil
}
