package provider

import (
	"context"
	"encoding/json"
	"net/http"
)

const pagerDutyEventsURL = "https://events.pagerduty.com/v2/enqueue"

type PagerDutyConfig struct {
	RoutingKey string `json:"routing_key"`
	// EventsURL overrides the Events API endpoint, used in tests.
	EventsURL string `json:"events_url,omitempty"`
}

type PagerDuty struct {
	client *http.Client
}

func NewPagerDuty(client *http.Client) *PagerDuty {
	return &PagerDuty{client: client}
}

func (p *PagerDuty) Kind() Kind {
	return KindPagerDuty
}

func (p *PagerDuty) ValidateConfig(raw json.RawMessage) error {
	var cfg PagerDutyConfig
	if err := parseConfig(KindPagerDuty, raw, &cfg); err != nil {
		return err
	}
	if cfg.RoutingKey == "" {
		return newError(InvalidConfig, KindPagerDuty, "routing_key is required", nil)
	}
	return nil
}

// Events API v2 payload.
type pagerDutyEvent struct {
	RoutingKey  string            `json:"routing_key"`
	EventAction string            `json:"event_action"`
	DedupKey    string            `json:"dedup_key,omitempty"`
	Payload     *pagerDutyPayload `json:"payload,omitempty"`
}

type pagerDutyPayload struct {
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	Severity string `json:"severity"`
}

func (p *PagerDuty) Send(ctx context.Context, e Event, raw json.RawMessage) error {
	var cfg PagerDutyConfig
	if err := parseConfig(KindPagerDuty, raw, &cfg); err != nil {
		return err
	}
	return p.post(ctx, cfg, e)
}

func (p *PagerDuty) SendTest(ctx context.Context, raw json.RawMessage) error {
	var cfg PagerDutyConfig
	if err := parseConfig(KindPagerDuty, raw, &cfg); err != nil {
		return err
	}
	return p.post(ctx, cfg, testEvent())
}

func (p *PagerDuty) post(ctx context.Context, cfg PagerDutyConfig, e Event) error {
	action := "trigger"
	severity := "critical"
	switch e.Kind {
	case EventIncidentResolved:
		action = "resolve"
	case EventMonitorDegraded:
		severity = "warning"
	}

	event := pagerDutyEvent{
		RoutingKey:  cfg.RoutingKey,
		EventAction: action,
		DedupKey:    e.MonitorID.String(),
	}
	if action == "trigger" {
		event.Payload = &pagerDutyPayload{
			Summary:  summary(e),
			Source:   e.Url,
			Severity: severity,
		}
	}

	url := cfg.EventsURL
	if url == "" {
		url = pagerDutyEventsURL
	}
	return postJSON(ctx, p.client, KindPagerDuty, url, nil, event)
}
