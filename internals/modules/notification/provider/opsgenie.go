package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const opsGenieAPIURL = "https://api.opsgenie.com"

type OpsGenieConfig struct {
	APIKey string `json:"api_key"`
	// APIURL overrides the Alerts API host, used in tests and for the
	// EU region.
	APIURL string `json:"api_url,omitempty"`
}

type OpsGenie struct {
	client *http.Client
}

func NewOpsGenie(client *http.Client) *OpsGenie {
	return &OpsGenie{client: client}
}

func (o *OpsGenie) Kind() Kind {
	return KindOpsGenie
}

func (o *OpsGenie) ValidateConfig(raw json.RawMessage) error {
	var cfg OpsGenieConfig
	if err := parseConfig(KindOpsGenie, raw, &cfg); err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return newError(InvalidConfig, KindOpsGenie, "api_key is required", nil)
	}
	return nil
}

type opsGenieAlert struct {
	Message  string `json:"message"`
	Alias    string `json:"alias"`
	Priority string `json:"priority"`
}

func (o *OpsGenie) Send(ctx context.Context, e Event, raw json.RawMessage) error {
	var cfg OpsGenieConfig
	if err := parseConfig(KindOpsGenie, raw, &cfg); err != nil {
		return err
	}
	return o.post(ctx, cfg, e)
}

func (o *OpsGenie) SendTest(ctx context.Context, raw json.RawMessage) error {
	var cfg OpsGenieConfig
	if err := parseConfig(KindOpsGenie, raw, &cfg); err != nil {
		return err
	}
	return o.post(ctx, cfg, testEvent())
}

func (o *OpsGenie) post(ctx context.Context, cfg OpsGenieConfig, e Event) error {
	base := strings.TrimRight(cfg.APIURL, "/")
	if base == "" {
		base = opsGenieAPIURL
	}
	headers := map[string]string{"Authorization": "GenieKey " + cfg.APIKey}

	// resolved transitions close the alert opened under the monitor alias
	if e.Kind == EventIncidentResolved {
		url := base + "/v2/alerts/" + e.MonitorID.String() + "/close?identifierType=alias"
		return postJSON(ctx, o.client, KindOpsGenie, url, headers, map[string]string{
			"note": summary(e),
		})
	}

	priority := "P1"
	if e.Kind == EventMonitorDegraded {
		priority = "P3"
	}
	alert := opsGenieAlert{
		Message:  summary(e),
		Alias:    e.MonitorID.String(),
		Priority: priority,
	}
	return postJSON(ctx, o.client, KindOpsGenie, base+"/v2/alerts", headers, alert)
}
