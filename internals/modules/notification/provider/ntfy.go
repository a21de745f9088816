package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const ntfyDefaultServer = "https://ntfy.sh"

type NtfyConfig struct {
	Topic     string `json:"topic"`
	ServerURL string `json:"server_url,omitempty"`
	Token     string `json:"token,omitempty"`
}

type Ntfy struct {
	client *http.Client
}

func NewNtfy(client *http.Client) *Ntfy {
	return &Ntfy{client: client}
}

func (n *Ntfy) Kind() Kind {
	return KindNtfy
}

func (n *Ntfy) ValidateConfig(raw json.RawMessage) error {
	var cfg NtfyConfig
	if err := parseConfig(KindNtfy, raw, &cfg); err != nil {
		return err
	}
	if cfg.Topic == "" {
		return newError(InvalidConfig, KindNtfy, "topic is required", nil)
	}
	return nil
}

func (n *Ntfy) Send(ctx context.Context, e Event, raw json.RawMessage) error {
	var cfg NtfyConfig
	if err := parseConfig(KindNtfy, raw, &cfg); err != nil {
		return err
	}
	return n.post(ctx, cfg, e)
}

func (n *Ntfy) SendTest(ctx context.Context, raw json.RawMessage) error {
	var cfg NtfyConfig
	if err := parseConfig(KindNtfy, raw, &cfg); err != nil {
		return err
	}
	return n.post(ctx, cfg, testEvent())
}

// ntfy takes the message as the raw request body on a topic URL, not a
// JSON document.
func (n *Ntfy) post(ctx context.Context, cfg NtfyConfig, e Event) error {
	server := strings.TrimRight(cfg.ServerURL, "/")
	if server == "" {
		server = ntfyDefaultServer
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/"+cfg.Topic, strings.NewReader(summary(e)))
	if err != nil {
		return newError(InvalidConfig, KindNtfy, "failed to build request", err)
	}
	req.Header.Set("Title", "watchpost alert")
	if e.Kind == EventIncidentCreated {
		req.Header.Set("Priority", "urgent")
		req.Header.Set("Tags", "rotating_light")
	}
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	return doRequest(n.client, req, KindNtfy)
}
