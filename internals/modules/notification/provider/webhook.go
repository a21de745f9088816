package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

type WebhookConfig struct {
	URL    string `json:"url"`
	Secret string `json:"secret,omitempty"`
}

// Webhook posts the raw event JSON to a customer endpoint.
type Webhook struct {
	client *http.Client
}

func NewWebhook(client *http.Client) *Webhook {
	return &Webhook{client: client}
}

func (p *Webhook) Kind() Kind {
	return KindWebhook
}

func (p *Webhook) ValidateConfig(raw json.RawMessage) error {
	var cfg WebhookConfig
	if err := parseConfig(KindWebhook, raw, &cfg); err != nil {
		return err
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return newError(InvalidConfig, KindWebhook, "url must be a http(s) url", err)
	}
	return nil
}

func (p *Webhook) Send(ctx context.Context, e Event, raw json.RawMessage) error {
	var cfg WebhookConfig
	if err := parseConfig(KindWebhook, raw, &cfg); err != nil {
		return err
	}
	return p.post(ctx, cfg, e)
}

func (p *Webhook) SendTest(ctx context.Context, raw json.RawMessage) error {
	var cfg WebhookConfig
	if err := parseConfig(KindWebhook, raw, &cfg); err != nil {
		return err
	}
	return p.post(ctx, cfg, testEvent())
}

func (p *Webhook) post(ctx context.Context, cfg WebhookConfig, e Event) error {
	headers := map[string]string{}
	if cfg.Secret != "" {
		headers["X-Webhook-Token"] = cfg.Secret
	}
	return postJSON(ctx, p.client, KindWebhook, cfg.URL, headers, e)
}
