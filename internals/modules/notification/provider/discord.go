package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

type DiscordConfig struct {
	WebhookURL string `json:"webhook_url"`
}

type Discord struct {
	client *http.Client
}

func NewDiscord(client *http.Client) *Discord {
	return &Discord{client: client}
}

func (d *Discord) Kind() Kind {
	return KindDiscord
}

func (d *Discord) ValidateConfig(raw json.RawMessage) error {
	var cfg DiscordConfig
	if err := parseConfig(KindDiscord, raw, &cfg); err != nil {
		return err
	}
	u, err := url.Parse(cfg.WebhookURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return newError(InvalidConfig, KindDiscord, "webhook_url must be a https url", err)
	}
	return nil
}

func (d *Discord) Send(ctx context.Context, e Event, raw json.RawMessage) error {
	var cfg DiscordConfig
	if err := parseConfig(KindDiscord, raw, &cfg); err != nil {
		return err
	}
	return d.post(ctx, cfg, e)
}

func (d *Discord) SendTest(ctx context.Context, raw json.RawMessage) error {
	var cfg DiscordConfig
	if err := parseConfig(KindDiscord, raw, &cfg); err != nil {
		return err
	}
	return d.post(ctx, cfg, testEvent())
}

func (d *Discord) post(ctx context.Context, cfg DiscordConfig, e Event) error {
	payload := map[string]string{"content": summary(e)}
	return postJSON(ctx, d.client, KindDiscord, cfg.WebhookURL, nil, payload)
}
