package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

type SlackConfig struct {
	WebhookURL string `json:"webhook_url"`
}

type Slack struct {
	client *http.Client
}

func NewSlack(client *http.Client) *Slack {
	return &Slack{client: client}
}

func (s *Slack) Kind() Kind {
	return KindSlack
}

func (s *Slack) ValidateConfig(raw json.RawMessage) error {
	var cfg SlackConfig
	if err := parseConfig(KindSlack, raw, &cfg); err != nil {
		return err
	}
	u, err := url.Parse(cfg.WebhookURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return newError(InvalidConfig, KindSlack, "webhook_url must be a https url", err)
	}
	return nil
}

// Block Kit payload, one section per message.
type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (s *Slack) Send(ctx context.Context, e Event, raw json.RawMessage) error {
	var cfg SlackConfig
	if err := parseConfig(KindSlack, raw, &cfg); err != nil {
		return err
	}
	return s.post(ctx, cfg, e)
}

func (s *Slack) SendTest(ctx context.Context, raw json.RawMessage) error {
	var cfg SlackConfig
	if err := parseConfig(KindSlack, raw, &cfg); err != nil {
		return err
	}
	return s.post(ctx, cfg, testEvent())
}

func (s *Slack) post(ctx context.Context, cfg SlackConfig, e Event) error {
	payload := slackPayload{
		Blocks: []slackBlock{
			{
				Type: "section",
				Text: &slackText{Type: "mrkdwn", Text: "*" + summary(e) + "*"},
			},
		},
	}
	return postJSON(ctx, s.client, KindSlack, cfg.WebhookURL, nil, payload)
}
