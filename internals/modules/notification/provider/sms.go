package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"watchpost/config"
)

type SMSConfig struct {
	To []string `json:"to"`
}

// SMS delivers through the carrier gateway configured for the service.
// Channel config only lists the destination numbers.
type SMS struct {
	client  *http.Client
	carrier *config.SMSConfig
}

func NewSMS(client *http.Client, carrier *config.SMSConfig) *SMS {
	return &SMS{client: client, carrier: carrier}
}

func (p *SMS) Kind() Kind {
	return KindSMS
}

func (p *SMS) ValidateConfig(raw json.RawMessage) error {
	var cfg SMSConfig
	if err := parseConfig(KindSMS, raw, &cfg); err != nil {
		return err
	}
	if len(cfg.To) == 0 {
		return newError(InvalidConfig, KindSMS, "at least one phone number is required", nil)
	}
	for _, number := range cfg.To {
		if !strings.HasPrefix(number, "+") {
			return newError(InvalidConfig, KindSMS, "phone numbers must be E.164, got "+number, nil)
		}
	}
	return nil
}

func (p *SMS) Send(ctx context.Context, e Event, raw json.RawMessage) error {
	var cfg SMSConfig
	if err := parseConfig(KindSMS, raw, &cfg); err != nil {
		return err
	}
	return p.deliver(ctx, cfg, e)
}

func (p *SMS) SendTest(ctx context.Context, raw json.RawMessage) error {
	var cfg SMSConfig
	if err := parseConfig(KindSMS, raw, &cfg); err != nil {
		return err
	}
	return p.deliver(ctx, cfg, testEvent())
}

func (p *SMS) deliver(ctx context.Context, cfg SMSConfig, e Event) error {
	if p.carrier == nil || p.carrier.APIURL == "" {
		return newError(InvalidConfig, KindSMS, "sms gateway is not configured", nil)
	}

	text := summary(e)
	for _, number := range cfg.To {
		form := url.Values{}
		form.Set("From", p.carrier.From)
		form.Set("To", number)
		form.Set("Body", text)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.carrier.APIURL, strings.NewReader(form.Encode()))
		if err != nil {
			return newError(InvalidConfig, KindSMS, "failed to build request", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(p.carrier.AccountID, p.carrier.AuthToken)

		if err := doRequest(p.client, req, KindSMS); err != nil {
			return err
		}
	}
	return nil
}
