package provider

import (
	"net/http"

	"watchpost/config"
)

// Registry resolves a channel's kind to its provider implementation.
// All eight variants are registered up front, providers hold no
// per-channel state.
type Registry struct {
	providers map[Kind]Provider
}

func NewRegistry(client *http.Client, cfg *config.ProvidersConfig) *Registry {
	var smtp *config.SMTPConfig
	var sms *config.SMSConfig
	if cfg != nil {
		smtp = cfg.SMTP
		sms = cfg.SMS
	}

	all := []Provider{
		NewSlack(client),
		NewDiscord(client),
		NewWebhook(client),
		NewPagerDuty(client),
		NewOpsGenie(client),
		NewNtfy(client),
		NewEmail(smtp),
		NewSMS(client, sms),
	}

	providers := make(map[Kind]Provider, len(all))
	for _, p := range all {
		providers[p.Kind()] = p
	}
	return &Registry{providers: providers}
}

func (r *Registry) Get(kind Kind) (Provider, bool) {
	p, ok := r.providers[kind]
	return p, ok
}
