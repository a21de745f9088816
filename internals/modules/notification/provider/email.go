package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"

	"watchpost/config"

	gomail "gopkg.in/mail.v2"
)

type EmailConfig struct {
	To []string `json:"to"`
}

// Email delivers over the workspace-wide SMTP relay. The channel config
// only carries recipients, the relay itself comes from service config.
type Email struct {
	smtp *config.SMTPConfig
}

func NewEmail(smtp *config.SMTPConfig) *Email {
	return &Email{smtp: smtp}
}

func (p *Email) Kind() Kind {
	return KindEmail
}

func (p *Email) ValidateConfig(raw json.RawMessage) error {
	var cfg EmailConfig
	if err := parseConfig(KindEmail, raw, &cfg); err != nil {
		return err
	}
	if len(cfg.To) == 0 {
		return newError(InvalidConfig, KindEmail, "at least one recipient is required", nil)
	}
	for _, addr := range cfg.To {
		if !strings.Contains(addr, "@") {
			return newError(InvalidConfig, KindEmail, "invalid recipient address "+addr, nil)
		}
	}
	return nil
}

func (p *Email) Send(ctx context.Context, e Event, raw json.RawMessage) error {
	var cfg EmailConfig
	if err := parseConfig(KindEmail, raw, &cfg); err != nil {
		return err
	}
	return p.deliver(ctx, cfg, e)
}

func (p *Email) SendTest(ctx context.Context, raw json.RawMessage) error {
	var cfg EmailConfig
	if err := parseConfig(KindEmail, raw, &cfg); err != nil {
		return err
	}
	return p.deliver(ctx, cfg, testEvent())
}

func (p *Email) deliver(ctx context.Context, cfg EmailConfig, e Event) error {
	if p.smtp == nil {
		return newError(InvalidConfig, KindEmail, "smtp relay is not configured", nil)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", p.smtp.From)
	msg.SetHeader("To", cfg.To...)
	msg.SetHeader("Subject", summary(e))
	msg.SetBody("text/plain", summary(e)+"\n\nStatus: "+string(e.Status))

	dialer := gomail.NewDialer(p.smtp.Host, p.smtp.Port, p.smtp.Username, p.smtp.Password)

	// DialAndSend has no context support, so run it aside and honor the
	// caller's deadline ourselves.
	done := make(chan error, 1)
	go func() {
		done <- dialer.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		return newError(Unreachable, KindEmail, "smtp delivery timed out", ctx.Err())
	case err := <-done:
		if err == nil {
			return nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return newError(Unreachable, KindEmail, "smtp relay unreachable", err)
		}
		if strings.Contains(err.Error(), "535") || strings.Contains(err.Error(), "authentication") {
			return newError(Unauthorized, KindEmail, "smtp authentication failed", err)
		}
		return newError(Unreachable, KindEmail, "smtp delivery failed", err)
	}
}
