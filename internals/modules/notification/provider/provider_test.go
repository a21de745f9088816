package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"watchpost/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() Event {
	return Event{
		Kind:        EventIncidentCreated,
		MonitorID:   uuid.New(),
		MonitorName: "checkout api",
		Url:         "https://shop.example.com/health",
		Status:      "error",
		At:          time.Now(),
	}
}

func TestResponseClassification(t *testing.T) {
	cases := []struct {
		status    int
		wantKind  ErrorKind
		retryable bool
	}{
		{http.StatusTooManyRequests, RateLimited, true},
		{http.StatusUnauthorized, Unauthorized, false},
		{http.StatusForbidden, Unauthorized, false},
		{http.StatusBadRequest, InvalidConfig, false},
		{http.StatusNotFound, InvalidConfig, false},
		{http.StatusInternalServerError, Unreachable, true},
		{http.StatusBadGateway, Unreachable, true},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			p := NewWebhook(srv.Client())
			cfg, _ := json.Marshal(WebhookConfig{URL: srv.URL})

			err := p.Send(context.Background(), sampleEvent(), cfg)
			require.Error(t, err)
			assert.Equal(t, tc.wantKind, KindOf(err))
			assert.Equal(t, tc.retryable, IsRetryable(err))
		})
	}
}

func TestSendAndSendTestShareTransport(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewSlack(srv.Client())
	cfg, _ := json.Marshal(SlackConfig{WebhookURL: srv.URL + "/hook"})

	require.NoError(t, p.Send(context.Background(), sampleEvent(), cfg))
	require.NoError(t, p.SendTest(context.Background(), cfg))

	require.Len(t, paths, 2)
	assert.Equal(t, paths[0], paths[1])
}

func TestUnreachableHostIsRetryable(t *testing.T) {
	p := NewDiscord(&http.Client{Timeout: 200 * time.Millisecond})
	cfg, _ := json.Marshal(DiscordConfig{WebhookURL: "https://127.0.0.1:1/hook"})

	err := p.Send(context.Background(), sampleEvent(), cfg)
	require.Error(t, err)
	assert.Equal(t, Unreachable, KindOf(err))
	assert.True(t, IsRetryable(err))
}

func TestWebhookPostsRawEvent(t *testing.T) {
	var body []byte
	var token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		token = r.Header.Get("X-Webhook-Token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := sampleEvent()
	p := NewWebhook(srv.Client())
	cfg, _ := json.Marshal(WebhookConfig{URL: srv.URL, Secret: "s3cret"})

	require.NoError(t, p.Send(context.Background(), e, cfg))
	assert.Equal(t, "s3cret", token)

	var got Event
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, e.MonitorID, got.MonitorID)
	assert.Equal(t, EventIncidentCreated, got.Kind)
}

func TestPagerDutyActions(t *testing.T) {
	var got pagerDutyEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = pagerDutyEvent{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewPagerDuty(srv.Client())
	cfg, _ := json.Marshal(PagerDutyConfig{RoutingKey: "rk", EventsURL: srv.URL})

	e := sampleEvent()
	require.NoError(t, p.Send(context.Background(), e, cfg))
	assert.Equal(t, "trigger", got.EventAction)
	assert.Equal(t, e.MonitorID.String(), got.DedupKey)
	require.NotNil(t, got.Payload)
	assert.Equal(t, "critical", got.Payload.Severity)

	e.Kind = EventIncidentResolved
	require.NoError(t, p.Send(context.Background(), e, cfg))
	assert.Equal(t, "resolve", got.EventAction)
	assert.Nil(t, got.Payload)
}

func TestOpsGenieClosesByAlias(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, "GenieKey key-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	o := NewOpsGenie(srv.Client())
	cfg, _ := json.Marshal(OpsGenieConfig{APIKey: "key-1", APIURL: srv.URL})

	e := sampleEvent()
	require.NoError(t, o.Send(context.Background(), e, cfg))
	assert.Equal(t, "/v2/alerts", path)

	e.Kind = EventIncidentResolved
	require.NoError(t, o.Send(context.Background(), e, cfg))
	assert.Equal(t, "/v2/alerts/"+e.MonitorID.String()+"/close", path)
}

func TestNtfyPostsPlainBody(t *testing.T) {
	var body []byte
	var priority string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		priority = r.Header.Get("Priority")
		assert.Equal(t, "/alerts", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfy(srv.Client())
	cfg, _ := json.Marshal(NtfyConfig{Topic: "alerts", ServerURL: srv.URL})

	require.NoError(t, n.Send(context.Background(), sampleEvent(), cfg))
	assert.Contains(t, string(body), "checkout api is down")
	assert.Equal(t, "urgent", priority)
}

func TestSMSPostsFormPerRecipient(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "acct", user)
		assert.Equal(t, "tok", pass)
		require.NoError(t, r.ParseForm())
		assert.NotEmpty(t, r.Form.Get("To"))
		assert.NotEmpty(t, r.Form.Get("Body"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := NewSMS(srv.Client(), &config.SMSConfig{
		APIURL:    srv.URL,
		AccountID: "acct",
		AuthToken: "tok",
		From:      "+15550100",
	})
	cfg, _ := json.Marshal(SMSConfig{To: []string{"+15550101", "+15550102"}})

	require.NoError(t, p.Send(context.Background(), sampleEvent(), cfg))
	assert.Equal(t, 2, calls)
}

func TestValidateConfigRejections(t *testing.T) {
	client := http.DefaultClient
	cases := []struct {
		name string
		p    Provider
		cfg  string
	}{
		{"slack plain http", NewSlack(client), `{"webhook_url":"http://hooks.slack.com/x"}`},
		{"discord empty", NewDiscord(client), `{}`},
		{"webhook no host", NewWebhook(client), `{"url":"https://"}`},
		{"pagerduty no key", NewPagerDuty(client), `{}`},
		{"opsgenie no key", NewOpsGenie(client), `{}`},
		{"ntfy no topic", NewNtfy(client), `{}`},
		{"email no recipients", NewEmail(nil), `{"to":[]}`},
		{"email bad address", NewEmail(nil), `{"to":["not-an-address"]}`},
		{"sms not e164", NewSMS(client, nil), `{"to":["5550100"]}`},
		{"malformed json", NewSlack(client), `{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.ValidateConfig(json.RawMessage(tc.cfg))
			require.Error(t, err)
			assert.Equal(t, InvalidConfig, KindOf(err))
		})
	}
}

func TestEmailWithoutRelayFailsClosed(t *testing.T) {
	p := NewEmail(nil)
	cfg := json.RawMessage(`{"to":["ops@example.com"]}`)

	err := p.Send(context.Background(), sampleEvent(), cfg)
	require.Error(t, err)
	assert.Equal(t, InvalidConfig, KindOf(err))
	assert.False(t, IsRetryable(err))
}

func TestRegistryCoversAllKinds(t *testing.T) {
	r := NewRegistry(http.DefaultClient, &config.ProvidersConfig{})

	kinds := []Kind{KindSlack, KindDiscord, KindEmail, KindSMS, KindWebhook, KindPagerDuty, KindOpsGenie, KindNtfy}
	for _, k := range kinds {
		p, ok := r.Get(k)
		require.True(t, ok, "missing provider %s", k)
		assert.Equal(t, k, p.Kind())
	}

	_, ok := r.Get(Kind("carrier-pigeon"))
	assert.False(t, ok)
}
