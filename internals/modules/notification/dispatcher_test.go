package notification

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"watchpost/config"
	"watchpost/internals/modules/audit"
	"watchpost/internals/modules/notification/provider"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannelSource struct {
	mu         sync.Mutex
	channels   []Channel
	deliveries map[uuid.UUID]string
}

func (f *fakeChannelSource) ListForMonitor(ctx context.Context, monitorID uuid.UUID) ([]Channel, error) {
	return f.channels, nil
}

func (f *fakeChannelSource) RecordDelivery(ctx context.Context, channelID uuid.UUID, deliveryErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deliveries == nil {
		f.deliveries = make(map[uuid.UUID]string)
	}
	f.deliveries[channelID] = deliveryErr
	return nil
}

// fakeProvider fails a configurable number of times, optionally slowly.
type fakeProvider struct {
	mu       sync.Mutex
	kind     provider.Kind
	failures int
	failKind provider.ErrorKind
	delay    time.Duration
	calls    int
	ctxErrs  []error
}

func (f *fakeProvider) Kind() provider.Kind                      { return f.kind }
func (f *fakeProvider) ValidateConfig(raw json.RawMessage) error { return nil }

func (f *fakeProvider) Send(ctx context.Context, e provider.Event, raw json.RawMessage) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return &provider.Error{Kind: provider.Unreachable, Provider: f.kind, Message: "timeout", Err: ctx.Err()}
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.calls <= f.failures {
		return &provider.Error{Kind: f.failKind, Provider: f.kind, Message: "induced failure"}
	}
	return nil
}

func (f *fakeProvider) SendTest(ctx context.Context, raw json.RawMessage) error {
	return f.Send(ctx, provider.Event{}, raw)
}

type fakeRegistry struct {
	providers map[provider.Kind]provider.Provider
}

func (f *fakeRegistry) Get(kind provider.Kind) (provider.Provider, bool) {
	p, ok := f.providers[kind]
	return p, ok
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []audit.EventKind
	meta    []map[string]string
}

func (f *fakeAuditor) Record(kind audit.EventKind, monitorID uuid.UUID, metadata map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, kind)
	f.meta = append(f.meta, metadata)
}

func newTestDispatcher(t *testing.T, src *fakeChannelSource, reg *fakeRegistry, aud *fakeAuditor) *Dispatcher {
	t.Helper()
	logger := zerolog.Nop()
	d := NewDispatcher(context.Background(), src, reg, aud, &config.DispatcherConfig{
		WorkerCount: 2,
		ChannelSize: 16,
		SendTimeout: 500 * time.Millisecond,
	}, &logger)
	d.retryDelays = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return d
}

func testChannel(kind provider.Kind) Channel {
	return Channel{
		ID:     uuid.New(),
		Kind:   kind,
		Name:   string(kind) + " channel",
		Config: json.RawMessage(`{}`),
	}
}

func testEvent() provider.Event {
	return provider.Event{
		Kind:      provider.EventIncidentCreated,
		MonitorID: uuid.New(),
		Status:    "error",
		At:        time.Now(),
	}
}

func TestDispatchDeliversToAllChannels(t *testing.T) {
	slack := &fakeProvider{kind: provider.KindSlack}
	discord := &fakeProvider{kind: provider.KindDiscord}
	src := &fakeChannelSource{channels: []Channel{testChannel(provider.KindSlack), testChannel(provider.KindDiscord)}}
	aud := &fakeAuditor{}

	d := newTestDispatcher(t, src, &fakeRegistry{providers: map[provider.Kind]provider.Provider{
		provider.KindSlack:   slack,
		provider.KindDiscord: discord,
	}}, aud)

	results := d.Dispatch(context.Background(), testEvent())
	require.Len(t, results, 2)
	for _, res := range results {
		assert.True(t, res.OK)
		assert.Equal(t, 1, res.Attempts)
	}
	assert.Equal(t, 1, slack.calls)
	assert.Equal(t, 1, discord.calls)

	require.Len(t, aud.entries, 2)
	for _, kind := range aud.entries {
		assert.Equal(t, audit.NotificationSent, kind)
	}
}

func TestDispatchRetriesRetryableFailures(t *testing.T) {
	flaky := &fakeProvider{kind: provider.KindSlack, failures: 2, failKind: provider.RateLimited}
	src := &fakeChannelSource{channels: []Channel{testChannel(provider.KindSlack)}}

	d := newTestDispatcher(t, src, &fakeRegistry{providers: map[provider.Kind]provider.Provider{
		provider.KindSlack: flaky,
	}}, &fakeAuditor{})

	results := d.Dispatch(context.Background(), testEvent())
	require.Len(t, results, 1)
	assert.True(t, results[0].OK)
	assert.Equal(t, 3, results[0].Attempts)
}

func TestDispatchDoesNotRetryTerminalFailures(t *testing.T) {
	cases := []provider.ErrorKind{provider.InvalidConfig, provider.Unauthorized, provider.UnexpectedResponse}

	for _, kind := range cases {
		t.Run(string(kind), func(t *testing.T) {
			broken := &fakeProvider{kind: provider.KindWebhook, failures: 100, failKind: kind}
			src := &fakeChannelSource{channels: []Channel{testChannel(provider.KindWebhook)}}

			d := newTestDispatcher(t, src, &fakeRegistry{providers: map[provider.Kind]provider.Provider{
				provider.KindWebhook: broken,
			}}, &fakeAuditor{})

			results := d.Dispatch(context.Background(), testEvent())
			require.Len(t, results, 1)
			assert.False(t, results[0].OK)
			assert.Equal(t, 1, results[0].Attempts)
			assert.Equal(t, 1, broken.calls)
		})
	}
}

func TestDispatchExhaustsRetryBudget(t *testing.T) {
	down := &fakeProvider{kind: provider.KindNtfy, failures: 100, failKind: provider.Unreachable}
	src := &fakeChannelSource{channels: []Channel{testChannel(provider.KindNtfy)}}
	aud := &fakeAuditor{}

	d := newTestDispatcher(t, src, &fakeRegistry{providers: map[provider.Kind]provider.Provider{
		provider.KindNtfy: down,
	}}, aud)

	results := d.Dispatch(context.Background(), testEvent())
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, 4, results[0].Attempts)
	assert.NotEmpty(t, results[0].Error)

	require.Len(t, aud.meta, 1)
	assert.Equal(t, "failed", aud.meta[0]["outcome"])
}

func TestSlowChannelDoesNotBlockOthers(t *testing.T) {
	// slow provider sleeps past the send timeout, fast one answers
	// immediately. Both must finish without the fast one waiting on
	// the slow one's full timeout budget.
	slow := &fakeProvider{kind: provider.KindWebhook, delay: 10 * time.Second}
	fast := &fakeProvider{kind: provider.KindSlack}
	src := &fakeChannelSource{channels: []Channel{testChannel(provider.KindWebhook), testChannel(provider.KindSlack)}}

	d := newTestDispatcher(t, src, &fakeRegistry{providers: map[provider.Kind]provider.Provider{
		provider.KindWebhook: slow,
		provider.KindSlack:   fast,
	}}, &fakeAuditor{})
	d.retryDelays = nil

	start := time.Now()
	results := d.Dispatch(context.Background(), testEvent())
	elapsed := time.Since(start)

	require.Len(t, results, 2)
	var slackOK, webhookOK bool
	for _, res := range results {
		switch res.Kind {
		case provider.KindSlack:
			slackOK = res.OK
		case provider.KindWebhook:
			webhookOK = res.OK
		}
	}
	assert.True(t, slackOK)
	assert.False(t, webhookOK)
	// one send timeout, not two sequential ones
	assert.Less(t, elapsed, 2*d.sendTimeout)
}

func TestDeliveryOutcomeRecordedOnChannel(t *testing.T) {
	ok := testChannel(provider.KindSlack)
	bad := testChannel(provider.KindWebhook)
	src := &fakeChannelSource{channels: []Channel{ok, bad}}

	d := newTestDispatcher(t, src, &fakeRegistry{providers: map[provider.Kind]provider.Provider{
		provider.KindSlack:   &fakeProvider{kind: provider.KindSlack},
		provider.KindWebhook: &fakeProvider{kind: provider.KindWebhook, failures: 100, failKind: provider.InvalidConfig},
	}}, &fakeAuditor{})

	d.Dispatch(context.Background(), testEvent())

	assert.Equal(t, "", src.deliveries[ok.ID])
	assert.Contains(t, src.deliveries[bad.ID], "induced failure")
}

func TestWorkerPoolDrainsOnClose(t *testing.T) {
	p := &fakeProvider{kind: provider.KindSlack}
	src := &fakeChannelSource{channels: []Channel{testChannel(provider.KindSlack)}}

	d := newTestDispatcher(t, src, &fakeRegistry{providers: map[provider.Kind]provider.Provider{
		provider.KindSlack: p,
	}}, &fakeAuditor{})
	d.Run()

	for i := 0; i < 5; i++ {
		d.Enqueue(testEvent())
	}
	d.Close()

	assert.Equal(t, 5, p.calls)
}

func TestQueuedEventsSurviveShutdownSignal(t *testing.T) {
	// events already accepted belong to persisted incidents, so the
	// drain after a shutdown signal must deliver them with a live
	// context rather than failing them against the cancelled one
	p := &fakeProvider{kind: provider.KindSlack}
	src := &fakeChannelSource{channels: []Channel{testChannel(provider.KindSlack)}}
	logger := zerolog.Nop()

	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(ctx, src, &fakeRegistry{providers: map[provider.Kind]provider.Provider{
		provider.KindSlack: p,
	}}, &fakeAuditor{}, &config.DispatcherConfig{
		WorkerCount: 2,
		ChannelSize: 16,
		SendTimeout: 500 * time.Millisecond,
	}, &logger)
	d.retryDelays = nil

	for i := 0; i < 5; i++ {
		d.Enqueue(testEvent())
	}
	cancel()
	d.Run()
	d.Close()

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Equal(t, 5, p.calls)
	for _, err := range p.ctxErrs {
		assert.NoError(t, err)
	}
}
