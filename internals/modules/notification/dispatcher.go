package notification

import (
	"context"
	"sync"
	"time"

	"watchpost/config"
	"watchpost/internals/modules/audit"
	"watchpost/internals/modules/notification/provider"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ChannelSource interface {
	ListForMonitor(ctx context.Context, monitorID uuid.UUID) ([]Channel, error)
	RecordDelivery(ctx context.Context, channelID uuid.UUID, deliveryErr string) error
}

type ProviderRegistry interface {
	Get(kind provider.Kind) (provider.Provider, bool)
}

type Auditor interface {
	Record(kind audit.EventKind, monitorID uuid.UUID, metadata map[string]string)
}

// Dispatcher fans transition events out to every subscribed channel.
// Channels are independent failure domains: each delivery runs in its
// own goroutine with its own timeout and retry budget, so a misbehaving
// webhook cannot delay PagerDuty.
type Dispatcher struct {
	ctx      context.Context
	events   chan provider.Event
	channels ChannelSource
	registry ProviderRegistry
	auditor  Auditor

	workerCount int
	sendTimeout time.Duration
	// retryDelays is the backoff schedule after a retryable failure.
	// Tests shrink it.
	retryDelays []time.Duration

	wg     sync.WaitGroup
	logger *zerolog.Logger
}

func NewDispatcher(ctx context.Context, channels ChannelSource, registry ProviderRegistry, auditor Auditor, cfg *config.DispatcherConfig, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		ctx:         ctx,
		events:      make(chan provider.Event, cfg.ChannelSize),
		channels:    channels,
		registry:    registry,
		auditor:     auditor,
		workerCount: cfg.WorkerCount,
		sendTimeout: cfg.SendTimeout,
		retryDelays: []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second},
		logger:      logger,
	}
}

func (d *Dispatcher) Run() {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Enqueue hands an event to the pool. Callers already persisted the
// transition, so a full queue blocks rather than drops.
func (d *Dispatcher) Enqueue(e provider.Event) {
	select {
	case d.events <- e:
	case <-d.ctx.Done():
		d.logger.Warn().
			Str("monitor_id", e.MonitorID.String()).
			Str("kind", string(e.Kind)).
			Msg("dispatcher shutting down, event dropped")
	}
}

// dispatchTimeout bounds one event's full fan-out, retries included.
const dispatchTimeout = 2 * time.Minute

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for e := range d.events {
		// queued events must survive engine shutdown; their incidents
		// are already persisted, so each dispatch gets its own deadline
		// instead of d.ctx
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		d.Dispatch(ctx, e)
		cancel()
	}
}

// Dispatch delivers one event to all subscribed channels and reports
// per-channel results. It returns once every channel has finished or
// exhausted its retries.
func (d *Dispatcher) Dispatch(ctx context.Context, e provider.Event) []DeliveryResult {
	channels, err := d.channels.ListForMonitor(ctx, e.MonitorID)
	if err != nil {
		d.logger.Error().Err(err).
			Str("monitor_id", e.MonitorID.String()).
			Msg("failed to load channels for event")
		return nil
	}
	if len(channels) == 0 {
		return nil
	}

	results := make([]DeliveryResult, len(channels))
	var wg sync.WaitGroup
	for i := range channels {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.deliver(ctx, channels[i], e)
		}(i)
	}
	wg.Wait()

	for i := range results {
		d.record(ctx, e, results[i])
	}
	return results
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, e provider.Event) DeliveryResult {
	result := DeliveryResult{ChannelID: ch.ID, Kind: ch.Kind}

	p, ok := d.registry.Get(ch.Kind)
	if !ok {
		result.Error = "unknown provider kind " + string(ch.Kind)
		return result
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		result.Attempts = attempt + 1

		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		lastErr = p.Send(sendCtx, e, ch.Config)
		cancel()

		if lastErr == nil {
			result.OK = true
			return result
		}
		if !provider.IsRetryable(lastErr) || attempt >= len(d.retryDelays) {
			break
		}

		select {
		case <-time.After(d.retryDelays[attempt]):
		case <-ctx.Done():
			result.Error = lastErr.Error()
			return result
		}
	}

	result.Error = lastErr.Error()
	return result
}

func (d *Dispatcher) record(ctx context.Context, e provider.Event, res DeliveryResult) {
	if err := d.channels.RecordDelivery(ctx, res.ChannelID, res.Error); err != nil {
		d.logger.Error().Err(err).
			Str("channel_id", res.ChannelID.String()).
			Msg("failed to record delivery outcome")
	}

	outcome := "delivered"
	if !res.OK {
		outcome = "failed"
		d.logger.Warn().
			Str("channel_id", res.ChannelID.String()).
			Str("provider", string(res.Kind)).
			Int("attempts", res.Attempts).
			Str("error", res.Error).
			Msg("notification delivery failed")
	}

	d.auditor.Record(audit.NotificationSent, e.MonitorID, map[string]string{
		"channel_id": res.ChannelID.String(),
		"provider":   string(res.Kind),
		"event":      string(e.Kind),
		"outcome":    outcome,
	})
}

// Close stops accepting events and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	close(d.events)
	d.wg.Wait()
}
