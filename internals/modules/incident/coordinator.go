package incident

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"watchpost/internals/modules/audit"
	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/notification/provider"
	"watchpost/internals/modules/status"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Store interface {
	CreateIfNoneOpen(ctx context.Context, monitorID, workspaceID uuid.UUID, cause string) (uuid.UUID, bool, error)
	ResolveOpen(ctx context.Context, monitorID uuid.UUID) (uuid.UUID, bool, error)
}

type AggregateCache interface {
	GetAggregate(ctx context.Context, monitorID uuid.UUID) (status.AggregateStatus, bool, error)
	SetAggregate(ctx context.Context, monitorID uuid.UUID, agg status.AggregateStatus) error
}

type StatusWriter interface {
	UpdateStatusProjection(ctx context.Context, monitorID uuid.UUID, agg status.AggregateStatus) error
}

type Notifier interface {
	Enqueue(e provider.Event)
}

type Auditor interface {
	Record(kind audit.EventKind, monitorID uuid.UUID, metadata map[string]string)
}

// Coordinator turns aggregate status transitions into incident rows and
// notification events. Transitions for one monitor are serialized under
// a per-monitor lock, and the SQL itself is conditional on the current
// incident state, so a duplicated or replayed transition converges to
// the same row instead of a second incident.
type Coordinator struct {
	store    Store
	cache    AggregateCache
	statuses StatusWriter
	notifier Notifier
	auditor  Auditor

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex

	// failures counts transitions the store refused after retries.
	// Surfaced on the health endpoint.
	failures atomic.Int64

	retryDelay time.Duration
	logger     *zerolog.Logger
}

func NewCoordinator(store Store, cache AggregateCache, statuses StatusWriter, notifier Notifier, auditor Auditor, logger *zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:      store,
		cache:      cache,
		statuses:   statuses,
		notifier:   notifier,
		auditor:    auditor,
		locks:      make(map[uuid.UUID]*sync.Mutex),
		retryDelay: 50 * time.Millisecond,
		logger:     logger,
	}
}

func (c *Coordinator) Failures() int64 {
	return c.failures.Load()
}

// Apply processes one evaluated aggregate for a monitor. Persistence
// comes first: the incident row is written before any notification is
// enqueued, so a crash between the two loses at most a notification,
// never an incident.
func (c *Coordinator) Apply(ctx context.Context, m monitor.Monitor, next status.AggregateStatus) error {
	if next == status.AggregateUnknown {
		return nil
	}

	lock := c.lockFor(m.ID)
	lock.Lock()
	defer lock.Unlock()

	prev, havePrev, err := c.cache.GetAggregate(ctx, m.ID)
	if err != nil {
		// treat the snapshot as missing, conditional SQL still dedupes
		c.logger.Warn().Err(err).Str("monitor_id", m.ID.String()).Msg("failed to read aggregate snapshot")
		havePrev = false
	}
	if havePrev && prev == next {
		return nil
	}

	switch next {
	case status.AggregateError:
		if err := c.applyError(ctx, m); err != nil {
			c.recordFailure(m.ID, "incident.create", err)
			return err
		}
	case status.AggregateActive:
		if err := c.applyActive(ctx, m); err != nil {
			c.recordFailure(m.ID, "incident.resolve", err)
			return err
		}
	case status.AggregateDegraded:
		// degraded never opens an incident, it only notifies
		c.auditor.Record(audit.MonitorDegraded, m.ID, nil)
		c.notifier.Enqueue(c.event(m, provider.EventMonitorDegraded, next))
	}

	if err := c.cache.SetAggregate(ctx, m.ID, next); err != nil {
		c.logger.Error().Err(err).Str("monitor_id", m.ID.String()).Msg("failed to store aggregate snapshot")
	}
	if err := c.statuses.UpdateStatusProjection(ctx, m.ID, next); err != nil {
		c.logger.Error().Err(err).Str("monitor_id", m.ID.String()).Msg("failed to update status projection")
	}
	return nil
}

func (c *Coordinator) applyError(ctx context.Context, m monitor.Monitor) error {
	var (
		incidentID uuid.UUID
		created    bool
	)
	err := c.withRetry(ctx, func() error {
		var err error
		incidentID, created, err = c.store.CreateIfNoneOpen(ctx, m.ID, m.WorkspaceID, "all regions failing")
		return err
	})
	if err != nil {
		c.logger.Error().Err(err).Str("monitor_id", m.ID.String()).Msg("failed to open incident")
		return err
	}
	if !created {
		// an incident is already open, nothing new to announce
		return nil
	}

	c.auditor.Record(audit.MonitorFailed, m.ID, nil)
	c.auditor.Record(audit.IncidentCreated, m.ID, map[string]string{
		"incident_id": incidentID.String(),
	})
	c.notifier.Enqueue(c.event(m, provider.EventIncidentCreated, status.AggregateError))
	return nil
}

func (c *Coordinator) applyActive(ctx context.Context, m monitor.Monitor) error {
	var (
		incidentID uuid.UUID
		resolved   bool
	)
	err := c.withRetry(ctx, func() error {
		var err error
		incidentID, resolved, err = c.store.ResolveOpen(ctx, m.ID)
		return err
	})
	if err != nil {
		c.logger.Error().Err(err).Str("monitor_id", m.ID.String()).Msg("failed to resolve incident")
		return err
	}

	c.auditor.Record(audit.MonitorRecovered, m.ID, nil)
	if !resolved {
		// recovery without an open incident, e.g. degraded -> active
		return nil
	}

	c.auditor.Record(audit.IncidentResolved, m.ID, map[string]string{
		"incident_id": incidentID.String(),
	})
	c.notifier.Enqueue(c.event(m, provider.EventIncidentResolved, status.AggregateActive))
	return nil
}

// recordFailure lands an exhausted persistence retry in the audit log
// and on the failure counter the health endpoint reports.
func (c *Coordinator) recordFailure(monitorID uuid.UUID, op string, err error) {
	c.failures.Add(1)
	c.auditor.Record(audit.EngineDegraded, monitorID, map[string]string{
		"op":    op,
		"error": err.Error(),
	})
}

func (c *Coordinator) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		select {
		case <-time.After(c.retryDelay << attempt):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (c *Coordinator) event(m monitor.Monitor, kind provider.EventKind, agg status.AggregateStatus) provider.Event {
	return provider.Event{
		Kind:        kind,
		MonitorID:   m.ID,
		MonitorName: m.Name,
		Url:         m.Url,
		Status:      agg,
		At:          time.Now(),
	}
}

func (c *Coordinator) lockFor(monitorID uuid.UUID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[monitorID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[monitorID] = lock
	}
	return lock
}
