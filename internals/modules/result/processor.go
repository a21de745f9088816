package result

import (
	"context"
	"errors"
	"sync"
	"time"

	"watchpost/config"
	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/status"
	"watchpost/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type MonitorLoader interface {
	LoadMonitor(ctx context.Context, monitorID uuid.UUID) (monitor.Monitor, error)
}

type RegionStore interface {
	StoreRegionStatus(ctx context.Context, monitorID uuid.UUID, region status.Region, rs status.RegionStatus) error
	GetRegionStatuses(ctx context.Context, monitorID uuid.UUID) (map[status.Region]status.RegionStatus, error)
}

type TransitionApplier interface {
	Apply(ctx context.Context, m monitor.Monitor, next status.AggregateStatus) error
}

// Processor is the ingestion pipeline: check results come in over HTTP
// and the broker, get evaluated against the monitor's config, and the
// resulting aggregate is handed to the incident coordinator. A worker
// pool keeps slow transitions on one monitor from backing up the rest.
type Processor struct {
	ctx         context.Context
	results     chan status.CheckResult
	monitors    MonitorLoader
	regions     RegionStore
	coordinator TransitionApplier

	workerCount int
	wg          sync.WaitGroup
	logger      *zerolog.Logger
}

func NewProcessor(ctx context.Context, monitors MonitorLoader, regions RegionStore, coordinator TransitionApplier, cfg *config.ResultConfig, logger *zerolog.Logger) *Processor {
	return &Processor{
		ctx:         ctx,
		results:     make(chan status.CheckResult, cfg.ChannelSize),
		monitors:    monitors,
		regions:     regions,
		coordinator: coordinator,
		workerCount: cfg.WorkerCount,
		logger:      logger,
	}
}

func (p *Processor) Run() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Submit enqueues one check result for evaluation. Blocks when the
// pipeline is saturated so the broker consumer applies backpressure
// instead of dropping results.
func (p *Processor) Submit(res status.CheckResult) {
	select {
	case p.results <- res:
	case <-p.ctx.Done():
		p.logger.Warn().
			Str("monitor_id", res.MonitorID.String()).
			Str("region", string(res.Region)).
			Msg("processor shutting down, result dropped")
	}
}

// handleTimeout bounds one result's trip through redis and postgres.
const handleTimeout = 30 * time.Second

func (p *Processor) worker() {
	defer p.wg.Done()
	for res := range p.results {
		// queued results must survive engine shutdown, so each one gets
		// its own deadline instead of p.ctx
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		err := p.Handle(ctx, res)
		cancel()
		if err != nil {
			p.logger.Error().Err(err).
				Str("monitor_id", res.MonitorID.String()).
				Str("region", string(res.Region)).
				Msg("failed to process check result")
		}
	}
}

// Handle runs one result through evaluate -> snapshot -> aggregate ->
// coordinate.
func (p *Processor) Handle(ctx context.Context, res status.CheckResult) error {
	m, err := p.monitors.LoadMonitor(ctx, res.MonitorID)
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) && appErr.Kind == apperror.NotFound {
			// result for a deleted monitor, common after cleanup
			p.logger.Warn().
				Str("monitor_id", res.MonitorID.String()).
				Msg("check result for unknown monitor rejected")
			return nil
		}
		return err
	}

	if !m.Active {
		// paused monitors produce no evaluations even if stale results
		// are still in flight
		return nil
	}

	rs := status.EvaluateRegion(m.DegradedAfter(), m.Assertions, res)
	if err := p.regions.StoreRegionStatus(ctx, m.ID, res.Region, rs); err != nil {
		return err
	}

	regions, err := p.regions.GetRegionStatuses(ctx, m.ID)
	if err != nil {
		return err
	}

	agg := status.Aggregate(m.Active, regions)
	return p.coordinator.Apply(ctx, m, agg)
}

// Close stops accepting results and drains in-flight work.
func (p *Processor) Close() {
	close(p.results)
	p.wg.Wait()
}
