package report

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Activator drives maintenance windows on a minute tick: windows that
// just opened move their report to monitoring, windows that just closed
// move it to resolved. Claiming is done in SQL so overlapping ticks are
// harmless.
type Activator struct {
	repo   *Repository
	cron   *cron.Cron
	logger *zerolog.Logger
}

func NewActivator(repo *Repository, logger *zerolog.Logger) *Activator {
	return &Activator{
		repo:   repo,
		cron:   cron.New(),
		logger: logger,
	}
}

func (a *Activator) Start() error {
	_, err := a.cron.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		a.Tick(ctx, time.Now())
	})
	if err != nil {
		return err
	}
	a.cron.Start()
	return nil
}

func (a *Activator) Stop() {
	<-a.cron.Stop().Done()
}

func (a *Activator) Tick(ctx context.Context, now time.Time) {
	started, err := a.repo.DueStarts(ctx, now)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to claim starting maintenance windows")
	}
	for _, w := range started {
		if _, err := a.repo.AdvanceStatus(ctx, w.ReportID, StatusMonitoring, "Maintenance window has started."); err != nil {
			a.logger.Error().Err(err).Str("report_id", w.ReportID.String()).Msg("failed to advance maintenance report")
		}
	}

	ended, err := a.repo.DueEnds(ctx, now)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to claim ending maintenance windows")
	}
	for _, w := range ended {
		if _, err := a.repo.AdvanceStatus(ctx, w.ReportID, StatusResolved, "Maintenance window has ended."); err != nil {
			a.logger.Error().Err(err).Str("report_id", w.ReportID.String()).Msg("failed to resolve maintenance report")
		}
	}
}
