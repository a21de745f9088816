package monitor

import (
	"context"

	"watchpost/internals/modules/status"
	"watchpost/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	monitorRepo *Repository
	cache       Cache
	logger      *zerolog.Logger
}

func NewService(monitorRepo *Repository, cache Cache, logger *zerolog.Logger) *Service {
	return &Service{
		monitorRepo: monitorRepo,
		cache:       cache,
		logger:      logger,
	}
}

func (s *Service) CreateMonitor(ctx context.Context, cmd CreateMonitorCmd) (uuid.UUID, error) {
	monitorID, err := s.monitorRepo.Create(ctx, cmd)
	if err != nil {
		return uuid.Nil, err
	}
	return monitorID, nil
}

func (s *Service) GetMonitor(ctx context.Context, workspaceID, monitorID uuid.UUID) (Monitor, error) {
	// cache-aside: serve the cached copy when it belongs to the caller
	m, exists := s.cache.GetMonitor(ctx, monitorID)
	if exists {
		if m.WorkspaceID == workspaceID {
			return m, nil
		}
		return Monitor{}, &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      "service.monitor.get",
			Message: "resource not found",
		}
	}

	mDB, err := s.monitorRepo.Get(ctx, workspaceID, monitorID)
	if err != nil {
		return Monitor{}, err
	}
	_ = s.cache.SetMonitor(ctx, mDB)

	return mDB, nil
}

// LoadMonitor is the engine-side read: no workspace check, the caller is
// the result pipeline which only knows monitor ids.
func (s *Service) LoadMonitor(ctx context.Context, monitorID uuid.UUID) (Monitor, error) {
	m, exists := s.cache.GetMonitor(ctx, monitorID)
	if exists {
		return m, nil
	}

	mDB, err := s.monitorRepo.GetByID(ctx, monitorID)
	if err != nil {
		return Monitor{}, err
	}
	_ = s.cache.SetMonitor(ctx, mDB)

	return mDB, nil
}

func (s *Service) GetAllMonitors(ctx context.Context, workspaceID uuid.UUID, limit, offset int32) ([]Monitor, error) {
	return s.monitorRepo.GetAll(ctx, workspaceID, limit, offset)
}

func (s *Service) UpdateMonitor(ctx context.Context, workspaceID, monitorID uuid.UUID, cmd UpdateMonitorCmd) error {
	if err := s.monitorRepo.Update(ctx, workspaceID, monitorID, cmd); err != nil {
		return err
	}
	// drop the stale cached copy, next load repopulates
	_ = s.cache.DelMonitor(ctx, monitorID)
	return nil
}

// SetActive pauses or resumes a monitor. Pausing clears the derived
// region/aggregate state so the monitor reads as unknown, but it never
// touches incidents: an open incident stays open until real data or an
// operator resolves it.
func (s *Service) SetActive(ctx context.Context, workspaceID, monitorID uuid.UUID, active bool) error {
	m, err := s.monitorRepo.Get(ctx, workspaceID, monitorID)
	if err != nil {
		return err
	}
	if m.Active == active {
		return &apperror.Error{
			Kind:    apperror.Conflict,
			Op:      "service.monitor.set_active",
			Message: "monitor already in requested state",
		}
	}

	ok, err := s.monitorRepo.SetActive(ctx, workspaceID, monitorID, active)
	if err != nil {
		return err
	}
	if !ok {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      "service.monitor.set_active",
			Message: "resource not found",
		}
	}

	_ = s.cache.DelMonitor(ctx, monitorID)
	if !active {
		_ = s.cache.ClearRegionStatuses(ctx, monitorID)
		_ = s.cache.DelAggregate(ctx, monitorID)
		if err := s.monitorRepo.UpdateStatus(ctx, monitorID, status.AggregateUnknown); err != nil {
			s.logger.Error().Err(err).Msg("failed to reset status projection on pause")
		}
	}
	return nil
}

// UpdateStatusProjection writes the denormalized status column and drops
// the cached monitor so engine reads see the fresh value.
func (s *Service) UpdateStatusProjection(ctx context.Context, monitorID uuid.UUID, agg status.AggregateStatus) error {
	if err := s.monitorRepo.UpdateStatus(ctx, monitorID, agg); err != nil {
		return err
	}
	_ = s.cache.DelMonitor(ctx, monitorID)
	return nil
}
