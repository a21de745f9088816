package incident

import (
	"context"

	"watchpost/internals/modules/audit"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ServiceStore is the repository surface the operator API needs.
// Implemented by Repository.
type ServiceStore interface {
	Get(ctx context.Context, workspaceID, incidentID uuid.UUID) (Incident, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, openOnly bool, limit, offset int32) ([]Incident, error)
	Acknowledge(ctx context.Context, workspaceID, incidentID uuid.UUID, actor string) error
	ResolveByID(ctx context.Context, workspaceID, incidentID uuid.UUID) error
	AttachScreenshot(ctx context.Context, incidentID uuid.UUID, url string) error
}

// SnapshotCache clears the cached aggregate for a monitor. Implemented
// by pkg/redisstore.
type SnapshotCache interface {
	DelAggregate(ctx context.Context, monitorID uuid.UUID) error
}

type Service struct {
	incidentRepo ServiceStore
	cache        SnapshotCache
	auditor      Auditor
	logger       *zerolog.Logger
}

func NewService(incidentRepo ServiceStore, cache SnapshotCache, auditor Auditor, logger *zerolog.Logger) *Service {
	return &Service{
		incidentRepo: incidentRepo,
		cache:        cache,
		auditor:      auditor,
		logger:       logger,
	}
}

func (s *Service) GetIncident(ctx context.Context, workspaceID, incidentID uuid.UUID) (Incident, error) {
	return s.incidentRepo.Get(ctx, workspaceID, incidentID)
}

func (s *Service) ListIncidents(ctx context.Context, workspaceID uuid.UUID, openOnly bool, limit, offset int32) ([]Incident, error) {
	return s.incidentRepo.ListByWorkspace(ctx, workspaceID, openOnly, limit, offset)
}

func (s *Service) Acknowledge(ctx context.Context, workspaceID, incidentID uuid.UUID, actor string) error {
	return s.incidentRepo.Acknowledge(ctx, workspaceID, incidentID, actor)
}

// ResolveManual closes an incident by operator action, the escape hatch
// for incidents held open on paused monitors.
func (s *Service) ResolveManual(ctx context.Context, workspaceID, incidentID uuid.UUID) error {
	inc, err := s.incidentRepo.Get(ctx, workspaceID, incidentID)
	if err != nil {
		return err
	}
	if err := s.incidentRepo.ResolveByID(ctx, workspaceID, incidentID); err != nil {
		return err
	}

	// The aggregate snapshot must not survive the resolve: if the
	// monitor is still failing, its next error result has to look like
	// a fresh transition so a new incident opens.
	if err := s.cache.DelAggregate(ctx, inc.MonitorID); err != nil {
		s.logger.Warn().Err(err).
			Str("monitor_id", inc.MonitorID.String()).
			Msg("failed to clear aggregate snapshot after manual resolve")
	}

	s.auditor.Record(audit.IncidentResolved, inc.MonitorID, map[string]string{
		"incident_id": incidentID.String(),
		"resolved_by": "operator",
	})
	return nil
}

func (s *Service) AttachScreenshot(ctx context.Context, workspaceID, incidentID uuid.UUID, url string) error {
	// ownership check before the blind update
	if _, err := s.incidentRepo.Get(ctx, workspaceID, incidentID); err != nil {
		return err
	}
	return s.incidentRepo.AttachScreenshot(ctx, incidentID, url)
}
