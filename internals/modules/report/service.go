package report

import (
	"context"

	"watchpost/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	reportRepo *Repository
	logger     *zerolog.Logger
}

func NewService(reportRepo *Repository, logger *zerolog.Logger) *Service {
	return &Service{
		reportRepo: reportRepo,
		logger:     logger,
	}
}

func (s *Service) CreateReport(ctx context.Context, cmd CreateReportCmd) (uuid.UUID, error) {
	if !ValidStatus(cmd.Status) {
		return uuid.Nil, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      "service.report.create",
			Message: "unknown report status " + string(cmd.Status),
		}
	}
	return s.reportRepo.Create(ctx, cmd)
}

func (s *Service) GetReport(ctx context.Context, workspaceID, reportID uuid.UUID) (Report, error) {
	return s.reportRepo.Get(ctx, workspaceID, reportID)
}

func (s *Service) ListReports(ctx context.Context, workspaceID uuid.UUID, limit, offset int32) ([]Report, error) {
	return s.reportRepo.List(ctx, workspaceID, limit, offset)
}

// AddUpdate posts a timeline entry and advances the report status. A
// backwards move is rejected before anything is written.
func (s *Service) AddUpdate(ctx context.Context, workspaceID, reportID uuid.UUID, cmd AddUpdateCmd) error {
	rep, err := s.reportRepo.Get(ctx, workspaceID, reportID)
	if err != nil {
		return err
	}
	if !CanTransition(rep.Status, cmd.Status) {
		return &apperror.Error{
			Kind:    apperror.Conflict,
			Op:      "service.report.add_update",
			Message: "report status cannot move from " + string(rep.Status) + " to " + string(cmd.Status),
		}
	}

	ok, err := s.reportRepo.AdvanceStatus(ctx, reportID, cmd.Status, cmd.Message)
	if err != nil {
		return err
	}
	if !ok {
		return &apperror.Error{
			Kind:    apperror.Conflict,
			Op:      "service.report.add_update",
			Message: "report already resolved",
		}
	}
	return nil
}

// ScheduleMaintenance creates the window plus its public report. The
// report starts at identified so the activator's moves stay forward.
func (s *Service) ScheduleMaintenance(ctx context.Context, cmd CreateMaintenanceCmd) (uuid.UUID, error) {
	if !cmd.EndsAt.After(cmd.StartsAt) {
		return uuid.Nil, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      "service.report.schedule_maintenance",
			Message: "maintenance window must end after it starts",
		}
	}

	reportID, err := s.reportRepo.Create(ctx, CreateReportCmd{
		WorkspaceID: cmd.WorkspaceID,
		Title:       cmd.Title,
		Status:      StatusIdentified,
		Message:     cmd.Message,
		Monitors:    cmd.Monitors,
	})
	if err != nil {
		return uuid.Nil, err
	}

	return s.reportRepo.CreateMaintenance(ctx, cmd.WorkspaceID, reportID, cmd.StartsAt, cmd.EndsAt)
}

func (s *Service) ListMaintenance(ctx context.Context, workspaceID uuid.UUID) ([]MaintenanceWindow, error) {
	return s.reportRepo.ListUpcoming(ctx, workspaceID)
}

func (s *Service) ActiveReports(ctx context.Context, monitorIDs []uuid.UUID) ([]Report, error) {
	return s.reportRepo.ListActive(ctx, monitorIDs)
}
