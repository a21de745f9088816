package notification

import (
	"context"

	"watchpost/internals/modules/notification/provider"
	"watchpost/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	channelRepo *Repository
	registry    *provider.Registry
	logger      *zerolog.Logger
}

func NewService(channelRepo *Repository, registry *provider.Registry, logger *zerolog.Logger) *Service {
	return &Service{
		channelRepo: channelRepo,
		registry:    registry,
		logger:      logger,
	}
}

// CreateChannel validates the provider config before anything is
// stored. A channel that saves is a channel that can send.
func (s *Service) CreateChannel(ctx context.Context, cmd CreateChannelCmd) (uuid.UUID, error) {
	p, ok := s.registry.Get(cmd.Kind)
	if !ok {
		return uuid.Nil, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      "service.notification.create",
			Message: "unknown provider kind " + string(cmd.Kind),
		}
	}
	if err := p.ValidateConfig(cmd.Config); err != nil {
		return uuid.Nil, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      "service.notification.create",
			Err:     err,
			Message: err.Error(),
		}
	}
	return s.channelRepo.Create(ctx, cmd)
}

func (s *Service) GetChannel(ctx context.Context, workspaceID, channelID uuid.UUID) (Channel, error) {
	return s.channelRepo.Get(ctx, workspaceID, channelID)
}

func (s *Service) GetAllChannels(ctx context.Context, workspaceID uuid.UUID) ([]Channel, error) {
	return s.channelRepo.GetAll(ctx, workspaceID)
}

func (s *Service) UpdateChannel(ctx context.Context, workspaceID, channelID uuid.UUID, cmd UpdateChannelCmd) error {
	ch, err := s.channelRepo.Get(ctx, workspaceID, channelID)
	if err != nil {
		return err
	}

	// kind is immutable, so validate against the stored provider
	p, ok := s.registry.Get(ch.Kind)
	if !ok {
		return &apperror.Error{
			Kind:    apperror.Internal,
			Op:      "service.notification.update",
			Message: "stored channel has unknown provider kind",
		}
	}
	if err := p.ValidateConfig(cmd.Config); err != nil {
		return &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      "service.notification.update",
			Err:     err,
			Message: err.Error(),
		}
	}
	return s.channelRepo.Update(ctx, workspaceID, channelID, cmd)
}

func (s *Service) DeleteChannel(ctx context.Context, workspaceID, channelID uuid.UUID) error {
	return s.channelRepo.Delete(ctx, workspaceID, channelID)
}

// TestChannel fires a synthetic event through the channel's real
// transport path and reports the outcome to the caller.
func (s *Service) TestChannel(ctx context.Context, workspaceID, channelID uuid.UUID) error {
	ch, err := s.channelRepo.Get(ctx, workspaceID, channelID)
	if err != nil {
		return err
	}

	p, ok := s.registry.Get(ch.Kind)
	if !ok {
		return &apperror.Error{
			Kind:    apperror.Internal,
			Op:      "service.notification.test",
			Message: "stored channel has unknown provider kind",
		}
	}

	if err := p.SendTest(ctx, ch.Config); err != nil {
		_ = s.channelRepo.RecordDelivery(ctx, channelID, err.Error())
		return &apperror.Error{
			Kind:    apperror.Dependency,
			Op:      "service.notification.test",
			Err:     err,
			Message: err.Error(),
		}
	}

	_ = s.channelRepo.RecordDelivery(ctx, channelID, "")
	return nil
}
