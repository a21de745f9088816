package notification

import (
	"context"
	"encoding/json"

	"watchpost/internals/modules/notification/provider"
	"watchpost/pkg/apperror"
	"watchpost/pkg/db"
	"watchpost/pkg/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Repository struct {
	db     db.DBTX
	logger *zerolog.Logger
}

func NewRepository(dbExecutor db.DBTX, logger *zerolog.Logger) *Repository {
	return &Repository{
		db:     dbExecutor,
		logger: logger,
	}
}

const channelColumns = `c.id, c.workspace_id, c.kind, c.name, c.config, c.last_error, c.created_at, c.updated_at`

func (r *Repository) Create(ctx context.Context, cmd CreateChannelCmd) (uuid.UUID, error) {
	const op string = "repo.notification.create"

	id := uuid.New()
	_, err := r.db.Exec(ctx, `
		INSERT INTO notification_channels (id, workspace_id, kind, name, config)
		VALUES ($1, $2, $3, $4, $5)`,
		id, cmd.WorkspaceID, string(cmd.Kind), cmd.Name, []byte(cmd.Config),
	)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	if err := r.replaceSubscriptions(ctx, id, cmd.Monitors); err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return id, nil
}

func (r *Repository) Get(ctx context.Context, workspaceID, channelID uuid.UUID) (Channel, error) {
	const op string = "repo.notification.get"

	row := r.db.QueryRow(ctx,
		`SELECT `+channelColumns+` FROM notification_channels c
		 WHERE c.id = $1 AND c.workspace_id = $2`,
		channelID, workspaceID)

	ch, err := scanChannel(row)
	if err != nil {
		return Channel{}, utils.WrapRepoError(op, err, true, r.logger)
	}

	ch.Monitors, err = r.subscriptions(ctx, channelID)
	if err != nil {
		return Channel{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return ch, nil
}

func (r *Repository) GetAll(ctx context.Context, workspaceID uuid.UUID) ([]Channel, error) {
	const op string = "repo.notification.get_all"

	rows, err := r.db.Query(ctx,
		`SELECT `+channelColumns+` FROM notification_channels c
		 WHERE c.workspace_id = $1 ORDER BY c.created_at DESC`,
		workspaceID)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	channels := make([]Channel, 0)
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return channels, nil
}

// ListForMonitor returns every channel subscribed to the monitor. The
// dispatcher fans one event out across this set.
func (r *Repository) ListForMonitor(ctx context.Context, monitorID uuid.UUID) ([]Channel, error) {
	const op string = "repo.notification.list_for_monitor"

	rows, err := r.db.Query(ctx, `
		SELECT `+channelColumns+`
		FROM notification_channels c
		JOIN channel_monitors cm ON cm.channel_id = c.id
		WHERE cm.monitor_id = $1`,
		monitorID)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	channels := make([]Channel, 0)
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (r *Repository) Update(ctx context.Context, workspaceID, channelID uuid.UUID, cmd UpdateChannelCmd) error {
	const op string = "repo.notification.update"

	tag, err := r.db.Exec(ctx, `
		UPDATE notification_channels
		SET name = $3, config = $4, updated_at = now()
		WHERE id = $1 AND workspace_id = $2`,
		channelID, workspaceID, cmd.Name, []byte(cmd.Config),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "resource not found",
		}
	}

	if err := r.replaceSubscriptions(ctx, channelID, cmd.Monitors); err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, workspaceID, channelID uuid.UUID) error {
	const op string = "repo.notification.delete"

	tag, err := r.db.Exec(ctx,
		`DELETE FROM notification_channels WHERE id = $1 AND workspace_id = $2`,
		channelID, workspaceID)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "resource not found",
		}
	}
	return nil
}

// RecordDelivery persists the latest outcome on the channel row so the
// dashboard can surface broken channels.
func (r *Repository) RecordDelivery(ctx context.Context, channelID uuid.UUID, deliveryErr string) error {
	const op string = "repo.notification.record_delivery"

	var lastError *string
	if deliveryErr != "" {
		lastError = &deliveryErr
	}
	_, err := r.db.Exec(ctx, `
		UPDATE notification_channels
		SET last_error = $2, last_delivery_at = now(), updated_at = now()
		WHERE id = $1`,
		channelID, lastError)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) replaceSubscriptions(ctx context.Context, channelID uuid.UUID, monitors []uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM channel_monitors WHERE channel_id = $1`, channelID)
	if err != nil {
		return err
	}
	for _, monitorID := range monitors {
		_, err := r.db.Exec(ctx, `
			INSERT INTO channel_monitors (channel_id, monitor_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			channelID, monitorID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) subscriptions(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT monitor_id FROM channel_monitors WHERE channel_id = $1`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (Channel, error) {
	var (
		ch   Channel
		kind string
		raw  []byte
	)
	err := row.Scan(&ch.ID, &ch.WorkspaceID, &kind, &ch.Name, &raw,
		&ch.LastError, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return Channel{}, err
	}
	ch.Kind = provider.Kind(kind)
	ch.Config = json.RawMessage(raw)
	return ch, nil
}
