package incident

import (
	"context"
	"errors"

	"watchpost/pkg/apperror"
	"watchpost/pkg/db"
	"watchpost/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

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

const incidentColumns = `id, monitor_id, workspace_id, state, cause, screenshot_url,
	acknowledged_by, acknowledged_at, started_at, resolved_at`

// CreateIfNoneOpen inserts a new open incident unless one already
// exists for the monitor. The WHERE NOT EXISTS guard makes duplicate
// transition deliveries collapse into a single row.
func (r *Repository) CreateIfNoneOpen(ctx context.Context, monitorID, workspaceID uuid.UUID, cause string) (uuid.UUID, bool, error) {
	const op string = "repo.incident.create_if_none_open"

	id := uuid.New()
	tag, err := r.db.Exec(ctx, `
		INSERT INTO incidents (id, monitor_id, workspace_id, state, cause, started_at)
		SELECT $1, $2, $3, 'open', $4, now()
		WHERE NOT EXISTS (
			SELECT 1 FROM incidents WHERE monitor_id = $2 AND resolved_at IS NULL
		)`,
		id, monitorID, workspaceID, cause,
	)
	if err != nil {
		return uuid.Nil, false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return id, tag.RowsAffected() > 0, nil
}

// ResolveOpen closes whatever incident is open for the monitor. A
// second delivery of the same recovery finds nothing open and reports
// resolved=false without error.
func (r *Repository) ResolveOpen(ctx context.Context, monitorID uuid.UUID) (uuid.UUID, bool, error) {
	const op string = "repo.incident.resolve_open"

	row := r.db.QueryRow(ctx, `
		UPDATE incidents
		SET state = 'resolved', resolved_at = now()
		WHERE monitor_id = $1 AND resolved_at IS NULL
		RETURNING id`,
		monitorID)

	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		if isNoRows(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return id, true, nil
}

func (r *Repository) Get(ctx context.Context, workspaceID, incidentID uuid.UUID) (Incident, error) {
	const op string = "repo.incident.get"

	row := r.db.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE id = $1 AND workspace_id = $2`,
		incidentID, workspaceID)

	inc, err := scanIncident(row)
	if err != nil {
		return Incident{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return inc, nil
}

func (r *Repository) GetOpenByMonitor(ctx context.Context, monitorID uuid.UUID) (Incident, bool, error) {
	const op string = "repo.incident.get_open_by_monitor"

	row := r.db.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents
		 WHERE monitor_id = $1 AND resolved_at IS NULL`,
		monitorID)

	inc, err := scanIncident(row)
	if err != nil {
		if isNoRows(err) {
			return Incident{}, false, nil
		}
		return Incident{}, false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return inc, true, nil
}

func (r *Repository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, openOnly bool, limit, offset int32) ([]Incident, error) {
	const op string = "repo.incident.list_by_workspace"

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE workspace_id = $1`
	if openOnly {
		query += ` AND resolved_at IS NULL`
	}
	query += ` ORDER BY started_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, workspaceID, limit, offset)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	incidents := make([]Incident, 0)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		incidents = append(incidents, inc)
	}
	return incidents, rows.Err()
}

// Acknowledge marks an open incident as seen by an operator. Resolved
// incidents cannot be acknowledged.
func (r *Repository) Acknowledge(ctx context.Context, workspaceID, incidentID uuid.UUID, actor string) error {
	const op string = "repo.incident.acknowledge"

	tag, err := r.db.Exec(ctx, `
		UPDATE incidents
		SET state = 'acknowledged', acknowledged_by = $3, acknowledged_at = now()
		WHERE id = $1 AND workspace_id = $2 AND resolved_at IS NULL`,
		incidentID, workspaceID, actor)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.Conflict,
			Op:      op,
			Message: "incident not open",
		}
	}
	return nil
}

// ResolveByID is the operator path, used when a paused monitor holds an
// incident open with no data flowing to close it.
func (r *Repository) ResolveByID(ctx context.Context, workspaceID, incidentID uuid.UUID) error {
	const op string = "repo.incident.resolve_by_id"

	tag, err := r.db.Exec(ctx, `
		UPDATE incidents
		SET state = 'resolved', resolved_at = now()
		WHERE id = $1 AND workspace_id = $2 AND resolved_at IS NULL`,
		incidentID, workspaceID)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.Conflict,
			Op:      op,
			Message: "incident not open",
		}
	}
	return nil
}

func (r *Repository) AttachScreenshot(ctx context.Context, incidentID uuid.UUID, url string) error {
	const op string = "repo.incident.attach_screenshot"

	tag, err := r.db.Exec(ctx,
		`UPDATE incidents SET screenshot_url = $2 WHERE id = $1`,
		incidentID, url)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (Incident, error) {
	var (
		inc   Incident
		state string
	)
	err := row.Scan(&inc.ID, &inc.MonitorID, &inc.WorkspaceID, &state, &inc.Cause,
		&inc.ScreenshotURL, &inc.AcknowledgedBy, &inc.AcknowledgedAt,
		&inc.StartedAt, &inc.ResolvedAt)
	if err != nil {
		return Incident{}, err
	}
	inc.State = State(state)
	return inc, nil
}
