package report

import (
	"context"
	"time"

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

func (r *Repository) Create(ctx context.Context, cmd CreateReportCmd) (uuid.UUID, error) {
	const op string = "repo.report.create"

	id := uuid.New()
	_, err := r.db.Exec(ctx, `
		INSERT INTO reports (id, workspace_id, title, status)
		VALUES ($1, $2, $3, $4)`,
		id, cmd.WorkspaceID, cmd.Title, string(cmd.Status),
	)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	for _, monitorID := range cmd.Monitors {
		_, err := r.db.Exec(ctx, `
			INSERT INTO report_monitors (report_id, monitor_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			id, monitorID)
		if err != nil {
			return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
		}
	}

	if err := r.insertUpdate(ctx, id, cmd.Status, cmd.Message); err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return id, nil
}

func (r *Repository) Get(ctx context.Context, workspaceID, reportID uuid.UUID) (Report, error) {
	const op string = "repo.report.get"

	row := r.db.QueryRow(ctx, `
		SELECT id, workspace_id, title, status, created_at, updated_at
		FROM reports WHERE id = $1 AND workspace_id = $2`,
		reportID, workspaceID)

	var (
		rep    Report
		status string
	)
	err := row.Scan(&rep.ID, &rep.WorkspaceID, &rep.Title, &status, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return Report{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	rep.Status = Status(status)

	rep.Updates, err = r.updates(ctx, reportID)
	if err != nil {
		return Report{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	rep.Monitors, err = r.monitors(ctx, reportID)
	if err != nil {
		return Report{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return rep, nil
}

func (r *Repository) List(ctx context.Context, workspaceID uuid.UUID, limit, offset int32) ([]Report, error) {
	const op string = "repo.report.list"

	rows, err := r.db.Query(ctx, `
		SELECT id, workspace_id, title, status, created_at, updated_at
		FROM reports WHERE workspace_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		workspaceID, limit, offset)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	reports := make([]Report, 0)
	for rows.Next() {
		var (
			rep    Report
			status string
		)
		if err := rows.Scan(&rep.ID, &rep.WorkspaceID, &rep.Title, &status, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		rep.Status = Status(status)
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// ListActive returns unresolved reports touching any of the monitors.
// The status feed builder is the only caller.
func (r *Repository) ListActive(ctx context.Context, monitorIDs []uuid.UUID) ([]Report, error) {
	const op string = "repo.report.list_active"

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT r.id, r.workspace_id, r.title, r.status, r.created_at, r.updated_at
		FROM reports r
		JOIN report_monitors rm ON rm.report_id = r.id
		WHERE rm.monitor_id = ANY($1) AND r.status != 'resolved'
		ORDER BY r.created_at DESC`,
		monitorIDs)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	reports := make([]Report, 0)
	for rows.Next() {
		var (
			rep    Report
			status string
		)
		if err := rows.Scan(&rep.ID, &rep.WorkspaceID, &rep.Title, &status, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		rep.Status = Status(status)
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// AdvanceStatus moves a report forward and appends the timeline entry in
// one shot. The status guard in SQL keeps concurrent updates forward-only.
func (r *Repository) AdvanceStatus(ctx context.Context, reportID uuid.UUID, to Status, message string) (bool, error) {
	const op string = "repo.report.advance_status"

	tag, err := r.db.Exec(ctx, `
		UPDATE reports SET status = $2, updated_at = now()
		WHERE id = $1 AND status != 'resolved'`,
		reportID, string(to))
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := r.insertUpdate(ctx, reportID, to, message); err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return true, nil
}

func (r *Repository) CreateMaintenance(ctx context.Context, workspaceID, reportID uuid.UUID, startsAt, endsAt time.Time) (uuid.UUID, error) {
	const op string = "repo.report.create_maintenance"

	id := uuid.New()
	_, err := r.db.Exec(ctx, `
		INSERT INTO maintenance_windows (id, workspace_id, report_id, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, workspaceID, reportID, startsAt, endsAt,
	)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return id, nil
}

// DueStarts claims windows whose start time passed. The conditional
// update doubles as the claim, so two activator ticks never double-fire.
func (r *Repository) DueStarts(ctx context.Context, now time.Time) ([]MaintenanceWindow, error) {
	const op string = "repo.report.due_starts"
	return r.claimDue(ctx, op, `
		UPDATE maintenance_windows SET started = true
		WHERE starts_at <= $1 AND started = false
		RETURNING id, workspace_id, report_id, starts_at, ends_at, started, ended`, now)
}

func (r *Repository) DueEnds(ctx context.Context, now time.Time) ([]MaintenanceWindow, error) {
	const op string = "repo.report.due_ends"
	return r.claimDue(ctx, op, `
		UPDATE maintenance_windows SET ended = true
		WHERE ends_at <= $1 AND started = true AND ended = false
		RETURNING id, workspace_id, report_id, starts_at, ends_at, started, ended`, now)
}

// ListUpcoming returns windows that are pending or in progress for the
// given monitors' workspace feed. The report title comes along in the
// same query so the feed builder never fetches reports one by one.
func (r *Repository) ListUpcoming(ctx context.Context, workspaceID uuid.UUID) ([]MaintenanceWindow, error) {
	const op string = "repo.report.list_upcoming"

	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.workspace_id, m.report_id, r.title, m.starts_at, m.ends_at, m.started, m.ended
		FROM maintenance_windows m
		JOIN reports r ON r.id = m.report_id
		WHERE m.workspace_id = $1 AND m.ended = false
		ORDER BY m.starts_at ASC`,
		workspaceID)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	windows := make([]MaintenanceWindow, 0)
	for rows.Next() {
		var w MaintenanceWindow
		if err := rows.Scan(&w.ID, &w.WorkspaceID, &w.ReportID, &w.Title, &w.StartsAt, &w.EndsAt, &w.Started, &w.Ended); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (r *Repository) claimDue(ctx context.Context, op, query string, now time.Time) ([]MaintenanceWindow, error) {
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	return scanWindows(rows)
}

func scanWindows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]MaintenanceWindow, error) {
	windows := make([]MaintenanceWindow, 0)
	for rows.Next() {
		var w MaintenanceWindow
		if err := rows.Scan(&w.ID, &w.WorkspaceID, &w.ReportID, &w.StartsAt, &w.EndsAt, &w.Started, &w.Ended); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (r *Repository) insertUpdate(ctx context.Context, reportID uuid.UUID, status Status, message string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO report_updates (id, report_id, status, message)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), reportID, string(status), message)
	return err
}

func (r *Repository) updates(ctx context.Context, reportID uuid.UUID) ([]Update, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, report_id, status, message, created_at
		FROM report_updates WHERE report_id = $1 ORDER BY created_at ASC`,
		reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates := make([]Update, 0)
	for rows.Next() {
		var (
			u      Update
			status string
		)
		if err := rows.Scan(&u.ID, &u.ReportID, &status, &u.Message, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Status = Status(status)
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

func (r *Repository) monitors(ctx context.Context, reportID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT monitor_id FROM report_monitors WHERE report_id = $1`, reportID)
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
