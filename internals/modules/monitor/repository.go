package monitor

import (
	"context"
	"encoding/json"

	"watchpost/internals/modules/status"
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

const monitorColumns = `id, workspace_id, name, job_type, url, regions, assertions,
	degraded_after_ms, timeout_ms, active, status, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, cmd CreateMonitorCmd) (uuid.UUID, error) {
	const op string = "repo.monitor.create"

	assertions, err := json.Marshal(cmd.Assertions)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	id := uuid.New()
	_, err = r.db.Exec(ctx, `
		INSERT INTO monitors (id, workspace_id, name, job_type, url, regions, assertions,
			degraded_after_ms, timeout_ms, active, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true, 'unknown')`,
		id, cmd.WorkspaceID, cmd.Name, string(cmd.JobType), cmd.Url,
		regionsToStrings(cmd.Regions), assertions, cmd.DegradedAfterMs, cmd.TimeoutMs,
	)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, monitorID uuid.UUID) (Monitor, error) {
	const op string = "repo.monitor.get_by_id"

	row := r.db.QueryRow(ctx,
		`SELECT `+monitorColumns+` FROM monitors WHERE id = $1`, monitorID)

	m, err := scanMonitor(row)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return m, nil
}

func (r *Repository) Get(ctx context.Context, workspaceID, monitorID uuid.UUID) (Monitor, error) {
	const op string = "repo.monitor.get"

	row := r.db.QueryRow(ctx,
		`SELECT `+monitorColumns+` FROM monitors WHERE id = $1 AND workspace_id = $2`,
		monitorID, workspaceID)

	m, err := scanMonitor(row)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return m, nil
}

func (r *Repository) GetAll(ctx context.Context, workspaceID uuid.UUID, limit, offset int32) ([]Monitor, error) {
	const op string = "repo.monitor.get_all"

	rows, err := r.db.Query(ctx,
		`SELECT `+monitorColumns+` FROM monitors
		 WHERE workspace_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		workspaceID, limit, offset)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	monitors := make([]Monitor, 0)
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		monitors = append(monitors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return monitors, nil
}

func (r *Repository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Monitor, error) {
	const op string = "repo.monitor.get_by_ids"

	rows, err := r.db.Query(ctx,
		`SELECT `+monitorColumns+` FROM monitors WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	monitors := make([]Monitor, 0, len(ids))
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		monitors = append(monitors, m)
	}
	return monitors, rows.Err()
}

func (r *Repository) Update(ctx context.Context, workspaceID, monitorID uuid.UUID, cmd UpdateMonitorCmd) error {
	const op string = "repo.monitor.update"

	assertions, err := json.Marshal(cmd.Assertions)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE monitors
		SET name = $3, url = $4, regions = $5, assertions = $6,
			degraded_after_ms = $7, timeout_ms = $8, updated_at = now()
		WHERE id = $1 AND workspace_id = $2`,
		monitorID, workspaceID, cmd.Name, cmd.Url, regionsToStrings(cmd.Regions),
		assertions, cmd.DegradedAfterMs, cmd.TimeoutMs,
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
	return nil
}

func (r *Repository) SetActive(ctx context.Context, workspaceID, monitorID uuid.UUID, active bool) (bool, error) {
	const op string = "repo.monitor.set_active"

	tag, err := r.db.Exec(ctx, `
		UPDATE monitors SET active = $3, updated_at = now()
		WHERE id = $1 AND workspace_id = $2`,
		monitorID, workspaceID, active)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateStatus writes the cached status projection. Only the incident
// coordinator path calls this; handlers never touch the column.
func (r *Repository) UpdateStatus(ctx context.Context, monitorID uuid.UUID, agg status.AggregateStatus) error {
	const op string = "repo.monitor.update_status"

	_, err := r.db.Exec(ctx,
		`UPDATE monitors SET status = $2, updated_at = now() WHERE id = $1`,
		monitorID, string(agg))
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMonitor(row rowScanner) (Monitor, error) {
	var (
		m           Monitor
		jobType     string
		aggStatus   string
		regions     []string
		rawAsserted []byte
	)

	err := row.Scan(&m.ID, &m.WorkspaceID, &m.Name, &jobType, &m.Url, &regions,
		&rawAsserted, &m.DegradedAfterMs, &m.TimeoutMs, &m.Active, &aggStatus,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return Monitor{}, err
	}

	m.JobType = JobType(jobType)
	m.Status = status.AggregateStatus(aggStatus)
	m.Regions = make([]status.Region, 0, len(regions))
	for _, reg := range regions {
		m.Regions = append(m.Regions, status.Region(reg))
	}
	if len(rawAsserted) > 0 {
		if err := json.Unmarshal(rawAsserted, &m.Assertions); err != nil {
			return Monitor{}, err
		}
	}
	return m, nil
}

func regionsToStrings(regions []status.Region) []string {
	out := make([]string, 0, len(regions))
	for _, r := range regions {
		out = append(out, string(r))
	}
	return out
}
