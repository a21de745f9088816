package statuspage

import (
	"context"

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

func (r *Repository) Create(ctx context.Context, cmd CreatePageCmd) (uuid.UUID, error) {
	const op string = "repo.statuspage.create"

	id := uuid.New()
	_, err := r.db.Exec(ctx, `
		INSERT INTO status_pages (id, workspace_id, slug, name)
		VALUES ($1, $2, $3, $4)`,
		id, cmd.WorkspaceID, cmd.Slug, cmd.Name,
	)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	if err := r.replaceMonitors(ctx, id, cmd.Monitors); err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return id, nil
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (Page, error) {
	const op string = "repo.statuspage.get_by_slug"

	row := r.db.QueryRow(ctx, `
		SELECT id, workspace_id, slug, name, created_at, updated_at
		FROM status_pages WHERE slug = $1`,
		slug)

	var p Page
	err := row.Scan(&p.ID, &p.WorkspaceID, &p.Slug, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Page{}, utils.WrapRepoError(op, err, true, r.logger)
	}

	p.Monitors, err = r.pageMonitors(ctx, p.ID)
	if err != nil {
		return Page{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return p, nil
}

func (r *Repository) GetAll(ctx context.Context, workspaceID uuid.UUID) ([]Page, error) {
	const op string = "repo.statuspage.get_all"

	rows, err := r.db.Query(ctx, `
		SELECT id, workspace_id, slug, name, created_at, updated_at
		FROM status_pages WHERE workspace_id = $1 ORDER BY created_at DESC`,
		workspaceID)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	pages := make([]Page, 0)
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Slug, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (r *Repository) SlugOf(ctx context.Context, workspaceID, pageID uuid.UUID) (string, error) {
	const op string = "repo.statuspage.slug_of"

	var slug string
	err := r.db.QueryRow(ctx,
		`SELECT slug FROM status_pages WHERE id = $1 AND workspace_id = $2`,
		pageID, workspaceID).Scan(&slug)
	if err != nil {
		return "", utils.WrapRepoError(op, err, true, r.logger)
	}
	return slug, nil
}

func (r *Repository) Update(ctx context.Context, workspaceID, pageID uuid.UUID, cmd UpdatePageCmd) error {
	const op string = "repo.statuspage.update"

	tag, err := r.db.Exec(ctx, `
		UPDATE status_pages SET name = $3, updated_at = now()
		WHERE id = $1 AND workspace_id = $2`,
		pageID, workspaceID, cmd.Name)
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

	if err := r.replaceMonitors(ctx, pageID, cmd.Monitors); err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, workspaceID, pageID uuid.UUID) error {
	const op string = "repo.statuspage.delete"

	tag, err := r.db.Exec(ctx,
		`DELETE FROM status_pages WHERE id = $1 AND workspace_id = $2`,
		pageID, workspaceID)
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

func (r *Repository) replaceMonitors(ctx context.Context, pageID uuid.UUID, monitors []uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM status_page_monitors WHERE page_id = $1`, pageID)
	if err != nil {
		return err
	}
	for _, monitorID := range monitors {
		_, err := r.db.Exec(ctx, `
			INSERT INTO status_page_monitors (page_id, monitor_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			pageID, monitorID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) pageMonitors(ctx context.Context, pageID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT monitor_id FROM status_page_monitors WHERE page_id = $1`, pageID)
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
