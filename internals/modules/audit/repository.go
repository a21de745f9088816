package audit

import (
	"context"
	"encoding/json"

	"watchpost/pkg/db"
	"watchpost/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

func (r *Repository) InsertBatch(ctx context.Context, entries []Entry) error {
	const op string = "repo.audit.insert_batch"

	b := &pgx.Batch{}
	for i := range entries {
		e := &entries[i]

		var metadata []byte
		if e.Metadata != nil {
			var err error
			metadata, err = json.Marshal(e.Metadata)
			if err != nil {
				return utils.WrapRepoError(op, err, false, r.logger)
			}
		}

		b.Queue(`
			INSERT INTO audit_events (id, kind, monitor_id, metadata, at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			e.ID, string(e.Kind), e.MonitorID, metadata, e.At,
		)
	}

	br := r.db.SendBatch(ctx, b)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return utils.WrapRepoError(op, err, false, r.logger)
		}
	}
	return nil
}

func (r *Repository) ListByMonitor(ctx context.Context, monitorID uuid.UUID, limit int32) ([]Entry, error) {
	const op string = "repo.audit.list_by_monitor"

	rows, err := r.db.Query(ctx, `
		SELECT id, kind, monitor_id, metadata, at
		FROM audit_events
		WHERE monitor_id = $1
		ORDER BY at DESC
		LIMIT $2`,
		monitorID, limit)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e        Entry
			kind     string
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &kind, &e.MonitorID, &metadata, &e.At); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		e.Kind = EventKind(kind)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, utils.WrapRepoError(op, err, false, r.logger)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
