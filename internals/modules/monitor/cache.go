package monitor

import (
	"context"

	"github.com/google/uuid"
)

// Cache is the slice of redis the monitor service needs. Implemented by
// pkg/redisstore.
type Cache interface {
	GetMonitor(ctx context.Context, id uuid.UUID) (Monitor, bool)
	SetMonitor(ctx context.Context, m Monitor) error
	DelMonitor(ctx context.Context, id uuid.UUID) error
	ClearRegionStatuses(ctx context.Context, monitorID uuid.UUID) error
	DelAggregate(ctx context.Context, monitorID uuid.UUID) error
}
