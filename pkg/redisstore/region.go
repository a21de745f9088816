package redisstore

import (
	"context"
	"fmt"

	"watchpost/internals/modules/status"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Region statuses live in one hash per monitor, field = region. Each
// new check result overwrites that region's field; only the latest
// value matters for aggregation.

func regionKey(monitorID uuid.UUID) string {
	return fmt.Sprintf("monitor:regions:%v", monitorID)
}

func aggregateKey(monitorID uuid.UUID) string {
	return fmt.Sprintf("monitor:agg:%v", monitorID)
}

func (c *Client) StoreRegionStatus(ctx context.Context, monitorID uuid.UUID, region status.Region, rs status.RegionStatus) error {
	key := regionKey(monitorID)

	return retry(ctx, 2, func() error {
		return c.rdb.HSet(ctx, key, string(region), string(rs)).Err()
	})
}

func (c *Client) GetRegionStatuses(ctx context.Context, monitorID uuid.UUID) (map[status.Region]status.RegionStatus, error) {
	key := regionKey(monitorID)

	res, err := c.rdb.HGetAll(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	statuses := make(map[status.Region]status.RegionStatus, len(res))
	for region, rs := range res {
		statuses[status.Region(region)] = status.RegionStatus(rs)
	}
	return statuses, nil
}

func (c *Client) ClearRegionStatuses(ctx context.Context, monitorID uuid.UUID) error {
	return retry(ctx, 2, func() error {
		return c.rdb.Del(ctx, regionKey(monitorID)).Err()
	})
}

// GetAggregate returns the last observed aggregate status, or ok=false
// when no transition has been recorded yet.
func (c *Client) GetAggregate(ctx context.Context, monitorID uuid.UUID) (status.AggregateStatus, bool, error) {
	res, err := c.rdb.Get(ctx, aggregateKey(monitorID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status.AggregateStatus(res), true, nil
}

func (c *Client) SetAggregate(ctx context.Context, monitorID uuid.UUID, agg status.AggregateStatus) error {
	return retry(ctx, 2, func() error {
		return c.rdb.Set(ctx, aggregateKey(monitorID), string(agg), 0).Err()
	})
}

func (c *Client) DelAggregate(ctx context.Context, monitorID uuid.UUID) error {
	return c.rdb.Del(ctx, aggregateKey(monitorID)).Err()
}
