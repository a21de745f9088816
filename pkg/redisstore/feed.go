package redisstore

import (
	"context"
	"fmt"
	"time"
)

// Status page feeds are cached as the rendered JSON document. TTL is
// short (60s by default) so the public page lags the engine by at most
// one refresh window.

func feedKey(slug string) string {
	return fmt.Sprintf("statuspage:feed:%v", slug)
}

func (c *Client) GetFeed(ctx context.Context, slug string) ([]byte, bool) {
	res, err := c.rdb.Get(ctx, feedKey(slug)).Bytes()
	if err != nil {
		return nil, false
	}
	return res, true
}

func (c *Client) SetFeed(ctx context.Context, slug string, doc []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, feedKey(slug), doc, ttl).Err()
}

func (c *Client) DelFeed(ctx context.Context, slug string) error {
	return c.rdb.Del(ctx, feedKey(slug)).Err()
}
