package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"parcours/internal/readview"
	dErrors "parcours/pkg/domain-errors"
)

// DashboardCache keeps computed dashboards as JSON strings with a TTL.
type DashboardCache struct {
	client *redis.Client
}

func NewDashboardCache(client *redis.Client) *DashboardCache {
	return &DashboardCache{client: client}
}

func (c *DashboardCache) Get(ctx context.Context, key string) (readview.Dashboard, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return readview.Dashboard{}, false, nil
	}
	if err != nil {
		return readview.Dashboard{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read dashboard cache")
	}
	var d readview.Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		return readview.Dashboard{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt dashboard cache entry")
	}
	return d, true, nil
}

func (c *DashboardCache) Set(ctx context.Context, key string, d readview.Dashboard, ttl time.Duration) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode dashboard")
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write dashboard cache")
	}
	return nil
}
