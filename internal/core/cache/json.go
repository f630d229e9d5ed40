package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-gin-tasks/internal/domain"
)

// MaxNegativeTTL caps how long a "does not exist" answer is remembered.
const MaxNegativeTTL = 30 * time.Second

// 缓存中表示“记录不存在”的占位值
var notFoundMarker = []byte("null")

// GetOrLoadJSON is GetOrLoad for a JSON-encoded *T. A load that reports
// domain.ErrNotFound is cached as a short-lived miss marker and later reads
// of it return domain.ErrNotFound without calling load.
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if errors.Is(e, domain.ErrNotFound) {
			_ = c.RDB.Set(ctx, key, notFoundMarker, negativeTTL(ttl)).Err()
			return nil, e
		}
		if e != nil {
			return nil, e
		}
		if v == nil {
			return nil, domain.ErrNotFound
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	if string(b) == string(notFoundMarker) {
		return nil, domain.ErrNotFound
	}
	var out T
	if e := json.Unmarshal(b, &out); e != nil {
		return nil, e
	}
	return &out, nil
}

func negativeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > MaxNegativeTTL {
		return MaxNegativeTTL
	}
	return ttl
}
