package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared load once it no longer follows the
// caller that started it.
const DefaultLoadTimeout = 5 * time.Second

type Cache struct {
	RDB         *redis.Client
	LoadTimeout time.Duration
	sf          singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewWithClient(rdb *redis.Client) *Cache { return &Cache{RDB: rdb, LoadTimeout: DefaultLoadTimeout} }

func (c *Cache) Ping(ctx context.Context) error { return c.RDB.Ping(ctx).Err() }

func (c *Cache) Close() error { return c.RDB.Close() }

// GetOrLoad returns the cached bytes for key, or runs load once for all
// concurrent callers and stores the result for ttl. A Redis failure falls
// back to load. The shared load is detached from any single caller, so one
// caller giving up does not fail the others waiting on it.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	ch := c.sf.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout())
		defer cancel()
		b, e := load(lctx)
		if e != nil {
			return nil, e
		}
		_ = c.RDB.Set(lctx, key, b, ttl).Err()
		return b, nil
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) loadTimeout() time.Duration {
	if c.LoadTimeout <= 0 {
		return DefaultLoadTimeout
	}
	return c.LoadTimeout
}

// Del removes keys; a missing key is not an error.
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if err := c.RDB.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
