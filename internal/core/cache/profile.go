package cache

import (
	"context"
	"time"

	"go-gin-tasks/internal/domain"
)

// ProfileCache keeps public profiles in Redis under profile:<id>.
type ProfileCache struct {
	c   *Cache
	ttl time.Duration
}

func NewProfileCache(c *Cache, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileCache{c: c, ttl: ttl}
}

func profileKey(userID string) string { return "profile:" + userID }

func (p *ProfileCache) Load(ctx context.Context, userID string, load func(context.Context) (*domain.Profile, error)) (*domain.Profile, error) {
	return GetOrLoadJSON(p.c, ctx, profileKey(userID), p.ttl, load)
}

func (p *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	return p.c.Del(ctx, profileKey(userID))
}
