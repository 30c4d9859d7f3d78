package rejections

import (
	"context"

	"github.com/crebai/crebmatch-backend/pkg/redis"
	"github.com/google/uuid"
)

// Cache fronts the authoritative mark table with a per-principal set. All
// methods are best-effort: callers fall back to the database on error.
type Cache interface {
	Add(ctx context.Context, principalID, listingID uuid.UUID) error
	Remove(ctx context.Context, principalID, listingID uuid.UUID) error
	Contains(ctx context.Context, principalID, listingID uuid.UUID) (bool, error)
	Clear(ctx context.Context, principalID uuid.UUID) error
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache wraps the shared redis client as a rejection set cache.
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Add(ctx context.Context, principalID, listingID uuid.UUID) error {
	return c.client.SAdd(ctx, c.client.RejectionSetKey(principalID.String()), listingID.String())
}

func (c *redisCache) Remove(ctx context.Context, principalID, listingID uuid.UUID) error {
	return c.client.SRem(ctx, c.client.RejectionSetKey(principalID.String()), listingID.String())
}

func (c *redisCache) Contains(ctx context.Context, principalID, listingID uuid.UUID) (bool, error) {
	return c.client.SIsMember(ctx, c.client.RejectionSetKey(principalID.String()), listingID.String())
}

func (c *redisCache) Clear(ctx context.Context, principalID uuid.UUID) error {
	return c.client.Del(ctx, c.client.RejectionSetKey(principalID.String()))
}
