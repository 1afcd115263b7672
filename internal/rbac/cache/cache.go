// Package cache is the Redis permission-set cache in front of the rbac
// store. Invalidation is by tenant generation: every role or assignment
// change bumps the tenant's generation counter, which orphans all cached
// permission sets of that tenant at once. Orphaned keys expire via TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	platformredis "gatehouse/internal/platform/redis"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/sentinel"
)

type Cache struct {
	client *platformredis.Client
	ttl    time.Duration
}

// New creates a permission cache. A nil client yields a nil cache, which
// callers treat as "no cache configured".
func New(client *platformredis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

func generationKey(tenantID id.TenantID) string {
	return "gatehouse:rbac:gen:" + tenantID.String()
}

func permissionsKey(tenantID id.TenantID, generation int64, actorID id.ActorID) string {
	return fmt.Sprintf("gatehouse:rbac:perms:%s:%d:%s", tenantID, generation, actorID)
}

// Get returns the cached permission set, or sentinel.ErrNotFound on a miss.
func (c *Cache) Get(ctx context.Context, tenantID id.TenantID, actorID id.ActorID) ([]string, error) {
	gen, err := c.generation(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	raw, err := c.client.Get(ctx, permissionsKey(tenantID, gen, actorID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached permissions: %w", err)
	}

	var permissions []string
	if err := json.Unmarshal([]byte(raw), &permissions); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, sentinel.ErrNotFound
	}
	return permissions, nil
}

// Set stores an actor's permission set under the tenant's current generation.
func (c *Cache) Set(ctx context.Context, tenantID id.TenantID, actorID id.ActorID, permissions []string) error {
	gen, err := c.generation(ctx, tenantID)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}

	if err := c.client.Set(ctx, permissionsKey(tenantID, gen, actorID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached permissions: %w", err)
	}
	return nil
}

// InvalidateTenant bumps the tenant's generation, orphaning every cached
// permission set of that tenant.
func (c *Cache) InvalidateTenant(ctx context.Context, tenantID id.TenantID) error {
	if err := c.client.Incr(ctx, generationKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("bump tenant generation: %w", err)
	}
	return nil
}

func (c *Cache) generation(ctx context.Context, tenantID id.TenantID) (int64, error) {
	raw, err := c.client.Get(ctx, generationKey(tenantID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get tenant generation: %w", err)
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nil
	}
	return gen, nil
}
