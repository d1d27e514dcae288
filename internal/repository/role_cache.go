package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tunecraft/tunecraft-api/internal/models"
	appErrors "github.com/tunecraft/tunecraft-api/pkg/errors"
)

// RoleCache memoises email-to-role lookups for the authorization gate.
// Entries expire on a short TTL and are invalidated on promotion, so a
// role change is visible on the next request.
type RoleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRoleCache constructs a role cache. A nil client disables caching.
func NewRoleCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RoleCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleCache{client: client, ttl: ttl, logger: logger}
}

func roleKey(email string) string {
	return "role:" + email
}

// Get returns the cached role for an email.
func (c *RoleCache) Get(ctx context.Context, email string) (models.UserRole, error) {
	if c.client == nil {
		return "", appErrors.ErrCacheMiss
	}

	raw, err := c.client.Get(ctx, roleKey(email)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", appErrors.ErrCacheMiss
		}
		return "", fmt.Errorf("redis get role %s: %w", email, err)
	}

	role := models.UserRole(raw)
	if !role.Valid() {
		return "", appErrors.ErrCacheMiss
	}
	return role, nil
}

// Set stores the role for an email with the configured TTL.
func (c *RoleCache) Set(ctx context.Context, email string, role models.UserRole) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, roleKey(email), string(role), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set role %s: %w", email, err)
	}
	return nil
}

// Invalidate drops the cached role for an email.
func (c *RoleCache) Invalidate(ctx context.Context, email string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, roleKey(email)).Err(); err != nil {
		return fmt.Errorf("redis del role %s: %w", email, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (c *RoleCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
