package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quotebook/estimate-system/internal/core/ports"
)

const principalKeyPrefix = "principal:"

// PrincipalCache stores request principals as JSON with a TTL.
// Key format: principal:<user_id>
type PrincipalCache struct {
	client *redis.Client
}

// NewPrincipalCache creates a PrincipalCache wrapping the given Redis client.
func NewPrincipalCache(client *redis.Client) *PrincipalCache {
	return &PrincipalCache{client: client}
}

func (c *PrincipalCache) Get(ctx context.Context, userID string) (*ports.Principal, bool, error) {
	raw, err := c.client.Get(ctx, principalKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("principal cache get: %w", err)
	}
	var p ports.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("principal cache decode: %w", err)
	}
	return &p, true, nil
}

func (c *PrincipalCache) Set(ctx context.Context, p *ports.Principal, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("principal cache encode: %w", err)
	}
	return c.client.Set(ctx, principalKey(p.ID), raw, ttl).Err()
}

func (c *PrincipalCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, principalKey(userID)).Err()
}

func principalKey(userID string) string {
	return principalKeyPrefix + userID
}
