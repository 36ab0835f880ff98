package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reportcentral/console/internal/core/domain"
)

const defaultListingTTL = 30 * time.Second

// ListingCache keeps the last fetched user collection per session so that
// paging, sorting and filtering do not refetch it.
// Key format: console:listing:<session_id>
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates a ListingCache with the given TTL.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = defaultListingTTL
	}
	return &ListingCache{client: client, ttl: ttl}
}

// Get returns the cached users, or nil on a miss.
func (c *ListingCache) Get(ctx context.Context, sessionID string) ([]domain.User, error) {
	raw, err := c.client.Get(ctx, c.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing cache get: %w", err)
	}
	var users []domain.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("listing cache decode: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Put stores users for the session.
func (c *ListingCache) Put(ctx context.Context, sessionID string, users []domain.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("listing cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(sessionID), raw, c.ttl).Err()
}

// Invalidate drops the cached collection; the next Get misses.
func (c *ListingCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}

func (c *ListingCache) key(sessionID string) string {
	return keyPrefix + "listing:" + sessionID
}
