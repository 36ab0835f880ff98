package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const confirmationTTL = 2 * time.Minute

// DeleteConfirmations issues single-use tokens authorizing one deletion.
// Key format: console:delete:<session_id>:<user_id>
type DeleteConfirmations struct {
	client *redis.Client
}

// NewDeleteConfirmations creates a DeleteConfirmations wrapping the given
// Redis client.
func NewDeleteConfirmations(client *redis.Client) *DeleteConfirmations {
	return &DeleteConfirmations{client: client}
}

// Issue stores a fresh token, replacing any earlier one for the same target.
func (d *DeleteConfirmations) Issue(ctx context.Context, sessionID string, userID int64) (string, time.Duration, error) {
	token := uuid.NewString()
	if err := d.client.Set(ctx, d.key(sessionID, userID), token, confirmationTTL).Err(); err != nil {
		return "", 0, fmt.Errorf("issue delete confirmation: %w", err)
	}
	return token, confirmationTTL, nil
}

// Consume removes the stored token and reports whether it matched.
func (d *DeleteConfirmations) Consume(ctx context.Context, sessionID string, userID int64, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	stored, err := d.client.GetDel(ctx, d.key(sessionID, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume delete confirmation: %w", err)
	}
	return stored == token, nil
}

func (d *DeleteConfirmations) key(sessionID string, userID int64) string {
	return fmt.Sprintf("%sdelete:%s:%d", keyPrefix, sessionID, userID)
}
