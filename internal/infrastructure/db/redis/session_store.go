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

const defaultSessionTTL = 12 * time.Hour

// SessionStore keeps each session as two keys written and removed together.
// Key format: console:session:<id>:token and console:session:<id>:profile
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore. A default TTL is applied when none
// is provided.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// Load returns the stored session. A missing token, or a token without a
// readable profile, yields an empty session.
func (s *SessionStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	sess := &domain.Session{ID: id}
	vals, err := s.client.MGet(ctx, s.tokenKey(id), s.profileKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	token, _ := vals[0].(string)
	raw, _ := vals[1].(string)
	if token == "" || raw == "" {
		return sess, nil
	}

	var profile domain.User
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return sess, nil
	}
	sess.Token = token
	sess.Profile = &profile
	return sess, nil
}

// Save writes token and profile atomically and refreshes their TTL. An
// unauthenticated session is cleared instead.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("save session: missing id")
	}
	if !sess.Authenticated() || sess.Profile == nil {
		return s.Clear(ctx, sess.ID)
	}

	raw, err := json.Marshal(sess.Profile)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(sess.ID), sess.Token, s.ttl)
		pipe.Set(ctx, s.profileKey(sess.ID), raw, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear removes both keys.
func (s *SessionStore) Clear(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.tokenKey(id), s.profileKey(id)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) tokenKey(id string) string {
	return fmt.Sprintf("%ssession:%s:token", keyPrefix, id)
}

func (s *SessionStore) profileKey(id string) string {
	return fmt.Sprintf("%ssession:%s:profile", keyPrefix, id)
}
