package ports

import (
	"context"
	"time"

	"github.com/reportcentral/console/internal/core/domain"
)

// SessionStore keeps the token and the cached profile of each browser
// session. Load returns a session with an empty token when nothing is stored.
type SessionStore interface {
	Load(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Clear(ctx context.Context, id string) error
}

// ListingCache holds the last fetched user collection per session.
// Get reports a miss with a nil slice and no error.
type ListingCache interface {
	Get(ctx context.Context, sessionID string) ([]domain.User, error)
	Put(ctx context.Context, sessionID string, users []domain.User) error
	Invalidate(ctx context.Context, sessionID string) error
}

// DeleteConfirmations issues single-use tokens that authorize a deletion.
type DeleteConfirmations interface {
	Issue(ctx context.Context, sessionID string, userID int64) (token string, ttl time.Duration, err error)
	// Consume reports whether token was issued for this session and user.
	// A token is accepted at most once.
	Consume(ctx context.Context, sessionID string, userID int64, token string) (bool, error)
}

// AuditRepository persists the administration audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	// ListByTarget returns the newest entries first.
	ListByTarget(ctx context.Context, targetID int64, limit int) ([]domain.AuditEntry, error)
}

// AuditSink accepts entries for asynchronous persistence.
type AuditSink interface {
	Record(entry domain.AuditEntry)
}
