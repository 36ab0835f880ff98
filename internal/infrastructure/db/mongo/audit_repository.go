package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reportcentral/console/internal/core/domain"
)

const (
	collectionAudit   = "admin_audit"
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type auditDocument struct {
	Action        string    `bson:"action"`
	ActorID       int64     `bson:"actor_id"`
	ActorUsername string    `bson:"actor_username"`
	TargetID      int64     `bson:"target_id"`
	Fields        []string  `bson:"fields,omitempty"`
	At            time.Time `bson:"at"`
}

// AuditRepository persists administration audit entries.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

// Insert appends one entry to the trail.
func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := auditDocument{
		Action:        string(e.Action),
		ActorID:       e.ActorID,
		ActorUsername: e.ActorUsername,
		TargetID:      e.TargetID,
		Fields:        e.Fields,
		At:            e.At.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByTarget returns the newest entries for one user, capped at
// maxAuditLimit.
func (r *AuditRepository) ListByTarget(ctx context.Context, targetID int64, limit int) ([]domain.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{"target_id": targetID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer cur.Close(ctx)

	var docs []auditDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit entries: %w", err)
	}

	out := make([]domain.AuditEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.AuditEntry{
			Action:        domain.AuditAction(d.Action),
			ActorID:       d.ActorID,
			ActorUsername: d.ActorUsername,
			TargetID:      d.TargetID,
			Fields:        d.Fields,
			At:            d.At,
		})
	}
	return out, nil
}

// EnsureIndexes creates the indexes used by ListByTarget.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
