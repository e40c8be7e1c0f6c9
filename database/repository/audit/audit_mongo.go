// File: database/repository/audit/audit_mongo.go
package auditRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/database"
	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// AuditRepository is the append-only event sink. There is no update or
// delete path.
type AuditRepository interface {
	Record(ctx context.Context, event *models.AuditEvent) error
	ListByRelated(ctx context.Context, kind, id string, limit int64) ([]models.AuditEvent, error)
}

type mongoAuditRepo struct {
	coll *mongo.Collection
}

// NewMongoAuditRepo constructs a MongoDB AuditRepository.
func NewMongoAuditRepo() AuditRepository {
	repo := &mongoAuditRepo{coll: database.DB().Collection("audit_events")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create audit indexes: %v\n", err)
	}
	return repo
}

func (r *mongoAuditRepo) Record(ctx context.Context, event *models.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("error recording audit event: %w", err)
	}
	return nil
}

func (r *mongoAuditRepo) ListByRelated(ctx context.Context, kind, id string, limit int64) ([]models.AuditEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"related.kind": kind, "related.id": id}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing audit events for %s %s: %w", kind, id, err)
	}
	defer cursor.Close(ctx)

	var events []models.AuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *mongoAuditRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "related.kind", Value: 1}, {Key: "related.id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("related_created_idx"),
		},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}
