// File: database/repository/inbox/inbox_mongo.go
package inboxRepo

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

// InboxRepository stores in-app notifications for later retrieval by the
// client. Delivery is the insert; there is no external transport.
type InboxRepository interface {
	Create(ctx context.Context, n *models.InAppNotification) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.InAppNotification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type mongoInboxRepo struct {
	coll *mongo.Collection
}

// NewMongoInboxRepo constructs a MongoDB InboxRepository.
func NewMongoInboxRepo() InboxRepository {
	repo := &mongoInboxRepo{coll: database.DB().Collection("notifications")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create notification indexes: %v\n", err)
	}
	return repo
}

func (r *mongoInboxRepo) Create(ctx context.Context, n *models.InAppNotification) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *mongoInboxRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.InAppNotification, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var items []models.InAppNotification
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *mongoInboxRepo) MarkRead(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("error marking notification %s read: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoInboxRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created_idx"),
		},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}
