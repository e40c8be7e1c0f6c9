// File: database/repository/reminder/indexes.go
package reminderRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoJobRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "scheduled_for", Value: 1}},
			Options: options.Index().SetName("status_scheduled_idx"),
		},
		{
			Keys:    bson.D{{Key: "appointment_id", Value: 1}},
			Options: options.Index().SetName("appointment_idx"),
		},
		{
			// At most one live job per (appointment, channel, kind); retries
			// and reschedules reuse or cancel the existing one.
			Keys: bson.D{
				{Key: "appointment_id", Value: 1},
				{Key: "channel", Value: 1},
				{Key: "kind", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("unique_live_job").
				SetPartialFilterExpression(bson.M{"status": "pending"}),
		},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create reminder job indexes: %w", err)
	}
	return nil
}
