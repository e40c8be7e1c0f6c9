// FILE: database/repository/block/indexes.go
package blockRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoBlockRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetName("doctor_start_idx"),
		},
		{
			Keys:    bson.D{{Key: "recurrence_id", Value: 1}},
			Options: options.Index().SetName("recurrence_idx").SetSparse(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create time block indexes: %w", err)
	}
	return nil
}
