// FILE: database/repository/appointment/indexes.go
package apptRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates the necessary indexes on the appointments collection.
func (r *mongoAppointmentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Primary conflict-check pattern: doctor + time range.
		{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetName("doctor_start_idx"),
		},
		{
			Keys:    bson.D{{Key: "patient_id", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetName("patient_start_idx"),
		},
		{
			Keys:    bson.D{{Key: "patient_id", Value: 1}, {Key: "status", Value: 1}, {Key: "updated_at", Value: 1}},
			Options: options.Index().SetName("patient_status_updated_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create appointment indexes: %w", err)
	}
	return nil
}
