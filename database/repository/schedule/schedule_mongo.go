// File: database/repository/schedule/schedule_mongo.go
package scheduleRepo

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

// ScheduleRepository stores per-doctor working-hours configuration.
type ScheduleRepository interface {
	Get(ctx context.Context, doctorID string) (*models.WorkingHours, error)
	Upsert(ctx context.Context, hours *models.WorkingHours) error
}

type mongoScheduleRepo struct {
	coll *mongo.Collection
}

// NewMongoScheduleRepo constructs a MongoDB ScheduleRepository.
func NewMongoScheduleRepo() ScheduleRepository {
	repo := &mongoScheduleRepo{coll: database.DB().Collection("working_hours")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "doctor_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_doctor"),
	})
	if err != nil {
		fmt.Printf("failed to create working hours index: %v\n", err)
	}
	return repo
}

// Get returns nil (without error) when the doctor has no schedule configured;
// availability treats that as a non-working day.
func (r *mongoScheduleRepo) Get(ctx context.Context, doctorID string) (*models.WorkingHours, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var hours models.WorkingHours
	err := r.coll.FindOne(ctx, bson.M{"doctor_id": doctorID}).Decode(&hours)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching working hours for doctor %s: %w", doctorID, err)
	}
	return &hours, nil
}

// Upsert writes the schedule configuration without touching the booking
// version counter, which only booking transactions may bump.
func (r *mongoScheduleRepo) Upsert(ctx context.Context, hours *models.WorkingHours) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"days":                     hours.Days,
			"max_upcoming_per_patient": hours.MaxUpcomingPerPatient,
			"updated_at":               time.Now().UTC(),
		},
		"$setOnInsert": bson.M{"booking_version": int64(0)},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, bson.M{"doctor_id": hours.DoctorID}, update, opts); err != nil {
		return fmt.Errorf("error upserting working hours for doctor %s: %w", hours.DoctorID, err)
	}
	return nil
}
