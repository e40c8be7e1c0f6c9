// File: database/repository/appointment/interface.go
package apptRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/database"
	"clinicore/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// AppointmentRepository defines read/write access to appointment records.
// Conflict-sensitive writes (create, reschedule) go through the scheduler
// repository instead, which wraps them in a transaction.
type AppointmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	Update(ctx context.Context, appt *models.Appointment) error
	SoftDelete(ctx context.Context, id string) error
	ListByDoctorAndRange(ctx context.Context, doctorID string, from, to time.Time) ([]models.Appointment, error)
	CountOverlapping(ctx context.Context, doctorID string, start, end time.Time, excludeID string) (int64, error)
	CountUpcoming(ctx context.Context, doctorID, patientID string, after time.Time) (int64, error)
	HasActiveOnDay(ctx context.Context, doctorID, patientID string, dayStart, dayEnd time.Time) (bool, error)
	CountPatientCancellationsSince(ctx context.Context, patientID string, since time.Time) (int64, error)
}

type mongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo constructs a MongoDB AppointmentRepository.
func NewMongoAppointmentRepo() AppointmentRepository {
	repo := &mongoAppointmentRepo{coll: database.DB().Collection("appointments")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create appointment indexes: %v\n", err)
	}
	return repo
}
