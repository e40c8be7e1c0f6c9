// File: database/repository/scheduler/interface.go
package schedulerRepo

import (
	"context"
	"errors"

	"clinicore/database"
	"clinicore/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// Conflict results surfaced by the transactional booking path.
var (
	ErrDoctorBusy  = errors.New("doctor already booked for this interval")
	ErrSlotBlocked = errors.New("interval falls inside a blocked period")
)

// SchedulerRepository wraps every conflict-sensitive appointment write in a
// multi-document transaction. Each transaction first bumps the doctor's
// booking version counter so two concurrent bookings for the same doctor
// write-conflict and one of them aborts — the conflict check and the insert
// can never interleave.
type SchedulerRepository interface {
	BookTransactionally(ctx context.Context, appt *models.Appointment, jobs []models.ReminderJob) error
	RescheduleTransactionally(ctx context.Context, appt *models.Appointment, newJobs []models.ReminderJob) error
	CancelTransactionally(ctx context.Context, appt *models.Appointment) (int64, error)
}

// MongoSchedulerRepo implements SchedulerRepository using MongoDB sessions.
type MongoSchedulerRepo struct {
	apptColl  *mongo.Collection
	blockColl *mongo.Collection
	hoursColl *mongo.Collection
	jobColl   *mongo.Collection
}

// NewMongoSchedulerRepo constructs a new instance of MongoSchedulerRepo.
func NewMongoSchedulerRepo() SchedulerRepository {
	db := database.DB()
	return &MongoSchedulerRepo{
		apptColl:  db.Collection("appointments"),
		blockColl: db.Collection("time_blocks"),
		hoursColl: db.Collection("working_hours"),
		jobColl:   db.Collection("reminder_jobs"),
	}
}
