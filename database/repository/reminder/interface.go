// File: database/repository/reminder/interface.go
package reminderRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicore/database"
	"clinicore/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotClaimable is returned when a job cannot move to processing —
// it was already claimed, cancelled, expired, or sent.
var ErrNotClaimable = errors.New("reminder job is not claimable")

// JobRepository is the durable home of the reminder job state machine.
// Every transition is a single conditional update, so concurrent
// dispatchers and sweeps cannot double-apply one.
type JobRepository interface {
	Create(ctx context.Context, job *models.ReminderJob) error
	CreateMany(ctx context.Context, jobs []models.ReminderJob) error
	GetByID(ctx context.Context, id string) (*models.ReminderJob, error)
	ListByAppointment(ctx context.Context, appointmentID string) ([]models.ReminderJob, error)
	ListDue(ctx context.Context, now time.Time, limit int64) ([]models.ReminderJob, error)
	ListRetryable(ctx context.Context, retryBefore time.Time, limit int64) ([]models.ReminderJob, error)
	Claim(ctx context.Context, id string, now time.Time) (*models.ReminderJob, error)
	MarkSent(ctx context.Context, id string, now time.Time) (models.JobStatus, error)
	MarkFailed(ctx context.Context, id, reason string, now time.Time) (models.JobStatus, error)
	RequeueForRetry(ctx context.Context, id string, retryAt time.Time) error
	CancelByAppointment(ctx context.Context, appointmentID string, now time.Time) (int64, error)
	ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}

// LogRepository stores the append-only delivery log.
type LogRepository interface {
	Create(ctx context.Context, entry *models.ReminderLog) error
	GetByAppointment(ctx context.Context, appointmentID string) ([]models.ReminderLog, error)
	MarkEngagement(ctx context.Context, trackingToken, event string, now time.Time) (*models.ReminderLog, error)
}

// SettingRepository stores per-user reminder preferences.
type SettingRepository interface {
	GetOrCreate(ctx context.Context, userID string, userType models.Role) (*models.ReminderSetting, error)
	Update(ctx context.Context, setting *models.ReminderSetting) error
}

// AnalyticsRepository upserts per-day, per-doctor counters.
type AnalyticsRepository interface {
	Increment(ctx context.Context, date, doctorID string, fields map[string]int) (*models.ReminderAnalytics, error)
	SetRates(ctx context.Context, a *models.ReminderAnalytics) error
	Query(ctx context.Context, doctorID string, from, to string) ([]models.ReminderAnalytics, error)
}

type mongoJobRepo struct {
	coll *mongo.Collection
}

type mongoLogRepo struct {
	coll *mongo.Collection
}

type mongoSettingRepo struct {
	coll *mongo.Collection
}

type mongoAnalyticsRepo struct {
	coll *mongo.Collection
}

// NewMongoJobRepo constructs a MongoDB JobRepository.
func NewMongoJobRepo() JobRepository {
	repo := &mongoJobRepo{coll: database.DB().Collection("reminder_jobs")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create reminder job indexes: %v\n", err)
	}
	return repo
}

// NewMongoLogRepo constructs a MongoDB LogRepository.
func NewMongoLogRepo() LogRepository {
	repo := &mongoLogRepo{coll: database.DB().Collection("reminder_logs")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create reminder log indexes: %v\n", err)
	}
	return repo
}

// NewMongoSettingRepo constructs a MongoDB SettingRepository.
func NewMongoSettingRepo() SettingRepository {
	return &mongoSettingRepo{coll: database.DB().Collection("reminder_settings")}
}

// NewMongoAnalyticsRepo constructs a MongoDB AnalyticsRepository.
func NewMongoAnalyticsRepo() AnalyticsRepository {
	return &mongoAnalyticsRepo{coll: database.DB().Collection("reminder_analytics")}
}
