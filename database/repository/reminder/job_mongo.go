// File: database/repository/reminder/job_mongo.go
package reminderRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

func (r *mongoJobRepo) Create(ctx context.Context, job *models.ReminderJob) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, job); err != nil {
		return fmt.Errorf("error creating reminder job: %w", err)
	}
	return nil
}

func (r *mongoJobRepo) CreateMany(ctx context.Context, jobs []models.ReminderJob) error {
	if len(jobs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	docs := make([]interface{}, len(jobs))
	for i := range jobs {
		docs[i] = jobs[i]
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("error creating reminder jobs: %w", err)
	}
	return nil
}

func (r *mongoJobRepo) GetByID(ctx context.Context, id string) (*models.ReminderJob, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var job models.ReminderJob
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&job)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("error fetching reminder job %s: %w", id, err)
	}
	return &job, nil
}

func (r *mongoJobRepo) ListByAppointment(ctx context.Context, appointmentID string) ([]models.ReminderJob, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"appointment_id": appointmentID})
	if err != nil {
		return nil, fmt.Errorf("error listing reminder jobs for appointment %s: %w", appointmentID, err)
	}
	defer cursor.Close(ctx)

	var jobs []models.ReminderJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListDue returns pending, non-cancelled jobs whose scheduled time has
// arrived. Used by the periodic scan as a safety net behind the queue.
func (r *mongoJobRepo) ListDue(ctx context.Context, now time.Time, limit int64) ([]models.ReminderJob, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"status":        models.JobPending,
		"cancelled":     false,
		"scheduled_for": bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_for", Value: 1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing due reminder jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []models.ReminderJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListRetryable returns failed jobs with attempts remaining whose last
// attempt is old enough. The scan requeues them; this covers a crash
// between marking a failure and enqueueing its retry.
func (r *mongoJobRepo) ListRetryable(ctx context.Context, retryBefore time.Time, limit int64) ([]models.ReminderJob, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"status":          models.JobFailed,
		"cancelled":       false,
		"$expr":           bson.M{"$lt": bson.A{"$attempts", "$max_attempts"}},
		"last_attempt_at": bson.M{"$lt": retryBefore},
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_attempt_at", Value: 1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing retryable reminder jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []models.ReminderJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Claim atomically moves a pending job to processing and increments its
// attempt counter. Exactly one concurrent caller can win; everyone else
// gets ErrNotClaimable.
func (r *mongoJobRepo) Claim(ctx context.Context, id string, now time.Time) (*models.ReminderJob, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"id":        id,
		"status":    models.JobPending,
		"cancelled": false,
	}
	update := bson.M{
		"$set": bson.M{
			"status":          models.JobProcessing,
			"last_attempt_at": now,
			"updated_at":      now,
		},
		"$inc": bson.M{"attempts": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var job models.ReminderJob
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&job)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotClaimable
		}
		return nil, fmt.Errorf("error claiming reminder job %s: %w", id, err)
	}
	return &job, nil
}

// MarkSent finalizes a processing job. If the job was cancelled while the
// send was in flight, the record lands on cancelled instead of sent — a
// cancelled job must never reach the sent state.
func (r *mongoJobRepo) MarkSent(ctx context.Context, id string, now time.Time) (models.JobStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": models.JobProcessing, "cancelled": false},
		bson.M{"$set": bson.M{"status": models.JobSent, "updated_at": now}},
	)
	if err != nil {
		return "", fmt.Errorf("error marking reminder job %s sent: %w", id, err)
	}
	if res.ModifiedCount > 0 {
		return models.JobSent, nil
	}

	res, err = r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": models.JobProcessing, "cancelled": true},
		bson.M{"$set": bson.M{"status": models.JobCancelled, "updated_at": now}},
	)
	if err != nil {
		return "", fmt.Errorf("error finalizing cancelled reminder job %s: %w", id, err)
	}
	if res.ModifiedCount > 0 {
		return models.JobCancelled, nil
	}
	return "", ErrNotClaimable
}

// MarkFailed records a transport failure. A cancelled in-flight job
// finalizes as cancelled and is never retried.
func (r *mongoJobRepo) MarkFailed(ctx context.Context, id, reason string, now time.Time) (models.JobStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": models.JobProcessing, "cancelled": false},
		bson.M{"$set": bson.M{
			"status":         models.JobFailed,
			"failure_reason": reason,
			"updated_at":     now,
		}},
	)
	if err != nil {
		return "", fmt.Errorf("error marking reminder job %s failed: %w", id, err)
	}
	if res.ModifiedCount > 0 {
		return models.JobFailed, nil
	}

	res, err = r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": models.JobProcessing, "cancelled": true},
		bson.M{"$set": bson.M{
			"status":         models.JobCancelled,
			"failure_reason": reason,
			"updated_at":     now,
		}},
	)
	if err != nil {
		return "", fmt.Errorf("error finalizing cancelled reminder job %s: %w", id, err)
	}
	if res.ModifiedCount > 0 {
		return models.JobCancelled, nil
	}
	return "", ErrNotClaimable
}

// RequeueForRetry re-enters a retryable failed job into pending with a
// backoff delay. Conditional on attempts remaining so an exhausted job
// stays failed permanently.
func (r *mongoJobRepo) RequeueForRetry(ctx context.Context, id string, retryAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{
			"id":        id,
			"status":    models.JobFailed,
			"cancelled": false,
			"$expr":     bson.M{"$lt": bson.A{"$attempts", "$max_attempts"}},
		},
		bson.M{"$set": bson.M{
			"status":        models.JobPending,
			"scheduled_for": retryAt,
			"updated_at":    time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("error requeueing reminder job %s: %w", id, err)
	}
	if res.ModifiedCount == 0 {
		return ErrNotClaimable
	}
	return nil
}

// CancelByAppointment flips every non-terminal job for the appointment.
// Mirrors the transactional variant in the scheduler repository for callers
// outside a booking transaction.
func (r *mongoJobRepo) CancelByAppointment(ctx context.Context, appointmentID string, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{
			"appointment_id": appointmentID,
			"status":         bson.M{"$in": []models.JobStatus{models.JobPending, models.JobFailed}},
			"cancelled":      false,
		},
		bson.M{"$set": bson.M{
			"status":       models.JobCancelled,
			"cancelled":    true,
			"cancelled_at": now,
			"updated_at":   now,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("error cancelling reminder jobs for appointment %s: %w", appointmentID, err)
	}
	total := res.ModifiedCount

	flagged, err := r.coll.UpdateMany(ctx,
		bson.M{
			"appointment_id": appointmentID,
			"status":         models.JobProcessing,
			"cancelled":      false,
		},
		bson.M{"$set": bson.M{
			"cancelled":    true,
			"cancelled_at": now,
			"updated_at":   now,
		}},
	)
	if err != nil {
		return total, fmt.Errorf("error flagging in-flight reminder jobs for appointment %s: %w", appointmentID, err)
	}
	return total + flagged.ModifiedCount, nil
}

// ExpireOverdue marks jobs whose scheduled time passed the grace cutoff
// while still pending or processing. Idempotent; a crash mid-sweep leaves
// the remainder for the next pass.
func (r *mongoJobRepo) ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{
			"status":        bson.M{"$in": []models.JobStatus{models.JobPending, models.JobProcessing}},
			"cancelled":     false,
			"scheduled_for": bson.M{"$lt": cutoff},
		},
		bson.M{"$set": bson.M{
			"status":     models.JobExpired,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("error expiring overdue reminder jobs: %w", err)
	}
	return res.ModifiedCount, nil
}
