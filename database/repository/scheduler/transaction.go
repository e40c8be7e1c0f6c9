// File: database/repository/scheduler/transaction.go
package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	txnTimeout  = 10 * time.Second
	txnAttempts = 3
)

// runTxn executes fn inside a session transaction, retrying transient
// write conflicts (two bookings racing on one doctor) a bounded number
// of times. Domain errors pass through untouched.
func (repo *MongoSchedulerRepo) runTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := repo.apptColl.Database().Client()

	var lastErr error
	for attempt := 0; attempt < txnAttempts; attempt++ {
		sess, err := client.StartSession()
		if err != nil {
			return fmt.Errorf("could not start mongo session: %w", err)
		}

		txnCtx, cancel := context.WithTimeout(ctx, txnTimeout)
		err = mongo.WithSession(txnCtx, sess, func(sc mongo.SessionContext) error {
			if err := sc.StartTransaction(); err != nil {
				return err
			}
			if err := fn(sc); err != nil {
				_ = sc.AbortTransaction(sc)
				return err
			}
			return sc.CommitTransaction(sc)
		})
		cancel()
		sess.EndSession(ctx)

		if err == nil {
			return nil
		}
		if errors.Is(err, ErrDoctorBusy) || errors.Is(err, ErrSlotBlocked) {
			return err
		}
		lastErr = err
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.HasErrorLabel("TransientTransactionError") {
			continue
		}
		return fmt.Errorf("booking transaction failed: %w", err)
	}
	return fmt.Errorf("booking transaction failed after %d attempts: %w", txnAttempts, lastErr)
}

// serializeDoctor bumps the doctor's booking version inside the transaction.
// Concurrent transactions writing the same counter conflict, so at most one
// conflict check per doctor is in flight at commit time.
func (repo *MongoSchedulerRepo) serializeDoctor(sc mongo.SessionContext, doctorID string) error {
	opts := options.Update().SetUpsert(true)
	_, err := repo.hoursColl.UpdateOne(sc,
		bson.M{"doctor_id": doctorID},
		bson.M{"$inc": bson.M{"booking_version": 1}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("failed to serialize doctor %s: %w", doctorID, err)
	}
	return nil
}

// checkConflicts re-runs the doctor-busy and blocked checks inside the
// session so they observe the transaction's snapshot.
func (repo *MongoSchedulerRepo) checkConflicts(sc mongo.SessionContext, doctorID string, start, end time.Time, excludeID string) error {
	apptFilter := bson.M{
		"doctor_id": doctorID,
		"status":    bson.M{"$nin": models.CancelledStatuses()},
		"deleted":   bson.M{"$ne": true},
		"start":     bson.M{"$lt": end},
		"end":       bson.M{"$gt": start},
	}
	if excludeID != "" {
		apptFilter["id"] = bson.M{"$ne": excludeID}
	}
	busy, err := repo.apptColl.CountDocuments(sc, apptFilter)
	if err != nil {
		return fmt.Errorf("conflict check failed: %w", err)
	}
	if busy > 0 {
		return ErrDoctorBusy
	}

	blocked, err := repo.blockColl.CountDocuments(sc, bson.M{
		"doctor_id": doctorID,
		"start":     bson.M{"$lt": end},
		"end":       bson.M{"$gt": start},
	})
	if err != nil {
		return fmt.Errorf("block check failed: %w", err)
	}
	if blocked > 0 {
		return ErrSlotBlocked
	}
	return nil
}

// cancelJobs flips every non-terminal reminder job for the appointment.
// Pending and failed jobs become cancelled outright; a job already claimed
// by a dispatcher keeps its processing status but carries the cancelled
// flag, so its finalization lands on cancelled instead of sent.
func (repo *MongoSchedulerRepo) cancelJobs(sc mongo.SessionContext, appointmentID string, now time.Time) (int64, error) {
	res, err := repo.jobColl.UpdateMany(sc,
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
		return 0, fmt.Errorf("failed to cancel reminder jobs: %w", err)
	}
	cancelled := res.ModifiedCount

	flagged, err := repo.jobColl.UpdateMany(sc,
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
		return cancelled, fmt.Errorf("failed to flag in-flight reminder jobs: %w", err)
	}
	return cancelled + flagged.ModifiedCount, nil
}

func (repo *MongoSchedulerRepo) insertJobs(sc mongo.SessionContext, jobs []models.ReminderJob) error {
	if len(jobs) == 0 {
		return nil
	}
	docs := make([]interface{}, len(jobs))
	for i := range jobs {
		docs[i] = jobs[i]
	}
	if _, err := repo.jobColl.InsertMany(sc, docs); err != nil {
		return fmt.Errorf("failed to insert reminder jobs: %w", err)
	}
	return nil
}

// BookTransactionally inserts a new appointment and its reminder plan,
// guaranteeing no overlapping booking can commit concurrently.
func (repo *MongoSchedulerRepo) BookTransactionally(ctx context.Context, appt *models.Appointment, jobs []models.ReminderJob) error {
	return repo.runTxn(ctx, func(sc mongo.SessionContext) error {
		if err := repo.serializeDoctor(sc, appt.DoctorID); err != nil {
			return err
		}
		if err := repo.checkConflicts(sc, appt.DoctorID, appt.Start, appt.End, ""); err != nil {
			return err
		}
		if _, err := repo.apptColl.InsertOne(sc, appt); err != nil {
			return fmt.Errorf("insert appointment failed: %w", err)
		}
		return repo.insertJobs(sc, jobs)
	})
}

// RescheduleTransactionally moves an appointment to a new time, cancelling
// the stale reminder plan and installing the new one in the same transaction
// so no window exists where reminders reference the old time.
func (repo *MongoSchedulerRepo) RescheduleTransactionally(ctx context.Context, appt *models.Appointment, newJobs []models.ReminderJob) error {
	return repo.runTxn(ctx, func(sc mongo.SessionContext) error {
		if err := repo.serializeDoctor(sc, appt.DoctorID); err != nil {
			return err
		}
		if err := repo.checkConflicts(sc, appt.DoctorID, appt.Start, appt.End, appt.ID); err != nil {
			return err
		}
		res, err := repo.apptColl.ReplaceOne(sc, bson.M{"id": appt.ID}, appt)
		if err != nil {
			return fmt.Errorf("update appointment failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return mongo.ErrNoDocuments
		}
		if _, err := repo.cancelJobs(sc, appt.ID, appt.UpdatedAt); err != nil {
			return err
		}
		return repo.insertJobs(sc, newJobs)
	})
}

// CancelTransactionally persists a cancellation and flips every outstanding
// reminder job for the appointment in one transaction.
func (repo *MongoSchedulerRepo) CancelTransactionally(ctx context.Context, appt *models.Appointment) (int64, error) {
	var cancelled int64
	err := repo.runTxn(ctx, func(sc mongo.SessionContext) error {
		res, err := repo.apptColl.ReplaceOne(sc, bson.M{"id": appt.ID}, appt)
		if err != nil {
			return fmt.Errorf("update appointment failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return mongo.ErrNoDocuments
		}
		cancelled, err = repo.cancelJobs(sc, appt.ID, appt.UpdatedAt)
		return err
	})
	return cancelled, err
}
