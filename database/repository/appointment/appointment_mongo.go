// File: database/repository/appointment/appointment_mongo.go
package apptRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const opTimeout = 5 * time.Second

// activeStatusFilter excludes cancelled and soft-deleted appointments.
func activeStatusFilter() bson.M {
	return bson.M{
		"status":  bson.M{"$nin": models.CancelledStatuses()},
		"deleted": bson.M{"$ne": true},
	}
}

func (r *mongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var appt models.Appointment
	err := r.coll.FindOne(ctx, bson.M{"id": id, "deleted": bson.M{"$ne": true}}).Decode(&appt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("error fetching appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (r *mongoAppointmentRepo) Update(ctx context.Context, appt *models.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": appt.ID}, appt)
	if err != nil {
		return fmt.Errorf("error updating appointment %s: %w", appt.ID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoAppointmentRepo) SoftDelete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("error soft-deleting appointment %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoAppointmentRepo) ListByDoctorAndRange(ctx context.Context, doctorID string, from, to time.Time) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := activeStatusFilter()
	filter["doctor_id"] = doctorID
	filter["start"] = bson.M{"$lt": to}
	filter["end"] = bson.M{"$gt": from}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing appointments for doctor %s: %w", doctorID, err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// CountOverlapping counts non-cancelled appointments overlapping [start, end)
// for the doctor, optionally excluding one appointment (the one being updated).
func (r *mongoAppointmentRepo) CountOverlapping(ctx context.Context, doctorID string, start, end time.Time, excludeID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := activeStatusFilter()
	filter["doctor_id"] = doctorID
	filter["start"] = bson.M{"$lt": end}
	filter["end"] = bson.M{"$gt": start}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting overlapping appointments: %w", err)
	}
	return count, nil
}

func (r *mongoAppointmentRepo) CountUpcoming(ctx context.Context, doctorID, patientID string, after time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := activeStatusFilter()
	filter["doctor_id"] = doctorID
	filter["patient_id"] = patientID
	filter["start"] = bson.M{"$gt": after}

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting upcoming appointments: %w", err)
	}
	return count, nil
}

func (r *mongoAppointmentRepo) HasActiveOnDay(ctx context.Context, doctorID, patientID string, dayStart, dayEnd time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := activeStatusFilter()
	filter["doctor_id"] = doctorID
	filter["patient_id"] = patientID
	filter["start"] = bson.M{"$gte": dayStart, "$lt": dayEnd}

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("error checking same-day appointments: %w", err)
	}
	return count > 0, nil
}

func (r *mongoAppointmentRepo) CountPatientCancellationsSince(ctx context.Context, patientID string, since time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"patient_id": patientID,
		"status":     models.AppointmentCancelledByPatient,
		"updated_at": bson.M{"$gte": since},
	}
	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting patient cancellations: %w", err)
	}
	return count, nil
}
