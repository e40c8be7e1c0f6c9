// File: database/repository/reminder/analytics_mongo.go
package reminderRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Increment atomically bumps the named counters on the (date, doctor) row,
// creating it on first touch, and returns the updated document so the
// caller can recompute and persist rates.
func (r *mongoAnalyticsRepo) Increment(ctx context.Context, date, doctorID string, fields map[string]int) (*models.ReminderAnalytics, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	inc := bson.M{}
	for field, delta := range fields {
		inc[field] = delta
	}
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"updated_at": time.Now().UTC()},
		"$setOnInsert": bson.M{
			"date":      date,
			"doctor_id": doctorID,
		},
	}
	filter := bson.M{"date": date, "doctor_id": doctorID}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var row models.ReminderAnalytics
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&row); err != nil {
		return nil, fmt.Errorf("error incrementing reminder analytics for doctor %s on %s: %w", doctorID, date, err)
	}
	return &row, nil
}

func (r *mongoAnalyticsRepo) SetRates(ctx context.Context, a *models.ReminderAnalytics) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"date": a.Date, "doctor_id": a.DoctorID},
		bson.M{"$set": bson.M{
			"delivery_rate":   a.DeliveryRate,
			"open_rate":       a.OpenRate,
			"click_rate":      a.ClickRate,
			"attendance_rate": a.AttendanceRate,
			"updated_at":      time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("error setting reminder analytics rates for doctor %s on %s: %w", a.DoctorID, a.Date, err)
	}
	return nil
}

// Query returns the rows for a doctor between two dates inclusive.
// Dates compare lexicographically because they use the "2006-01-02" form.
func (r *mongoAnalyticsRepo) Query(ctx context.Context, doctorID string, from, to string) ([]models.ReminderAnalytics, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"date": bson.M{"$gte": from, "$lte": to}}
	if doctorID != "" {
		filter["doctor_id"] = doctorID
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying reminder analytics: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.ReminderAnalytics
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
