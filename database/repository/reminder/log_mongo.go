// File: database/repository/reminder/log_mongo.go
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

func (r *mongoLogRepo) Create(ctx context.Context, entry *models.ReminderLog) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("error creating reminder log: %w", err)
	}
	return nil
}

func (r *mongoLogRepo) GetByAppointment(ctx context.Context, appointmentID string) ([]models.ReminderLog, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"appointment_id": appointmentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching reminder logs for appointment %s: %w", appointmentID, err)
	}
	defer cursor.Close(ctx)

	var logs []models.ReminderLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// MarkEngagement updates a log entry via its tracking token. Event is one
// of "delivered", "opened", "clicked"; the matching timestamp is set once
// and the delivery status is advanced.
func (r *mongoLogRepo) MarkEngagement(ctx context.Context, trackingToken, event string, now time.Time) (*models.ReminderLog, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	set := bson.M{}
	switch event {
	case "delivered":
		set["delivered_at"] = now
		set["delivery_status"] = models.DeliveryDelivered
	case "opened":
		set["opened_at"] = now
	case "clicked":
		set["clicked_at"] = now
	default:
		return nil, fmt.Errorf("unknown engagement event %q", event)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var entry models.ReminderLog
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"tracking_token": trackingToken}, bson.M{"$set": set}, opts).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("error updating reminder log by token: %w", err)
	}
	return &entry, nil
}

func (r *mongoLogRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "appointment_id", Value: 1}},
			Options: options.Index().SetName("appointment_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "sent_at", Value: 1}},
			Options: options.Index().SetName("user_sent_idx"),
		},
		{
			Keys:    bson.D{{Key: "tracking_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_token"),
		},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create reminder log indexes: %w", err)
	}
	return nil
}
