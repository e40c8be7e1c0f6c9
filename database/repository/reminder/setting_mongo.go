// File: database/repository/reminder/setting_mongo.go
package reminderRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetOrCreate returns the user's reminder settings, inserting the defaults
// on first need. The upsert keeps concurrent first reads from racing.
func (r *mongoSettingRepo) GetOrCreate(ctx context.Context, userID string, userType models.Role) (*models.ReminderSetting, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	defaults := models.DefaultReminderSetting(userID, userType)
	defaults.UpdatedAt = time.Now().UTC()

	filter := bson.M{"user_id": userID, "user_type": userType}
	update := bson.M{"$setOnInsert": defaults}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var setting models.ReminderSetting
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&setting); err != nil {
		return nil, fmt.Errorf("error loading reminder settings for user %s: %w", userID, err)
	}
	return &setting, nil
}

func (r *mongoSettingRepo) Update(ctx context.Context, setting *models.ReminderSetting) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	setting.UpdatedAt = time.Now().UTC()
	filter := bson.M{"user_id": setting.UserID, "user_type": setting.UserType}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, filter, setting, opts); err != nil {
		return fmt.Errorf("error updating reminder settings for user %s: %w", setting.UserID, err)
	}
	return nil
}
