// File: database/repository/block/block_mongo.go
package blockRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const opTimeout = 5 * time.Second

func (r *mongoBlockRepo) Create(ctx context.Context, block *models.TimeBlock) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, block); err != nil {
		return fmt.Errorf("error creating time block: %w", err)
	}
	return nil
}

func (r *mongoBlockRepo) CreateMany(ctx context.Context, blocks []models.TimeBlock) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	docs := make([]interface{}, len(blocks))
	for i := range blocks {
		docs[i] = blocks[i]
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("error creating time block series: %w", err)
	}
	return nil
}

func (r *mongoBlockRepo) GetByID(ctx context.Context, id string) (*models.TimeBlock, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var block models.TimeBlock
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&block)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("error fetching time block %s: %w", id, err)
	}
	return &block, nil
}

func (r *mongoBlockRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("error deleting time block %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteByRecurrenceID removes every occurrence of a recurring series that
// starts at or after the given time. Past occurrences are kept for history.
func (r *mongoBlockRepo) DeleteByRecurrenceID(ctx context.Context, recurrenceID string, from time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{
		"recurrence_id": recurrenceID,
		"start":         bson.M{"$gte": from},
	})
	if err != nil {
		return 0, fmt.Errorf("error deleting recurring block group %s: %w", recurrenceID, err)
	}
	return res.DeletedCount, nil
}

func (r *mongoBlockRepo) ListByDoctorAndRange(ctx context.Context, doctorID string, from, to time.Time) ([]models.TimeBlock, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"doctor_id": doctorID,
		"start":     bson.M{"$lt": to},
		"end":       bson.M{"$gt": from},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing time blocks for doctor %s: %w", doctorID, err)
	}
	defer cursor.Close(ctx)

	var blocks []models.TimeBlock
	if err := cursor.All(ctx, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *mongoBlockRepo) CountOverlapping(ctx context.Context, doctorID string, start, end time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"doctor_id": doctorID,
		"start":     bson.M{"$lt": end},
		"end":       bson.M{"$gt": start},
	}
	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting overlapping blocks: %w", err)
	}
	return count, nil
}
