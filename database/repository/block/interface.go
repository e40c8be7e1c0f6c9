// File: database/repository/block/interface.go
package blockRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/database"
	"clinicore/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BlockRepository stores concrete time-block occurrences. Recurring blocks
// are expanded before they reach this layer, so every row is a plain interval.
type BlockRepository interface {
	Create(ctx context.Context, block *models.TimeBlock) error
	CreateMany(ctx context.Context, blocks []models.TimeBlock) error
	GetByID(ctx context.Context, id string) (*models.TimeBlock, error)
	Delete(ctx context.Context, id string) error
	DeleteByRecurrenceID(ctx context.Context, recurrenceID string, from time.Time) (int64, error)
	ListByDoctorAndRange(ctx context.Context, doctorID string, from, to time.Time) ([]models.TimeBlock, error)
	CountOverlapping(ctx context.Context, doctorID string, start, end time.Time) (int64, error)
}

type mongoBlockRepo struct {
	coll *mongo.Collection
}

// NewMongoBlockRepo constructs a MongoDB BlockRepository.
func NewMongoBlockRepo() BlockRepository {
	repo := &mongoBlockRepo{coll: database.DB().Collection("time_blocks")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create time block indexes: %v\n", err)
	}
	return repo
}
