package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus reports the dependencies the clinic backend cannot run
// without: the appointment store, the availability cache, and the Redis
// instance backing the reminder delivery queue.
type HealthStatus struct {
	Mongo             bool      `json:"mongo"`
	AvailabilityCache bool      `json:"availabilityCache"`
	ReminderQueue     bool      `json:"reminderQueue"`
	CheckedAt         time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns the latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	return currentHealth
}

// StartHealthMonitor pings each dependency once a minute and keeps the
// snapshot the /health endpoint serves. A degraded dependency does not
// stop the server; booked reminders survive in Mongo until the queue
// comes back.
func StartHealthMonitor(mongoClient *mongo.Client, cache, queue *redis.Client) {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

			status := HealthStatus{
				Mongo:             mongoClient.Ping(ctx, nil) == nil,
				AvailabilityCache: cache.Ping(ctx).Err() == nil,
				ReminderQueue:     queue.Ping(ctx).Err() == nil,
				CheckedAt:         time.Now(),
			}
			cancel()

			healthMu.Lock()
			currentHealth = status
			healthMu.Unlock()
		}
	}()
}
