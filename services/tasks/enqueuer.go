// File: services/tasks/enqueuer.go
package tasks

import (
	"fmt"
	"time"

	"clinicore/config"
	"clinicore/models"

	"github.com/hibiken/asynq"
)

// Enqueuer pushes reminder dispatch tasks onto the Redis-backed queue.
// Enqueueing is best effort: jobs are already durable in Mongo and the
// periodic scan redispatches anything the queue loses.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer builds the queue client from configuration.
func NewEnqueuer() *Enqueuer {
	return &Enqueuer{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisReminderQueueDB,
		}),
	}
}

// EnqueueDispatch schedules a dispatch task per job at its scheduled time.
func (e *Enqueuer) EnqueueDispatch(jobs []models.ReminderJob) error {
	for i := range jobs {
		if err := e.EnqueueDispatchAt(jobs[i].ID, jobs[i].ScheduledFor); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueDispatchAt schedules one dispatch task for an arbitrary time,
// used by the retry path.
func (e *Enqueuer) EnqueueDispatchAt(jobID string, fireAt time.Time) error {
	task, opts, err := NewDispatchTask(jobID, fireAt)
	if err != nil {
		return fmt.Errorf("could not build dispatch task: %w", err)
	}
	if _, err := e.client.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("could not enqueue dispatch task for job %s: %w", jobID, err)
	}
	return nil
}

// Close releases the queue connection.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
