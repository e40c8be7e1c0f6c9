package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"clinicore/config"
	"clinicore/services/reminder"
	"clinicore/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitReminderWorker runs the async worker and the periodic scheduler in
// the background. The worker handles per-job dispatch tasks; the scheduler
// fires the scan and sweep passes that keep the job table honest.
func InitReminderWorker(dispatcher *reminder.Dispatcher, sweeper *reminder.Sweeper) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeReminderDispatch, handleDispatchTask(dispatcher))
	mux.HandleFunc(tasks.TypeReminderScan, func(ctx context.Context, _ *asynq.Task) error {
		return sweeper.Scan(ctx)
	})
	mux.HandleFunc(tasks.TypeReminderSweep, func(ctx context.Context, _ *asynq.Task) error {
		return sweeper.Sweep(ctx)
	})

	// Start Redis health monitor
	go monitorRedisConnection()

	go runPeriodicScheduler(redisOpts)

	// Start async worker with retry logic
	go func() {
		log.Println("[ReminderWorker] 🚀 Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ReminderWorker] ❌ Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ReminderWorker] ❗ Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleDispatchTask(dispatcher *reminder.Dispatcher) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.DispatchPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[DispatchHandler] 🔴 Invalid payload: %v", err)
			return err
		}
		if err := dispatcher.Dispatch(ctx, p.JobID); err != nil {
			log.Printf("[DispatchHandler] ❌ Dispatch failed for job %s: %v", p.JobID, err)
			return err
		}
		return nil
	}
}

// runPeriodicScheduler registers the recurring scan and sweep tasks. The
// scan redispatches anything the queue lost; the sweep expires jobs whose
// delivery window has passed.
func runPeriodicScheduler(redisOpts asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redisOpts, nil)

	if _, err := scheduler.Register("@every 1m", asynq.NewTask(tasks.TypeReminderScan, nil)); err != nil {
		log.Printf("[ReminderScheduler] ❌ Failed to register scan: %v", err)
	}
	if _, err := scheduler.Register("@every 5m", asynq.NewTask(tasks.TypeReminderSweep, nil)); err != nil {
		log.Printf("[ReminderScheduler] ❌ Failed to register sweep: %v", err)
	}

	log.Println("[ReminderScheduler] 🚀 Starting periodic scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Printf("[ReminderScheduler] ❌ Scheduler stopped: %v", err)
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[ReminderWorker] ⚠️ Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
