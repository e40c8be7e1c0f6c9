// File: services/reminder/sweep.go
package reminder

import (
	"context"
	"time"

	reminderRepo "clinicore/database/repository/reminder"
	"clinicore/utils"

	"go.uber.org/zap"
)

const scanBatchSize = 200

// Sweeper runs the periodic maintenance passes: redispatching due jobs
// the queue may have lost, requeueing stranded retries, and expiring jobs
// whose window has passed. Every pass is idempotent.
type Sweeper struct {
	jobs    reminderRepo.JobRepository
	retries RetryEnqueuer
	clock   utils.Clock
	grace   time.Duration
	logger  *zap.Logger
}

// NewSweeper wires the sweeper. grace is how long past its scheduled time
// a job may still be delivered before it expires.
func NewSweeper(jobs reminderRepo.JobRepository, retries RetryEnqueuer, clock utils.Clock, grace time.Duration) *Sweeper {
	if grace <= 0 {
		grace = 10 * time.Minute
	}
	return &Sweeper{
		jobs:    jobs,
		retries: retries,
		clock:   clock,
		grace:   grace,
		logger:  utils.GetLogger().Named("sweeper"),
	}
}

// Scan redispatches due pending jobs and requeues stranded failed jobs.
// The per-job queue tasks are the fast path; this is the safety net that
// makes a crashed worker or a flushed queue survivable.
func (s *Sweeper) Scan(ctx context.Context) error {
	now := s.clock.Now()

	due, err := s.jobs.ListDue(ctx, now, scanBatchSize)
	if err != nil {
		return err
	}
	for i := range due {
		if err := s.retries.EnqueueDispatchAt(due[i].ID, now); err != nil {
			s.logger.Warn("failed to enqueue due job", zap.String("jobID", due[i].ID), zap.Error(err))
		}
	}

	retryable, err := s.jobs.ListRetryable(ctx, now.Add(-RetryDelay(1)), scanBatchSize)
	if err != nil {
		return err
	}
	requeued := 0
	for i := range retryable {
		job := &retryable[i]
		if !job.AppointmentStart.After(now) {
			continue
		}
		if now.Sub(job.LastAttemptAt) < RetryDelay(job.Attempts) {
			continue
		}
		if err := s.jobs.RequeueForRetry(ctx, job.ID, now); err != nil {
			continue
		}
		requeued++
		if err := s.retries.EnqueueDispatchAt(job.ID, now); err != nil {
			s.logger.Warn("failed to enqueue retry", zap.String("jobID", job.ID), zap.Error(err))
		}
	}

	if len(due) > 0 || requeued > 0 {
		s.logger.Info("reminder scan",
			zap.Int("due", len(due)),
			zap.Int("requeued", requeued))
	}
	return nil
}

// Sweep expires jobs that overshot their delivery window by more than the
// grace period, pending and stuck-in-processing alike.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := s.clock.Now().Add(-s.grace)
	expired, err := s.jobs.ExpireOverdue(ctx, cutoff)
	if err != nil {
		return err
	}
	if expired > 0 {
		s.logger.Info("expired overdue reminder jobs", zap.Int64("count", expired))
	}
	return nil
}
