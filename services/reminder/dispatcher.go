// File: services/reminder/dispatcher.go
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	reminderRepo "clinicore/database/repository/reminder"
	"clinicore/models"
	"clinicore/services/directory"
	"clinicore/services/notification"
	"clinicore/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RetryEnqueuer schedules a future dispatch for a requeued job.
type RetryEnqueuer interface {
	EnqueueDispatchAt(jobID string, fireAt time.Time) error
}

// Dispatcher executes one reminder job end to end: claim, render, send,
// finalize, log, count. The claim is atomic, so duplicate dispatch tasks
// for the same job collapse to a single delivery.
type Dispatcher struct {
	jobs       reminderRepo.JobRepository
	logs       reminderRepo.LogRepository
	users      *directory.UserDirectory
	transports map[models.Channel]notification.Transport
	analytics  *AnalyticsService
	retries    RetryEnqueuer
	clock      utils.Clock
	timeout    time.Duration
	logger     *zap.Logger
}

// NewDispatcher wires the dispatcher.
func NewDispatcher(
	jobs reminderRepo.JobRepository,
	logs reminderRepo.LogRepository,
	users *directory.UserDirectory,
	transports []notification.Transport,
	analytics *AnalyticsService,
	retries RetryEnqueuer,
	clock utils.Clock,
	transportTimeout time.Duration,
) *Dispatcher {
	byChannel := make(map[models.Channel]notification.Transport, len(transports))
	for _, t := range transports {
		byChannel[t.Channel()] = t
	}
	if transportTimeout <= 0 {
		transportTimeout = 15 * time.Second
	}
	return &Dispatcher{
		jobs:       jobs,
		logs:       logs,
		users:      users,
		transports: byChannel,
		analytics:  analytics,
		retries:    retries,
		clock:      clock,
		timeout:    transportTimeout,
		logger:     utils.GetLogger().Named("dispatcher"),
	}
}

// Dispatch delivers the job with the given ID. Returning nil for a
// non-claimable job is deliberate: it means another worker already
// handled it, or the job was cancelled or expired.
func (d *Dispatcher) Dispatch(ctx context.Context, jobID string) error {
	now := d.clock.Now()
	job, err := d.jobs.Claim(ctx, jobID, now)
	if err != nil {
		if errors.Is(err, reminderRepo.ErrNotClaimable) {
			d.logger.Debug("job not claimable, skipping", zap.String("jobID", jobID))
			return nil
		}
		return err
	}

	// A reminder for an appointment that already started is worthless.
	if !job.AppointmentStart.After(now) {
		if _, err := d.jobs.MarkFailed(ctx, job.ID, "appointment start already passed", now); err != nil {
			return err
		}
		return nil
	}

	patient, err := d.users.Get(ctx, job.UserID)
	if err != nil {
		return d.finishFailed(ctx, job, fmt.Sprintf("could not resolve recipient: %v", err))
	}
	doctor, err := d.users.Get(ctx, job.DoctorID)
	if err != nil {
		// Content falls back to a generic doctor name.
		doctor = nil
	}

	transport, ok := d.transports[job.Channel]
	if !ok {
		return d.finishFailed(ctx, job, fmt.Sprintf("no transport for channel %s", job.Channel))
	}

	content := RenderContent(job, patient, doctor)
	msg := &notification.Message{
		User:    patient,
		Subject: content.Subject,
		Body:    content.Body,
		Data:    content.Data,
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	sendErr := transport.Send(sendCtx, msg)
	cancel()

	if sendErr != nil {
		return d.finishFailed(ctx, job, sendErr.Error())
	}
	return d.finishSent(ctx, job)
}

// SendTest delivers a sample message outside the job lifecycle, for users
// verifying their channel configuration.
func (d *Dispatcher) SendTest(ctx context.Context, user *models.User, channel models.Channel) error {
	transport, ok := d.transports[channel]
	if !ok {
		return fmt.Errorf("no transport for channel %s", channel)
	}
	msg := &notification.Message{
		User:    user,
		Subject: "Test reminder",
		Body:    "This is a test reminder from your clinic. Your notification settings are working.",
		Data:    map[string]string{"test": "true"},
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return transport.Send(sendCtx, msg)
}

// finishSent finalizes a successful send. If the job was cancelled while
// the send was in flight it lands on cancelled, and the log records that
// the delivery raced a cancellation.
func (d *Dispatcher) finishSent(ctx context.Context, job *models.ReminderJob) error {
	now := d.clock.Now()
	status, err := d.jobs.MarkSent(ctx, job.ID, now)
	if err != nil {
		return err
	}

	entry := d.newLog(job, now)
	if status == models.JobCancelled {
		entry.DeliveryStatus = models.DeliveryCancelled
		entry.ErrorMessage = "appointment cancelled while dispatch was in flight"
	} else {
		entry.DeliveryStatus = models.DeliverySent
		entry.SentAt = now
	}
	if err := d.logs.Create(ctx, entry); err != nil {
		d.logger.Warn("failed to write reminder log", zap.String("jobID", job.ID), zap.Error(err))
	}

	if status == models.JobSent {
		d.analytics.RecordDispatch(ctx, job.DoctorID, job.Channel, true)
		d.logger.Info("reminder sent",
			zap.String("jobID", job.ID),
			zap.String("channel", string(job.Channel)),
			zap.Int("attempt", job.Attempts))
	}
	return nil
}

// finishFailed finalizes a failed attempt and, while attempts remain,
// requeues the job with backoff.
func (d *Dispatcher) finishFailed(ctx context.Context, job *models.ReminderJob, reason string) error {
	now := d.clock.Now()
	status, err := d.jobs.MarkFailed(ctx, job.ID, reason, now)
	if err != nil {
		return err
	}

	entry := d.newLog(job, now)
	entry.DeliveryStatus = models.DeliveryFailed
	entry.ErrorMessage = reason
	if status == models.JobCancelled {
		entry.DeliveryStatus = models.DeliveryCancelled
	}
	if err := d.logs.Create(ctx, entry); err != nil {
		d.logger.Warn("failed to write reminder log", zap.String("jobID", job.ID), zap.Error(err))
	}

	if status != models.JobFailed {
		return nil
	}
	d.analytics.RecordDispatch(ctx, job.DoctorID, job.Channel, false)
	d.logger.Warn("reminder delivery failed",
		zap.String("jobID", job.ID),
		zap.String("channel", string(job.Channel)),
		zap.Int("attempt", job.Attempts),
		zap.String("reason", reason))

	if job.Attempts >= job.MaxAttempts || !job.AppointmentStart.After(now) {
		return nil
	}
	retryAt := now.Add(RetryDelay(job.Attempts))
	if err := d.jobs.RequeueForRetry(ctx, job.ID, retryAt); err != nil {
		if errors.Is(err, reminderRepo.ErrNotClaimable) {
			return nil
		}
		return err
	}
	if err := d.retries.EnqueueDispatchAt(job.ID, retryAt); err != nil {
		d.logger.Warn("failed to enqueue retry, scan will pick it up",
			zap.String("jobID", job.ID), zap.Error(err))
	}
	return nil
}

func (d *Dispatcher) newLog(job *models.ReminderJob, now time.Time) *models.ReminderLog {
	trigger := models.TriggerAutomatic
	if job.Kind == models.ReminderManual {
		trigger = models.TriggerManual
	}
	return &models.ReminderLog{
		ID:            uuid.NewString(),
		JobID:         job.ID,
		AppointmentID: job.AppointmentID,
		UserID:        job.UserID,
		DoctorID:      job.DoctorID,
		Channel:       job.Channel,
		TriggerType:   trigger,
		ScheduledAt:   job.ScheduledFor,
		RetryCount:    job.Attempts - 1,
		TrackingToken: uuid.NewString(),
		CreatedAt:     now,
	}
}
