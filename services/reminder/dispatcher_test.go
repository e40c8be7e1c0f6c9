package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinicore/models"
	"clinicore/services/directory"
	"clinicore/services/notification"
	"clinicore/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dispatchNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type dispatchFixture struct {
	dispatcher *Dispatcher
	jobs       *fakeJobRepo
	logs       *fakeLogRepo
	users      *fakeUserRepo
	analytics  *fakeAnalyticsRepo
	retries    *fakeRetryEnqueuer
	email      *fakeTransport
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	jobs := newFakeJobRepo()
	logs := &fakeLogRepo{}
	users := newFakeUserRepo()
	analyticsRows := newFakeAnalyticsRepo()
	retries := newFakeRetryEnqueuer()
	email := &fakeTransport{channel: models.ChannelEmail}
	clock := utils.FixedClock{T: dispatchNow}

	users.put(models.User{ID: "pat-1", Role: models.RolePatient, FirstName: "Ada", Email: "ada@example.com"})
	users.put(models.User{ID: "doc-1", Role: models.RoleDoctor, FirstName: "Grace", LastName: "Hopper"})

	dispatcher := NewDispatcher(jobs, logs, directory.NewUserDirectory(users),
		[]notification.Transport{email}, NewAnalyticsService(analyticsRows, clock),
		retries, clock, time.Second)
	return &dispatchFixture{
		dispatcher: dispatcher, jobs: jobs, logs: logs, users: users,
		analytics: analyticsRows, retries: retries, email: email,
	}
}

func pendingJob(id string) models.ReminderJob {
	return models.ReminderJob{
		ID:               id,
		AppointmentID:    "appt-1",
		UserID:           "pat-1",
		DoctorID:         "doc-1",
		AppointmentStart: dispatchNow.Add(24 * time.Hour),
		Channel:          models.ChannelEmail,
		Kind:             models.Reminder24h,
		ScheduledFor:     dispatchNow,
		Status:           models.JobPending,
		MaxAttempts:      3,
	}
}

func TestDispatchSuccess(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.jobs.put(pendingJob("j1"))

	require.NoError(t, fx.dispatcher.Dispatch(context.Background(), "j1"))

	job := fx.jobs.get("j1")
	assert.Equal(t, models.JobSent, job.Status)
	assert.Equal(t, 1, job.Attempts)

	require.Len(t, fx.email.sent, 1)
	assert.Contains(t, fx.email.sent[0].Body, "Dr. Grace Hopper")

	require.Len(t, fx.logs.entries, 1)
	assert.Equal(t, models.DeliverySent, fx.logs.entries[0].DeliveryStatus)
	assert.NotEmpty(t, fx.logs.entries[0].TrackingToken)
	assert.Equal(t, 0, fx.logs.entries[0].RetryCount)

	rows, err := fx.analytics.Query(context.Background(), "doc-1", "2025-06-01", "2025-06-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Sent)
	assert.Equal(t, 1, rows[0].ByChannel["email"].Sent)
}

func TestDispatchDuplicateTasksCollapse(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.jobs.put(pendingJob("j1"))

	require.NoError(t, fx.dispatcher.Dispatch(context.Background(), "j1"))
	// A redundant queue task for the same job is a quiet no-op.
	require.NoError(t, fx.dispatcher.Dispatch(context.Background(), "j1"))

	assert.Len(t, fx.email.sent, 1)
	assert.Len(t, fx.logs.entries, 1)
}

func TestDispatchConcurrentTasksSendOnce(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.jobs.put(pendingJob("j1"))

	// Two workers pick up duplicate queue tasks for the same job at the
	// same time. The claim is atomic, so exactly one of them delivers.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, fx.dispatcher.Dispatch(context.Background(), "j1"))
		}()
	}
	wg.Wait()

	assert.Len(t, fx.email.sent, 1)
	assert.Len(t, fx.logs.entries, 1)

	job := fx.jobs.get("j1")
	assert.Equal(t, models.JobSent, job.Status)
	assert.Equal(t, 1, job.Attempts)
}

func TestDispatchMissingJobIsNoop(t *testing.T) {
	fx := newDispatchFixture(t)
	require.NoError(t, fx.dispatcher.Dispatch(context.Background(), "ghost"))
	assert.Empty(t, fx.email.sent)
}

func TestDispatchFailureSchedulesRetry(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.jobs.put(pendingJob("j1"))
	fx.email.err = errors.New("smtp connection refused")

	require.NoError(t, fx.dispatcher.Dispatch(context.Background(), "j1"))

	// One attempt down, requeued with the first backoff step.
	job := fx.jobs.get("j1")
	assert.Equal(t, models.JobPending, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, dispatchNow.Add(RetryDelay(1)), job.ScheduledFor)

	require.Len(t, fx.retries.enqueued, 1)
	assert.Equal(t, dispatchNow.Add(RetryDelay(1)), fx.retries.fireAt["j1"])

	require.Len(t, fx.logs.entries, 1)
	assert.Equal(t, models.DeliveryFailed, fx.logs.entries[0].DeliveryStatus)
	assert.Equal(t, "smtp connection refused", fx.logs.entries[0].ErrorMessage)
}

func TestDispatchExhaustsRetries(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.email.err = errors.New("smtp connection refused")

	job := pendingJob("j1")
	job.Attempts = 2 // the claim makes this the third and final attempt
	fx.jobs.put(job)

	require.NoError(t, fx.dispatcher.Dispatch(context.Background(), "j1"))

	final := fx.jobs.get("j1")
	assert.Equal(t, models.JobFailed, final.Status)
	assert.Equal(t, 3, final.Attempts)
	assert.Empty(t, fx.retries.enqueued)

	rows, err := fx.analytics.Query(context.Background(), "doc-1", "2025-06-01", "2025-06-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Failed)
}

func TestDispatchCancelledInFlight(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.jobs.put(pendingJob("j1"))

	// The appointment is cancelled while the transport is sending: the job
	// must finalize as cancelled, never sent.
	fx.email.onSend = func() {
		_, err := fx.jobs.CancelByAppointment(context.Background(), "appt-1", dispatchNow)
		require.NoError(t, err)
	}

	require.NoError(t, fx.dispatcher.Dispatch(context.Background(), "j1"))

	job := fx.jobs.get("j1")
	assert.Equal(t, models.JobCancelled, job.Status)
	assert.True(t, job.Cancelled)

	require.Len(t, fx.logs.entries, 1)
	assert.Equal(t, models.DeliveryCancelled, fx.logs.entries[0].DeliveryStatus)

	// No dispatch counters for a cancelled delivery.
	rows, err := fx.analytics.Query(context.Background(), "doc-1", "2025-06-01", "2025-06-01")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDispatchCancelledJobNotClaimed(t *testing.T) {
	fx := newDispatchFixture(t)
	job := pendingJob("j1")
	fx.jobs.put(job)
	_, err := fx.jobs.CancelByAppointment(context.Background(), "appt-1", dispatchNow)
	require.NoError(t, err)

	require.NoError(t, fx.dispatcher.Dispatch(context.Background(), "j1"))
	assert.Empty(t, fx.email.sent)
	assert.Equal(t, models.JobCancelled, fx.jobs.get("j1").Status)
}

func TestDispatchStaleAppointment(t *testing.T) {
	fx := newDispatchFixture(t)
	job := pendingJob("j1")
	job.AppointmentStart = dispatchNow.Add(-time.Hour)
	fx.jobs.put(job)

	require.NoError(t, fx.dispatcher.Dispatch(context.Background(), "j1"))

	final := fx.jobs.get("j1")
	assert.Equal(t, models.JobFailed, final.Status)
	assert.Equal(t, "appointment start already passed", final.FailureReason)
	assert.Empty(t, fx.email.sent)
	assert.Empty(t, fx.retries.enqueued, "a started appointment is never retried")
}

func TestDispatchNoTransportForChannel(t *testing.T) {
	fx := newDispatchFixture(t)
	job := pendingJob("j1")
	job.Channel = models.ChannelSMS
	fx.jobs.put(job)

	require.NoError(t, fx.dispatcher.Dispatch(context.Background(), "j1"))
	assert.Equal(t, models.JobPending, fx.jobs.get("j1").Status, "requeued for retry")
	require.Len(t, fx.logs.entries, 1)
	assert.Contains(t, fx.logs.entries[0].ErrorMessage, "no transport")
}
