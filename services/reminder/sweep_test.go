package reminder

import (
	"context"
	"testing"
	"time"

	"clinicore/models"
	"clinicore/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sweepNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newSweepFixture() (*Sweeper, *fakeJobRepo, *fakeRetryEnqueuer) {
	jobs := newFakeJobRepo()
	retries := newFakeRetryEnqueuer()
	return NewSweeper(jobs, retries, utils.FixedClock{T: sweepNow}, 10*time.Minute), jobs, retries
}

func sweepJob(id string, status models.JobStatus, scheduledFor time.Time) models.ReminderJob {
	return models.ReminderJob{
		ID:               id,
		AppointmentID:    "appt-" + id,
		UserID:           "pat-1",
		DoctorID:         "doc-1",
		AppointmentStart: sweepNow.Add(24 * time.Hour),
		Channel:          models.ChannelEmail,
		Kind:             models.Reminder24h,
		ScheduledFor:     scheduledFor,
		Status:           status,
		MaxAttempts:      3,
	}
}

func TestScanRedispatchesDueJobs(t *testing.T) {
	sweeper, jobs, retries := newSweepFixture()

	jobs.put(sweepJob("due", models.JobPending, sweepNow.Add(-time.Minute)))
	jobs.put(sweepJob("later", models.JobPending, sweepNow.Add(time.Hour)))

	cancelled := sweepJob("gone", models.JobPending, sweepNow.Add(-time.Minute))
	cancelled.Cancelled = true
	cancelled.Status = models.JobCancelled
	jobs.put(cancelled)

	require.NoError(t, sweeper.Scan(context.Background()))
	assert.Equal(t, []string{"due"}, retries.enqueued)
}

func TestScanRequeuesStrandedRetries(t *testing.T) {
	sweeper, jobs, retries := newSweepFixture()

	// Failed 20 minutes ago with one attempt: the 1-minute backoff has long
	// passed and no retry task ever fired.
	stranded := sweepJob("stranded", models.JobFailed, sweepNow.Add(-30*time.Minute))
	stranded.Attempts = 1
	stranded.LastAttemptAt = sweepNow.Add(-20 * time.Minute)
	jobs.put(stranded)

	// Failed seconds ago: its backoff window is still open.
	recent := sweepJob("recent", models.JobFailed, sweepNow.Add(-time.Minute))
	recent.Attempts = 1
	recent.LastAttemptAt = sweepNow.Add(-10 * time.Second)
	jobs.put(recent)

	// Out of attempts: permanently failed.
	exhausted := sweepJob("exhausted", models.JobFailed, sweepNow.Add(-30*time.Minute))
	exhausted.Attempts = 3
	exhausted.LastAttemptAt = sweepNow.Add(-20 * time.Minute)
	jobs.put(exhausted)

	// The appointment already started: retrying is pointless.
	started := sweepJob("started", models.JobFailed, sweepNow.Add(-30*time.Minute))
	started.Attempts = 1
	started.LastAttemptAt = sweepNow.Add(-20 * time.Minute)
	started.AppointmentStart = sweepNow.Add(-time.Hour)
	jobs.put(started)

	require.NoError(t, sweeper.Scan(context.Background()))

	assert.Equal(t, []string{"stranded"}, retries.enqueued)
	assert.Equal(t, models.JobPending, jobs.get("stranded").Status)
	assert.Equal(t, models.JobFailed, jobs.get("recent").Status)
	assert.Equal(t, models.JobFailed, jobs.get("exhausted").Status)
	assert.Equal(t, models.JobFailed, jobs.get("started").Status)
}

func TestSweepExpiresOverdueJobs(t *testing.T) {
	sweeper, jobs, _ := newSweepFixture()

	jobs.put(sweepJob("old-pending", models.JobPending, sweepNow.Add(-time.Hour)))
	jobs.put(sweepJob("stuck", models.JobProcessing, sweepNow.Add(-time.Hour)))
	// Within the 10-minute grace: still deliverable.
	jobs.put(sweepJob("fresh", models.JobPending, sweepNow.Add(-5*time.Minute)))
	jobs.put(sweepJob("future", models.JobPending, sweepNow.Add(time.Hour)))

	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Equal(t, models.JobExpired, jobs.get("old-pending").Status)
	assert.Equal(t, models.JobExpired, jobs.get("stuck").Status)
	assert.Equal(t, models.JobPending, jobs.get("fresh").Status)
	assert.Equal(t, models.JobPending, jobs.get("future").Status)
}
