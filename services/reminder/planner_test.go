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

var plannerNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testAppointment(start time.Time) *models.Appointment {
	return &models.Appointment{
		ID:        "appt-1",
		PatientID: "pat-1",
		DoctorID:  "doc-1",
		Start:     start,
		End:       start.Add(30 * time.Minute),
		Status:    models.AppointmentScheduled,
	}
}

func TestPlanDefaultSettings(t *testing.T) {
	planner := NewPlanner(newFakeSettingRepo(), utils.FixedClock{T: plannerNow}, 3)

	// Two days out, so both offsets are in the future.
	appt := testAppointment(plannerNow.Add(48 * time.Hour))
	jobs, err := planner.Plan(context.Background(), appt)
	require.NoError(t, err)

	// Default settings enable email, push and in-app (not SMS) on two
	// offsets: 3 channels x 2 kinds.
	require.Len(t, jobs, 6)

	byKind := map[models.ReminderKind][]models.ReminderJob{}
	for _, j := range jobs {
		assert.Equal(t, models.JobPending, j.Status)
		assert.Equal(t, 3, j.MaxAttempts)
		assert.Equal(t, "appt-1", j.AppointmentID)
		assert.NotEqual(t, models.ChannelSMS, j.Channel)
		byKind[j.Kind] = append(byKind[j.Kind], j)
	}
	require.Len(t, byKind[models.Reminder24h], 3)
	require.Len(t, byKind[models.Reminder2h], 3)
	assert.Equal(t, appt.Start.Add(-24*time.Hour), byKind[models.Reminder24h][0].ScheduledFor)
	assert.Equal(t, appt.Start.Add(-2*time.Hour), byKind[models.Reminder2h][0].ScheduledFor)
}

func TestPlanPastOffsetIsDueImmediately(t *testing.T) {
	planner := NewPlanner(newFakeSettingRepo(), utils.FixedClock{T: plannerNow}, 3)

	// Three hours out: the 24h offset has passed, the 2h one has not.
	appt := testAppointment(plannerNow.Add(3 * time.Hour))
	jobs, err := planner.Plan(context.Background(), appt)
	require.NoError(t, err)
	require.Len(t, jobs, 6)

	for _, j := range jobs {
		switch j.Kind {
		case models.Reminder24h:
			assert.Equal(t, plannerNow, j.ScheduledFor, "passed offset should fire immediately")
		case models.Reminder2h:
			assert.Equal(t, appt.Start.Add(-2*time.Hour), j.ScheduledFor)
		}
	}
}

func TestPlanSkipsStartedAppointment(t *testing.T) {
	planner := NewPlanner(newFakeSettingRepo(), utils.FixedClock{T: plannerNow}, 3)

	appt := testAppointment(plannerNow.Add(-time.Hour))
	jobs, err := planner.Plan(context.Background(), appt)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestPlanNoEnabledChannels(t *testing.T) {
	settings := newFakeSettingRepo()
	require.NoError(t, settings.Update(context.Background(), &models.ReminderSetting{
		UserID: "pat-1", UserType: models.RolePatient,
	}))
	planner := NewPlanner(settings, utils.FixedClock{T: plannerNow}, 3)

	jobs, err := planner.Plan(context.Background(), testAppointment(plannerNow.Add(48*time.Hour)))
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestPlanHonorsPreferredChannels(t *testing.T) {
	settings := newFakeSettingRepo()
	setting := models.DefaultReminderSetting("pat-1", models.RolePatient)
	setting.PreferredChannels = []models.Channel{models.ChannelEmail}
	require.NoError(t, settings.Update(context.Background(), &setting))
	planner := NewPlanner(settings, utils.FixedClock{T: plannerNow}, 3)

	jobs, err := planner.Plan(context.Background(), testAppointment(plannerNow.Add(48*time.Hour)))
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	for _, j := range jobs {
		assert.Equal(t, models.ChannelEmail, j.Channel)
	}
}

func TestPlanManual(t *testing.T) {
	planner := NewPlanner(newFakeSettingRepo(), utils.FixedClock{T: plannerNow}, 3)
	appt := testAppointment(plannerNow.Add(48 * time.Hour))

	jobs, err := planner.PlanManual(context.Background(), appt, []models.Channel{models.ChannelSMS})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ReminderManual, jobs[0].Kind)
	assert.Equal(t, plannerNow, jobs[0].ScheduledFor)

	_, err = planner.PlanManual(context.Background(), appt, []models.Channel{"carrier_pigeon"})
	assert.Error(t, err)

	// With no channels named the enabled ones are used.
	jobs, err = planner.PlanManual(context.Background(), appt, nil)
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
}
