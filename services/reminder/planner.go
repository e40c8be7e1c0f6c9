// File: services/reminder/planner.go
package reminder

import (
	"context"
	"fmt"
	"time"

	reminderRepo "clinicore/database/repository/reminder"
	"clinicore/models"
	"clinicore/utils"

	"github.com/google/uuid"
)

// Planner turns an appointment into its reminder jobs, one per enabled
// channel per reminder offset, honoring the patient's preferences.
type Planner struct {
	settings    reminderRepo.SettingRepository
	clock       utils.Clock
	maxAttempts int
}

// NewPlanner wires the planner.
func NewPlanner(settings reminderRepo.SettingRepository, clock utils.Clock, maxAttempts int) *Planner {
	if maxAttempts <= 0 {
		maxAttempts = models.DefaultMaxAttempts
	}
	return &Planner{settings: settings, clock: clock, maxAttempts: maxAttempts}
}

// Plan produces the pending jobs for the appointment. An offset that has
// already passed still yields a job, due immediately, as long as the
// appointment itself is in the future.
func (p *Planner) Plan(ctx context.Context, appt *models.Appointment) ([]models.ReminderJob, error) {
	setting, err := p.settings.GetOrCreate(ctx, appt.PatientID, models.RolePatient)
	if err != nil {
		return nil, fmt.Errorf("could not load reminder settings: %w", err)
	}

	channels := setting.EnabledChannels()
	if len(channels) == 0 {
		return nil, nil
	}

	type offsetSpec struct {
		kind   models.ReminderKind
		offset time.Duration
	}
	var specs []offsetSpec
	if setting.FirstReminderOn {
		specs = append(specs, offsetSpec{models.Reminder24h, time.Duration(setting.FirstOffsetHours) * time.Hour})
	}
	if setting.SecondReminderOn {
		specs = append(specs, offsetSpec{models.Reminder2h, time.Duration(setting.SecondOffsetHours) * time.Hour})
	}

	now := p.clock.Now()
	var jobs []models.ReminderJob
	for _, spec := range specs {
		scheduledFor := appt.Start.Add(-spec.offset)
		if !scheduledFor.After(now) {
			if !appt.Start.After(now) {
				continue
			}
			scheduledFor = now
		}
		for _, ch := range channels {
			jobs = append(jobs, p.newJob(appt, ch, spec.kind, scheduledFor, now))
		}
	}
	return jobs, nil
}

// PlanManual builds immediately-due jobs for an ad-hoc send on the given
// channels (or every enabled channel when none are named).
func (p *Planner) PlanManual(ctx context.Context, appt *models.Appointment, channels []models.Channel) ([]models.ReminderJob, error) {
	if len(channels) == 0 {
		setting, err := p.settings.GetOrCreate(ctx, appt.PatientID, models.RolePatient)
		if err != nil {
			return nil, fmt.Errorf("could not load reminder settings: %w", err)
		}
		channels = setting.EnabledChannels()
	}
	now := p.clock.Now()
	var jobs []models.ReminderJob
	for _, ch := range channels {
		if !models.ValidChannel(ch) {
			return nil, fmt.Errorf("unknown channel %q", ch)
		}
		jobs = append(jobs, p.newJob(appt, ch, models.ReminderManual, now, now))
	}
	return jobs, nil
}

func (p *Planner) newJob(appt *models.Appointment, ch models.Channel, kind models.ReminderKind, scheduledFor, now time.Time) models.ReminderJob {
	return models.ReminderJob{
		ID:               uuid.NewString(),
		AppointmentID:    appt.ID,
		UserID:           appt.PatientID,
		DoctorID:         appt.DoctorID,
		AppointmentStart: appt.Start,
		Channel:          ch,
		Kind:             kind,
		ScheduledFor:     scheduledFor,
		Status:           models.JobPending,
		MaxAttempts:      p.maxAttempts,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
