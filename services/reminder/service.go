// File: services/reminder/service.go
package reminder

import (
	"context"
	"fmt"

	apptRepo "clinicore/database/repository/appointment"
	reminderRepo "clinicore/database/repository/reminder"
	"clinicore/models"
	"clinicore/services/directory"
	"clinicore/services/scheduling"
	"clinicore/utils"

	"go.uber.org/zap"
)

// JobEnqueuer pushes freshly stored jobs onto the delivery queue.
type JobEnqueuer interface {
	EnqueueDispatch(jobs []models.ReminderJob) error
}

// Status is the reminder view of one appointment: its jobs plus the
// delivery log.
type Status struct {
	AppointmentID string               `json:"appointmentId"`
	Jobs          []models.ReminderJob `json:"jobs"`
	Logs          []models.ReminderLog `json:"logs"`
}

// ReminderService is the public surface of the reminder subsystem:
// ad-hoc sends, status queries, preferences, and engagement callbacks.
// Scheduled reminders are planned by the booking path and delivered by
// the dispatcher; this service covers everything around them.
type ReminderService struct {
	jobs       reminderRepo.JobRepository
	logs       reminderRepo.LogRepository
	settings   reminderRepo.SettingRepository
	appts      apptRepo.AppointmentRepository
	users      *directory.UserDirectory
	planner    *Planner
	dispatcher *Dispatcher
	analytics  *AnalyticsService
	enqueuer   JobEnqueuer
	clock      utils.Clock
	logger     *zap.Logger
}

// NewReminderService wires the service.
func NewReminderService(
	jobs reminderRepo.JobRepository,
	logs reminderRepo.LogRepository,
	settings reminderRepo.SettingRepository,
	appts apptRepo.AppointmentRepository,
	users *directory.UserDirectory,
	planner *Planner,
	dispatcher *Dispatcher,
	analytics *AnalyticsService,
	enqueuer JobEnqueuer,
	clock utils.Clock,
) *ReminderService {
	return &ReminderService{
		jobs:       jobs,
		logs:       logs,
		settings:   settings,
		appts:      appts,
		users:      users,
		planner:    planner,
		dispatcher: dispatcher,
		analytics:  analytics,
		enqueuer:   enqueuer,
		clock:      clock,
		logger:     utils.GetLogger().Named("reminders"),
	}
}

// StatusFor returns the jobs and delivery log for one appointment.
func (s *ReminderService) StatusFor(ctx context.Context, actor models.Actor, appointmentID string) (*Status, error) {
	appt, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RolePatient && actor.ID != appt.PatientID {
		return nil, &scheduling.AuthorizationError{Msg: "not your appointment"}
	}
	if actor.Role == models.RoleDoctor && actor.ID != appt.DoctorID {
		return nil, &scheduling.AuthorizationError{Msg: "not your appointment"}
	}

	jobs, err := s.jobs.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	logs, err := s.logs.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	return &Status{AppointmentID: appointmentID, Jobs: jobs, Logs: logs}, nil
}

// SendNow stores and enqueues immediately-due manual jobs for the
// appointment, on the given channels or every enabled one. Staff only.
func (s *ReminderService) SendNow(ctx context.Context, actor models.Actor, appointmentID string, channels []models.Channel) ([]models.ReminderJob, error) {
	if actor.Role == models.RolePatient {
		return nil, &scheduling.AuthorizationError{Msg: "only staff can trigger manual reminders"}
	}
	appt, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !appt.IsActive() {
		return nil, &scheduling.StateError{Msg: fmt.Sprintf("cannot send reminders for a %s appointment", appt.Status)}
	}
	if !appt.Start.After(s.clock.Now()) {
		return nil, &scheduling.StateError{Msg: "the appointment has already started"}
	}

	jobs, err := s.planner.PlanManual(ctx, appt, channels)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, scheduling.NewValidationError("channels", "no channels enabled for this patient")
	}
	if err := s.jobs.CreateMany(ctx, jobs); err != nil {
		return nil, err
	}
	if err := s.enqueuer.EnqueueDispatch(jobs); err != nil {
		s.logger.Warn("failed to enqueue manual reminders, scan will pick them up", zap.Error(err))
	}
	s.logger.Info("manual reminders queued",
		zap.String("appointmentID", appointmentID),
		zap.Int("jobs", len(jobs)))
	return jobs, nil
}

// SendTest delivers a sample message straight to the user on one channel,
// bypassing the job lifecycle.
func (s *ReminderService) SendTest(ctx context.Context, actor models.Actor, channel models.Channel) error {
	if !models.ValidChannel(channel) {
		return scheduling.NewValidationError("channel", fmt.Sprintf("unknown channel %q", channel))
	}
	user, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		return err
	}
	return s.dispatcher.SendTest(ctx, user, channel)
}

// RevokeForAppointment cancels every outstanding job for the appointment.
// The booking path does this transactionally; this is the manual override.
func (s *ReminderService) RevokeForAppointment(ctx context.Context, actor models.Actor, appointmentID string) (int64, error) {
	if actor.Role == models.RolePatient {
		return 0, &scheduling.AuthorizationError{Msg: "only staff can revoke reminders"}
	}
	return s.jobs.CancelByAppointment(ctx, appointmentID, s.clock.Now())
}

// GetSettings returns (creating on first need) the user's preferences.
func (s *ReminderService) GetSettings(ctx context.Context, userID string, role models.Role) (*models.ReminderSetting, error) {
	return s.settings.GetOrCreate(ctx, userID, role)
}

// UpdateSettings validates and stores preference changes. Users can only
// update their own settings; clinic admins can update anyone's.
func (s *ReminderService) UpdateSettings(ctx context.Context, actor models.Actor, setting *models.ReminderSetting) error {
	if actor.Role != models.RoleClinic && actor.ID != setting.UserID {
		return &scheduling.AuthorizationError{Msg: "cannot update another user's settings"}
	}
	if setting.FirstOffsetHours <= 0 {
		setting.FirstOffsetHours = 24
	}
	if setting.SecondOffsetHours <= 0 {
		setting.SecondOffsetHours = 2
	}
	if setting.SecondOffsetHours >= setting.FirstOffsetHours {
		return scheduling.NewValidationError("secondOffsetHours", "the second reminder must be closer to the appointment than the first")
	}
	for _, c := range setting.PreferredChannels {
		if !models.ValidChannel(c) {
			return scheduling.NewValidationError("preferredChannels", fmt.Sprintf("unknown channel %q", c))
		}
	}
	return s.settings.Update(ctx, setting)
}

// HandleEngagement processes a delivery/open/click callback identified by
// its tracking token and feeds the analytics counters.
func (s *ReminderService) HandleEngagement(ctx context.Context, trackingToken, event string) error {
	entry, err := s.logs.MarkEngagement(ctx, trackingToken, event, s.clock.Now())
	if err != nil {
		return err
	}
	s.analytics.RecordEngagement(ctx, entry.DoctorID, event)
	return nil
}

// Report exposes the analytics rows.
func (s *ReminderService) Report(ctx context.Context, actor models.Actor, doctorID, from, to string) ([]models.ReminderAnalytics, error) {
	if actor.Role == models.RolePatient {
		return nil, &scheduling.AuthorizationError{Msg: "analytics are staff only"}
	}
	if actor.Role == models.RoleDoctor {
		doctorID = actor.ID
	}
	return s.analytics.Report(ctx, doctorID, from, to)
}
