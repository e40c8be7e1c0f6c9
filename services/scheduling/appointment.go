// File: services/scheduling/appointment.go
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	apptRepo "clinicore/database/repository/appointment"
	scheduleRepo "clinicore/database/repository/schedule"
	schedulerRepo "clinicore/database/repository/scheduler"
	"clinicore/models"
	"clinicore/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NoShowGrace is how long after the start time a no-show can be recorded.
const NoShowGrace = 5 * time.Minute

// StartGrace is how far in the past a start time may sit and still count
// as "in the future", tolerating client clock skew and slow submissions.
const StartGrace = 5 * time.Minute

// UserResolver looks up identity records so bookings can verify that the
// referenced patient and doctor exist. Implemented by the user directory.
type UserResolver interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// ReminderPlanner produces the reminder jobs for a freshly booked or
// rescheduled appointment. Implemented by the reminder service.
type ReminderPlanner interface {
	Plan(ctx context.Context, appt *models.Appointment) ([]models.ReminderJob, error)
}

// JobEnqueuer hands reminder jobs to the delivery queue after they are
// durably stored. Enqueue failures are tolerated; the periodic scan picks
// up anything the queue missed.
type JobEnqueuer interface {
	EnqueueDispatch(jobs []models.ReminderJob) error
}

// AuditRecorder receives the before/after event for every mutation.
type AuditRecorder interface {
	Record(ctx context.Context, event *models.AuditEvent)
}

// OutcomeRecorder feeds appointment outcomes into the analytics counters.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, doctorID string, day time.Time, outcome string)
}

// CreateRequest is the input for booking an appointment.
type CreateRequest struct {
	PatientID string    `json:"patientId"`
	DoctorID  string    `json:"doctorId"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
}

// AppointmentScheduler orchestrates the appointment lifecycle: the hard
// conflict guarantees live in the transactional repository, the fairness
// rules in the policy, and the reminder plan travels inside the same
// transaction as the booking itself.
type AppointmentScheduler struct {
	appts        apptRepo.AppointmentRepository
	schedule     scheduleRepo.ScheduleRepository
	txn          schedulerRepo.SchedulerRepository
	users        UserResolver
	guard        *ConflictGuard
	policy       *BookingPolicy
	availability *AvailabilityService
	planner      ReminderPlanner
	enqueuer     JobEnqueuer
	audit        AuditRecorder
	outcomes     OutcomeRecorder
	clock        utils.Clock
	logger       *zap.Logger
}

// NewAppointmentScheduler wires the scheduler and its collaborators.
func NewAppointmentScheduler(
	appts apptRepo.AppointmentRepository,
	schedule scheduleRepo.ScheduleRepository,
	txn schedulerRepo.SchedulerRepository,
	users UserResolver,
	guard *ConflictGuard,
	policy *BookingPolicy,
	availability *AvailabilityService,
	planner ReminderPlanner,
	enqueuer JobEnqueuer,
	audit AuditRecorder,
	outcomes OutcomeRecorder,
	clock utils.Clock,
) *AppointmentScheduler {
	return &AppointmentScheduler{
		appts:        appts,
		schedule:     schedule,
		txn:          txn,
		users:        users,
		guard:        guard,
		policy:       policy,
		availability: availability,
		planner:      planner,
		enqueuer:     enqueuer,
		audit:        audit,
		outcomes:     outcomes,
		clock:        clock,
		logger:       utils.GetLogger().Named("scheduler"),
	}
}

// UpsertWorkingHours stores a doctor's weekly schedule. The short
// availability cache TTL absorbs the change without explicit invalidation.
func (s *AppointmentScheduler) UpsertWorkingHours(ctx context.Context, hours *models.WorkingHours) error {
	return s.schedule.Upsert(ctx, hours)
}

// GetWorkingHours returns a doctor's schedule, nil when none is configured.
func (s *AppointmentScheduler) GetWorkingHours(ctx context.Context, doctorID string) (*models.WorkingHours, error) {
	return s.schedule.Get(ctx, doctorID)
}

// Get loads one appointment, enforcing read visibility per role.
func (s *AppointmentScheduler) Get(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(actor, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// ListForDoctor returns the doctor's appointments in a range.
func (s *AppointmentScheduler) ListForDoctor(ctx context.Context, actor models.Actor, doctorID string, from, to time.Time) ([]models.Appointment, error) {
	if actor.Role == models.RolePatient {
		return nil, &AuthorizationError{Msg: "patients cannot list a doctor's schedule"}
	}
	if actor.Role == models.RoleDoctor && actor.ID != doctorID {
		return nil, &AuthorizationError{Msg: "doctors can only list their own schedule"}
	}
	return s.appts.ListByDoctorAndRange(ctx, doctorID, from, to)
}

// Create books a new appointment. The conflict check and the insert run in
// one transaction, so two racing requests for the same slot cannot both
// succeed.
func (s *AppointmentScheduler) Create(ctx context.Context, actor models.Actor, req CreateRequest) (*models.Appointment, error) {
	if actor.Role == models.RolePatient && actor.ID != req.PatientID {
		return nil, &AuthorizationError{Msg: "patients can only book for themselves"}
	}
	if req.PatientID == "" {
		return nil, NewValidationError("patientId", "required")
	}
	if req.DoctorID == "" {
		return nil, NewValidationError("doctorId", "required")
	}
	if err := s.resolveParticipants(ctx, req.PatientID, req.DoctorID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	start := req.Start.UTC()
	end := req.End.UTC()
	if end.IsZero() {
		end = start.Add(models.DefaultAppointmentDuration)
	}
	if !end.After(start) {
		return nil, NewValidationError("end", "must be after start")
	}
	if !start.After(now.Add(-StartGrace)) {
		return nil, NewValidationError("start", "must be in the future")
	}

	hours, err := s.schedule.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if err := checkWithinWorkingHours(hours, start, end); err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		ID:        uuid.NewString(),
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Start:     start,
		End:       end,
		Type:      req.Type,
		Reason:    req.Reason,
		Status:    models.AppointmentScheduled,
		BookedBy:  actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.policy.CheckBooking(ctx, actor, appt, hours); err != nil {
		return nil, err
	}
	// Fast pre-check before paying for a transaction. The transaction
	// repeats it inside its snapshot.
	if err := s.guard.CheckSlot(ctx, req.DoctorID, start, end, ""); err != nil {
		return nil, err
	}

	jobs, err := s.planner.Plan(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("could not plan reminders: %w", err)
	}

	if err := s.txn.BookTransactionally(ctx, appt, jobs); err != nil {
		return nil, mapTxnError(err)
	}

	s.afterReminderWrite(jobs)
	s.availability.InvalidateDay(ctx, appt.DoctorID, appt.Start)
	s.audit.Record(ctx, s.event("appointment.create", actor, appt.ID, nil, appt))
	s.logger.Info("appointment booked",
		zap.String("appointmentID", appt.ID),
		zap.String("doctorID", appt.DoctorID),
		zap.Time("start", appt.Start))
	return appt, nil
}

// Reschedule moves an active appointment to a new interval. The stale
// reminder plan is cancelled and the new one installed atomically with the
// time change.
func (s *AppointmentScheduler) Reschedule(ctx context.Context, actor models.Actor, id string, newStart, newEnd time.Time) (*models.Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(actor, appt); err != nil {
		return nil, err
	}
	if !appt.IsActive() {
		return nil, &StateError{Msg: fmt.Sprintf("cannot reschedule a %s appointment", appt.Status)}
	}
	if err := s.policy.CheckReschedule(actor, appt); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	start := newStart.UTC()
	end := newEnd.UTC()
	if end.IsZero() {
		end = start.Add(appt.End.Sub(appt.Start))
	}
	if !end.After(start) {
		return nil, NewValidationError("end", "must be after start")
	}
	if !start.After(now.Add(-StartGrace)) {
		return nil, NewValidationError("start", "must be in the future")
	}

	hours, err := s.schedule.Get(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}
	if err := checkWithinWorkingHours(hours, start, end); err != nil {
		return nil, err
	}
	// The per-day and upcoming-count rules would trip over the appointment
	// being moved, so a reschedule only re-checks the advance notice.
	if actor.Role == models.RolePatient && start.Before(now.Add(MinPatientAdvance)) {
		return nil, NewValidationError("start", "appointments must be booked at least 2 hours in advance")
	}

	before := *appt
	oldStart := appt.Start
	appt.Start = start
	appt.End = end
	appt.Status = models.AppointmentScheduled
	appt.RescheduleCount++
	appt.UpdatedBy = actor.ID
	appt.UpdatedAt = now

	jobs, err := s.planner.Plan(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("could not plan reminders: %w", err)
	}
	if err := s.txn.RescheduleTransactionally(ctx, appt, jobs); err != nil {
		return nil, mapTxnError(err)
	}

	s.afterReminderWrite(jobs)
	s.availability.InvalidateDay(ctx, appt.DoctorID, oldStart)
	s.availability.InvalidateDay(ctx, appt.DoctorID, appt.Start)
	s.outcomes.RecordOutcome(ctx, appt.DoctorID, oldStart, "rescheduled")
	s.audit.Record(ctx, s.event("appointment.reschedule", actor, appt.ID, &before, appt))
	return appt, nil
}

// Cancel transitions an active appointment to the role-appropriate
// cancelled state and revokes every outstanding reminder for it.
func (s *AppointmentScheduler) Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(actor, appt); err != nil {
		return nil, err
	}
	if !appt.IsActive() {
		return nil, &StateError{Msg: fmt.Sprintf("cannot cancel a %s appointment", appt.Status)}
	}
	now := s.clock.Now()
	if !appt.Start.After(now) {
		return nil, &StateError{Msg: "the appointment has already started"}
	}
	if err := s.policy.CheckCancellation(ctx, actor, appt); err != nil {
		return nil, err
	}

	before := *appt
	if actor.Role == models.RolePatient {
		appt.Status = models.AppointmentCancelledByPatient
	} else {
		appt.Status = models.AppointmentCancelledByClinic
	}
	appt.CancellationReason = reason
	appt.UpdatedBy = actor.ID
	appt.UpdatedAt = now

	revoked, err := s.txn.CancelTransactionally(ctx, appt)
	if err != nil {
		return nil, mapTxnError(err)
	}

	s.availability.InvalidateDay(ctx, appt.DoctorID, appt.Start)
	s.outcomes.RecordOutcome(ctx, appt.DoctorID, appt.Start, "cancelled")
	s.audit.Record(ctx, s.event("appointment.cancel", actor, appt.ID, &before, appt))
	s.logger.Info("appointment cancelled",
		zap.String("appointmentID", appt.ID),
		zap.Int64("remindersRevoked", revoked))
	return appt, nil
}

// Confirm marks a scheduled appointment as confirmed by the patient.
func (s *AppointmentScheduler) Confirm(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(actor, appt); err != nil {
		return nil, err
	}
	if !appt.CanBeConfirmed() {
		return nil, &StateError{Msg: fmt.Sprintf("cannot confirm a %s appointment", appt.Status)}
	}

	before := *appt
	appt.Status = models.AppointmentConfirmed
	appt.UpdatedBy = actor.ID
	appt.UpdatedAt = s.clock.Now()
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, s.event("appointment.confirm", actor, appt.ID, &before, appt))
	return appt, nil
}

// Complete records that the visit happened. Staff only.
func (s *AppointmentScheduler) Complete(ctx context.Context, actor models.Actor, id, notes string) (*models.Appointment, error) {
	if actor.Role == models.RolePatient {
		return nil, &AuthorizationError{Msg: "only staff can complete appointments"}
	}
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(actor, appt); err != nil {
		return nil, err
	}
	if !appt.CanBeCompleted() {
		return nil, &StateError{Msg: fmt.Sprintf("cannot complete a %s appointment", appt.Status)}
	}

	before := *appt
	appt.Status = models.AppointmentCompleted
	if notes != "" {
		appt.Notes = notes
	}
	appt.UpdatedBy = actor.ID
	appt.UpdatedAt = s.clock.Now()
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.outcomes.RecordOutcome(ctx, appt.DoctorID, appt.Start, "kept")
	s.audit.Record(ctx, s.event("appointment.complete", actor, appt.ID, &before, appt))
	return appt, nil
}

// MarkNoShow records a missed appointment, allowed a few minutes after the
// scheduled start. Staff only.
func (s *AppointmentScheduler) MarkNoShow(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error) {
	if actor.Role == models.RolePatient {
		return nil, &AuthorizationError{Msg: "only staff can record a no-show"}
	}
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(actor, appt); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !appt.IsActive() {
		return nil, &StateError{Msg: fmt.Sprintf("cannot mark a %s appointment as no-show", appt.Status)}
	}
	if now.Before(appt.Start.Add(NoShowGrace)) {
		return nil, &StateError{Msg: "too early to record a no-show"}
	}

	before := *appt
	appt.Status = models.AppointmentNoShow
	appt.UpdatedBy = actor.ID
	appt.UpdatedAt = now
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.outcomes.RecordOutcome(ctx, appt.DoctorID, appt.Start, "no_show")
	s.audit.Record(ctx, s.event("appointment.no_show", actor, appt.ID, &before, appt))
	return appt, nil
}

// resolveParticipants verifies that both sides of the booking exist in the
// user directory and carry the expected role, so a mistyped or stale ID
// cannot produce a ghost appointment.
func (s *AppointmentScheduler) resolveParticipants(ctx context.Context, patientID, doctorID string) error {
	patient, err := s.users.Get(ctx, patientID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return NewValidationError("patientId", "unknown patient")
	}
	if err != nil {
		return err
	}
	if patient.Role != models.RolePatient {
		return NewValidationError("patientId", "not a patient")
	}

	doctor, err := s.users.Get(ctx, doctorID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return NewValidationError("doctorId", "unknown doctor")
	}
	if err != nil {
		return err
	}
	if doctor.Role != models.RoleDoctor {
		return NewValidationError("doctorId", "not a doctor")
	}
	return nil
}

// checkOwnership limits patients to their own appointments and doctors to
// their own schedule; clinic admins see everything.
func (s *AppointmentScheduler) checkOwnership(actor models.Actor, appt *models.Appointment) error {
	switch actor.Role {
	case models.RolePatient:
		if actor.ID != appt.PatientID {
			return &AuthorizationError{Msg: "not your appointment"}
		}
	case models.RoleDoctor:
		if actor.ID != appt.DoctorID {
			return &AuthorizationError{Msg: "not your appointment"}
		}
	case models.RoleClinic:
	default:
		return &AuthorizationError{Msg: "unknown role"}
	}
	return nil
}

func (s *AppointmentScheduler) event(action string, actor models.Actor, apptID string, before, after any) *models.AuditEvent {
	return &models.AuditEvent{
		ID:        uuid.NewString(),
		Action:    action,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Related:   models.RelatedRef{Kind: "appointment", ID: apptID},
		Before:    before,
		After:     after,
		CreatedAt: s.clock.Now(),
	}
}

// afterReminderWrite hands freshly committed jobs to the queue. A failure
// here is logged and tolerated: the jobs are durable and the periodic scan
// will dispatch them.
func (s *AppointmentScheduler) afterReminderWrite(jobs []models.ReminderJob) {
	if len(jobs) == 0 {
		return
	}
	if err := s.enqueuer.EnqueueDispatch(jobs); err != nil {
		s.logger.Warn("failed to enqueue reminder jobs, scan will pick them up", zap.Error(err))
	}
}

// checkWithinWorkingHours requires the interval to sit inside the doctor's
// configured window for that weekday, outside the midday break.
func checkWithinWorkingHours(hours *models.WorkingHours, start, end time.Time) error {
	if hours == nil {
		return NewValidationError("doctorId", "the doctor has no working hours configured")
	}
	win, ok := hours.WindowFor(start)
	if !ok {
		return NewValidationError("start", "the doctor does not work on this day")
	}
	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	startMin := int(start.Sub(dayStart).Minutes())
	endMin := int(end.Sub(dayStart).Minutes())
	if startMin < win.StartMinute || endMin > win.EndMinute {
		return NewValidationError("start", "outside the doctor's working hours")
	}
	if startMin < lunchEndMinute && endMin > lunchStartMinute {
		return NewValidationError("start", "overlaps the midday break")
	}
	return nil
}

// mapTxnError converts the repository's conflict sentinels into typed
// service errors; anything else passes through.
func mapTxnError(err error) error {
	switch {
	case errors.Is(err, schedulerRepo.ErrDoctorBusy):
		return &ConflictError{Kind: ConflictDoctorBusy, Msg: "the doctor already has an appointment in this interval"}
	case errors.Is(err, schedulerRepo.ErrSlotBlocked):
		return &ConflictError{Kind: ConflictBlocked, Msg: "the interval falls inside a blocked period"}
	case errors.Is(err, mongo.ErrNoDocuments):
		return err
	}
	return err
}
