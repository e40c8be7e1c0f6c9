// File: services/scheduling/policy.go
package scheduling

import (
	"context"
	"fmt"
	"time"

	apptRepo "clinicore/database/repository/appointment"
	"clinicore/models"
	"clinicore/utils"
)

// Patient-facing booking rules. Doctors and clinic staff bypass these;
// they only ever hit the hard conflict checks.
const (
	// MinPatientAdvance is how far ahead a patient must book.
	MinPatientAdvance = 2 * time.Hour
	// PatientCancelNotice is how far before the start a patient may still cancel.
	PatientCancelNotice = 24 * time.Hour
	// MaxPatientReschedules is the per-appointment reschedule allowance for patients.
	MaxPatientReschedules = 1
)

// BookingPolicy enforces the patient-side fairness rules that sit on top
// of the hard conflict checks.
type BookingPolicy struct {
	appts apptRepo.AppointmentRepository
	clock utils.Clock

	DefaultMaxUpcoming int
	CancelWindowDays   int
	CancelLimit        int
}

// NewBookingPolicy wires the policy with its configured limits.
func NewBookingPolicy(appts apptRepo.AppointmentRepository, clock utils.Clock, defaultMaxUpcoming, cancelWindowDays, cancelLimit int) *BookingPolicy {
	return &BookingPolicy{
		appts:              appts,
		clock:              clock,
		DefaultMaxUpcoming: defaultMaxUpcoming,
		CancelWindowDays:   cancelWindowDays,
		CancelLimit:        cancelLimit,
	}
}

// CheckBooking validates a patient-initiated booking. Staff actors skip
// every rule here.
func (p *BookingPolicy) CheckBooking(ctx context.Context, actor models.Actor, appt *models.Appointment, hours *models.WorkingHours) error {
	if actor.Role != models.RolePatient {
		return nil
	}
	now := p.clock.Now()

	if appt.Start.Before(now.Add(MinPatientAdvance)) {
		return NewValidationError("start", "appointments must be booked at least 2 hours in advance")
	}

	maxUpcoming := p.DefaultMaxUpcoming
	if hours != nil && hours.MaxUpcomingPerPatient > 0 {
		maxUpcoming = hours.MaxUpcomingPerPatient
	}
	upcoming, err := p.appts.CountUpcoming(ctx, appt.DoctorID, appt.PatientID, now)
	if err != nil {
		return fmt.Errorf("could not count upcoming appointments: %w", err)
	}
	if upcoming >= int64(maxUpcoming) {
		return NewValidationError("", fmt.Sprintf("upcoming appointment limit reached for this doctor (%d)", maxUpcoming))
	}

	dayStart := time.Date(appt.Start.Year(), appt.Start.Month(), appt.Start.Day(), 0, 0, 0, 0, appt.Start.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	exists, err := p.appts.HasActiveOnDay(ctx, appt.DoctorID, appt.PatientID, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("could not check same-day appointments: %w", err)
	}
	if exists {
		return NewValidationError("", "only one appointment per doctor per day is allowed")
	}
	return nil
}

// CheckCancellation validates a patient-initiated cancellation: 24 hours of
// notice and a bounded number of recent cancellations.
func (p *BookingPolicy) CheckCancellation(ctx context.Context, actor models.Actor, appt *models.Appointment) error {
	if actor.Role != models.RolePatient {
		return nil
	}
	now := p.clock.Now()

	if !appt.Start.After(now.Add(PatientCancelNotice)) {
		return NewValidationError("", "cancellations require at least 24 hours of notice")
	}

	since := now.AddDate(0, 0, -p.CancelWindowDays)
	recent, err := p.appts.CountPatientCancellationsSince(ctx, appt.PatientID, since)
	if err != nil {
		return fmt.Errorf("could not count recent cancellations: %w", err)
	}
	if recent >= int64(p.CancelLimit) {
		return NewValidationError("", fmt.Sprintf("cancellation limit reached (%d in %d days)", p.CancelLimit, p.CancelWindowDays))
	}
	return nil
}

// CheckReschedule validates a patient-initiated reschedule: the allowance
// is one move per appointment.
func (p *BookingPolicy) CheckReschedule(actor models.Actor, appt *models.Appointment) error {
	if actor.Role != models.RolePatient {
		return nil
	}
	if appt.RescheduleCount >= MaxPatientReschedules {
		return NewValidationError("", "this appointment has already been rescheduled")
	}
	return nil
}
