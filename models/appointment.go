package models

import "time"

// AppointmentStatus enumerates the appointment lifecycle states.
type AppointmentStatus string

const (
	AppointmentScheduled          AppointmentStatus = "scheduled"
	AppointmentConfirmed          AppointmentStatus = "confirmed"
	AppointmentCompleted          AppointmentStatus = "completed"
	AppointmentCancelledByPatient AppointmentStatus = "cancelled_by_patient"
	AppointmentCancelledByClinic  AppointmentStatus = "cancelled_by_clinic"
	AppointmentNoShow             AppointmentStatus = "no_show"
)

// DefaultAppointmentDuration is applied when a booking request omits the end time.
const DefaultAppointmentDuration = 30 * time.Minute

// MinCancelNotice is how far before the start an appointment can still be cancelled.
const MinCancelNotice = 2 * time.Hour

// Appointment represents a booked consultation between a patient and a doctor.
type Appointment struct {
	ID                 string            `bson:"id" json:"id"`
	PatientID          string            `bson:"patient_id" json:"patientId"`
	DoctorID           string            `bson:"doctor_id" json:"doctorId"`
	Start              time.Time         `bson:"start" json:"start"`
	End                time.Time         `bson:"end" json:"end"`
	Type               string            `bson:"type,omitempty" json:"type,omitempty"` // e.g. "consultation", "follow_up"
	Reason             string            `bson:"reason,omitempty" json:"reason,omitempty"`
	Status             AppointmentStatus `bson:"status" json:"status"`
	CancellationReason string            `bson:"cancellation_reason,omitempty" json:"cancellationReason,omitempty"`
	Notes              string            `bson:"notes,omitempty" json:"notes,omitempty"`
	BookedBy           string            `bson:"booked_by" json:"bookedBy"`
	UpdatedBy          string            `bson:"updated_by,omitempty" json:"updatedBy,omitempty"`
	RescheduleCount    int               `bson:"reschedule_count" json:"rescheduleCount"`
	Deleted            bool              `bson:"deleted,omitempty" json:"-"`
	CreatedAt          time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time         `bson:"updated_at" json:"updatedAt"`
}

// CancelledStatuses are excluded from every conflict and availability check.
func CancelledStatuses() []AppointmentStatus {
	return []AppointmentStatus{AppointmentCancelledByPatient, AppointmentCancelledByClinic}
}

// IsTerminal reports whether no further transitions are allowed.
func (a *Appointment) IsTerminal() bool {
	switch a.Status {
	case AppointmentCompleted, AppointmentCancelledByPatient, AppointmentCancelledByClinic, AppointmentNoShow:
		return true
	}
	return false
}

// IsCancelled reports whether the appointment was cancelled by either side.
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentCancelledByPatient || a.Status == AppointmentCancelledByClinic
}

// IsActive reports whether the appointment still occupies its time range.
func (a *Appointment) IsActive() bool {
	return a.Status == AppointmentScheduled || a.Status == AppointmentConfirmed
}

// CanBeCancelled requires an active status and more than 2 hours of notice.
func (a *Appointment) CanBeCancelled(now time.Time) bool {
	return a.IsActive() && a.Start.After(now.Add(MinCancelNotice))
}

// CanBeConfirmed allows confirming only freshly scheduled appointments.
func (a *Appointment) CanBeConfirmed() bool {
	return a.Status == AppointmentScheduled
}

// CanBeCompleted allows completion from scheduled or confirmed.
func (a *Appointment) CanBeCompleted() bool {
	return a.IsActive()
}

// CanBeMarkedNoShow is valid only for active appointments whose start has elapsed.
func (a *Appointment) CanBeMarkedNoShow(now time.Time) bool {
	return a.IsActive() && a.Start.Before(now)
}

// Overlaps applies the half-open interval test [a,b) vs [c,d).
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.Start.Before(end) && start.Before(a.End)
}
