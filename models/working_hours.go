package models

import "time"

// DayWindow is a doctor's working window for one weekday,
// expressed in minutes from midnight (e.g. 540 for 9:00 AM).
type DayWindow struct {
	StartMinute int  `bson:"start" json:"start"`
	EndMinute   int  `bson:"end" json:"end"`
	Enabled     bool `bson:"enabled" json:"enabled"`
}

// WorkingHours holds a doctor's weekly schedule configuration.
// BookingVersion is bumped inside every booking transaction for the
// doctor; the write forces concurrent bookings to serialize.
type WorkingHours struct {
	DoctorID              string               `bson:"doctor_id" json:"doctorId"`
	Days                  map[string]DayWindow `bson:"days" json:"days"` // keyed by lowercase weekday name
	MaxUpcomingPerPatient int                  `bson:"max_upcoming_per_patient,omitempty" json:"maxUpcomingPerPatient,omitempty"`
	BookingVersion        int64                `bson:"booking_version" json:"-"`
	UpdatedAt             time.Time            `bson:"updated_at" json:"updatedAt"`
}

// WeekdayKey converts a weekday into the map key used in storage.
func WeekdayKey(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// WindowFor returns the window for a date's weekday, and whether the
// doctor works that day at all.
func (w *WorkingHours) WindowFor(date time.Time) (DayWindow, bool) {
	if w == nil || w.Days == nil {
		return DayWindow{}, false
	}
	win, ok := w.Days[WeekdayKey(date.Weekday())]
	if !ok || !win.Enabled || win.EndMinute <= win.StartMinute {
		return DayWindow{}, false
	}
	return win, true
}
