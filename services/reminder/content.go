// File: services/reminder/content.go
package reminder

import (
	"fmt"
	"time"

	"clinicore/models"
)

// Content is the rendered reminder ready for a transport.
type Content struct {
	Subject string
	Body    string
	Data    map[string]string
}

// RenderContent produces the channel-appropriate reminder text. SMS gets
// the short form; everything else shares the long form.
func RenderContent(job *models.ReminderJob, patient, doctor *models.User) Content {
	when := formatInZone(job.AppointmentStart, patient.Timezone)
	doctorName := "your doctor"
	if doctor != nil && doctor.FullName() != "" {
		doctorName = "Dr. " + doctor.FullName()
	}

	data := map[string]string{
		"appointmentId": job.AppointmentID,
		"start":         job.AppointmentStart.UTC().Format(time.RFC3339),
		"kind":          string(job.Kind),
	}

	if job.Channel == models.ChannelSMS {
		return Content{
			Body: fmt.Sprintf("Reminder: appointment with %s on %s. Reply to your clinic to reschedule.", doctorName, when),
			Data: data,
		}
	}

	subject := "Appointment reminder"
	switch job.Kind {
	case models.Reminder24h:
		subject = "Your appointment is tomorrow"
	case models.Reminder2h:
		subject = "Your appointment is coming up"
	}

	greeting := "Hello"
	if patient.FirstName != "" {
		greeting = "Hello " + patient.FirstName
	}
	body := fmt.Sprintf(
		"%s,\n\nThis is a reminder about your appointment with %s on %s.\n\nIf you cannot make it, please cancel or reschedule as early as possible so the slot can be offered to someone else.\n\nSee you soon.",
		greeting, doctorName, when,
	)
	return Content{Subject: subject, Body: body, Data: data}
}

// formatInZone renders the instant in the user's timezone, falling back to
// UTC when the zone is missing or unknown.
func formatInZone(t time.Time, tz string) string {
	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	return t.In(loc).Format("Monday, 2 January 2006 at 15:04")
}
