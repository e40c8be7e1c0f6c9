package models

import "time"

// Channel is a reminder delivery medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "in_app"
)

// AllChannels lists every supported delivery channel.
func AllChannels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp}
}

// ValidChannel reports whether c is a known channel.
func ValidChannel(c Channel) bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp:
		return true
	}
	return false
}

// ReminderKind distinguishes the planner-generated offsets from ad-hoc sends.
type ReminderKind string

const (
	Reminder24h    ReminderKind = "24h"
	Reminder2h     ReminderKind = "2h"
	ReminderManual ReminderKind = "manual"
	ReminderCustom ReminderKind = "custom"
)

// JobStatus enumerates the reminder job state machine.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobSent       JobStatus = "sent"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
	JobExpired    JobStatus = "expired"
)

// DefaultMaxAttempts bounds transport retries per job.
const DefaultMaxAttempts = 3

// ReminderJob is one scheduled, channel-specific notification tied to an
// appointment. One job exists per (appointment, channel, kind) at a time.
type ReminderJob struct {
	ID               string       `bson:"id" json:"id"`
	AppointmentID    string       `bson:"appointment_id" json:"appointmentId"`
	UserID           string       `bson:"user_id" json:"userId"`
	DoctorID         string       `bson:"doctor_id" json:"doctorId"`
	AppointmentStart time.Time    `bson:"appointment_start" json:"appointmentStart"`
	Channel          Channel      `bson:"channel" json:"channel"`
	Kind             ReminderKind `bson:"kind" json:"kind"`
	ScheduledFor     time.Time    `bson:"scheduled_for" json:"scheduledFor"`
	Status           JobStatus    `bson:"status" json:"status"`
	Attempts         int          `bson:"attempts" json:"attempts"`
	MaxAttempts      int          `bson:"max_attempts" json:"maxAttempts"`
	LastAttemptAt    time.Time    `bson:"last_attempt_at,omitempty" json:"lastAttemptAt,omitempty"`
	FailureReason    string       `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`
	Cancelled        bool         `bson:"cancelled" json:"cancelled"`
	CancelledAt      time.Time    `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
	CreatedAt        time.Time    `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time    `bson:"updated_at" json:"updatedAt"`
}

// IsTerminal reports whether the job must never transition again.
func (j *ReminderJob) IsTerminal() bool {
	if j.Cancelled {
		return true
	}
	switch j.Status {
	case JobSent, JobExpired, JobCancelled:
		return true
	}
	return false
}

// CanRetry reports whether a failed job is still eligible for another attempt.
func (j *ReminderJob) CanRetry() bool {
	return !j.Cancelled && j.Status == JobFailed && j.Attempts < j.MaxAttempts
}
