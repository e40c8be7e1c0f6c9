package models

import "time"

// RecurrencePattern describes how a time block repeats.
type RecurrencePattern string

const (
	RecurrenceNone    RecurrencePattern = "none"
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
)

// BlockType categorises why a doctor is unavailable.
type BlockType string

const (
	BlockVacation  BlockType = "vacation"
	BlockMeeting   BlockType = "meeting"
	BlockEmergency BlockType = "emergency"
	BlockOther     BlockType = "other"
)

// MaxRecurrenceHorizon caps how far ahead a recurring block is expanded.
const MaxRecurrenceHorizon = 3 * 30 * 24 * time.Hour

// TimeBlock is an explicit unavailability interval for a doctor.
// Recurring requests are stored as a series of concrete occurrences
// sharing a RecurrenceID, so overlap checks stay simple range scans.
type TimeBlock struct {
	ID            string            `bson:"id" json:"id"`
	DoctorID      string            `bson:"doctor_id" json:"doctorId"`
	Start         time.Time         `bson:"start" json:"start"`
	End           time.Time         `bson:"end" json:"end"`
	Reason        string            `bson:"reason,omitempty" json:"reason,omitempty"`
	BlockType     BlockType         `bson:"block_type" json:"blockType"`
	Recurrence    RecurrencePattern `bson:"recurrence" json:"recurrence"`
	RecurrenceID  string            `bson:"recurrence_id,omitempty" json:"recurrenceId,omitempty"`
	RecurrenceEnd time.Time         `bson:"recurrence_end,omitempty" json:"recurrenceEnd,omitempty"`
	CreatedBy     string            `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt     time.Time         `bson:"created_at" json:"createdAt"`
}

// CanModify forbids touching a block once it has started, except emergency
// blocks which stay deletable so the clinic can recover from mistakes.
func (b *TimeBlock) CanModify(now time.Time) bool {
	if b.BlockType == BlockEmergency {
		return true
	}
	return b.Start.After(now)
}

// Overlaps applies the half-open interval test [a,b) vs [c,d).
func (b *TimeBlock) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && start.Before(b.End)
}
