package models

import (
	"math"
	"time"
)

// ChannelCounters is the per-channel dispatch breakdown inside one analytics row.
type ChannelCounters struct {
	Sent   int `bson:"sent" json:"sent"`
	Failed int `bson:"failed" json:"failed"`
}

// ReminderAnalytics aggregates dispatch and appointment outcomes per
// (date, doctor). Counters are incremented atomically; rates are recomputed
// after every increment.
type ReminderAnalytics struct {
	Date     string `bson:"date" json:"date"` // "2006-01-02"
	DoctorID string `bson:"doctor_id" json:"doctorId"`

	Sent      int `bson:"sent" json:"sent"`
	Delivered int `bson:"delivered" json:"delivered"`
	Failed    int `bson:"failed" json:"failed"`
	Opened    int `bson:"opened" json:"opened"`
	Clicked   int `bson:"clicked" json:"clicked"`

	ByChannel map[string]ChannelCounters `bson:"by_channel,omitempty" json:"byChannel,omitempty"`

	Kept        int `bson:"kept" json:"kept"`
	Cancelled   int `bson:"cancelled" json:"cancelled"`
	NoShow      int `bson:"no_show" json:"noShow"`
	Rescheduled int `bson:"rescheduled" json:"rescheduled"`

	DeliveryRate   float64 `bson:"delivery_rate" json:"deliveryRate"`
	OpenRate       float64 `bson:"open_rate" json:"openRate"`
	ClickRate      float64 `bson:"click_rate" json:"clickRate"`
	AttendanceRate float64 `bson:"attendance_rate" json:"attendanceRate"`

	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// RecomputeRates derives the four rates from the current counters.
// Every rate is 0 when its denominator is 0; rounded to 2 decimals.
func (a *ReminderAnalytics) RecomputeRates() {
	a.DeliveryRate = ratio(a.Delivered, a.Sent)
	a.OpenRate = ratio(a.Opened, a.Delivered)
	a.ClickRate = ratio(a.Clicked, a.Opened)
	a.AttendanceRate = ratio(a.Kept, a.Kept+a.Cancelled+a.NoShow+a.Rescheduled)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(den)*100) / 100
}
