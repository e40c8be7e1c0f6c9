package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeRates(t *testing.T) {
	a := ReminderAnalytics{
		Sent:      10,
		Delivered: 9,
		Opened:    3,
		Clicked:   1,
	}
	a.RecomputeRates()
	assert.Equal(t, 0.9, a.DeliveryRate)
	assert.Equal(t, 0.33, a.OpenRate)
	assert.Equal(t, 0.33, a.ClickRate)
}

func TestRecomputeRatesZeroDenominators(t *testing.T) {
	var a ReminderAnalytics
	a.RecomputeRates()
	assert.Zero(t, a.DeliveryRate)
	assert.Zero(t, a.OpenRate)
	assert.Zero(t, a.ClickRate)
	assert.Zero(t, a.AttendanceRate)
}

func TestAttendanceRate(t *testing.T) {
	a := ReminderAnalytics{Kept: 6, Cancelled: 2, NoShow: 1, Rescheduled: 1}
	a.RecomputeRates()
	assert.Equal(t, 0.6, a.AttendanceRate)

	b := ReminderAnalytics{Kept: 1, NoShow: 2}
	b.RecomputeRates()
	assert.Equal(t, 0.33, b.AttendanceRate)
}
