package models

import "time"

// Slot is a fixed-duration candidate appointment interval within working hours.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DayAvailability is the computed availability for one doctor on one date.
type DayAvailability struct {
	DoctorID     string `json:"doctorId"`
	Date         string `json:"date"` // "2006-01-02"
	IsWorkingDay bool   `json:"isWorkingDay"`
	Slots        []Slot `json:"slots"`
	BookedCount  int    `json:"bookedCount"`
	BlockedCount int    `json:"blockedCount"`
}
