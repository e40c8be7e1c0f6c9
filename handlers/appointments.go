package handlers

import (
	"net/http"
	"time"

	"clinicore/middleware"
	"clinicore/services/scheduling"

	"github.com/gin-gonic/gin"
)

// CreateAppointment books a new appointment.
func CreateAppointment(c *gin.Context) {
	var req scheduling.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := Scheduler.Create(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// GetAppointment returns one appointment.
func GetAppointment(c *gin.Context) {
	appt, err := Scheduler.Get(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// ListDoctorAppointments returns a doctor's appointments in a range.
func ListDoctorAppointments(c *gin.Context) {
	from, to, ok := parseRangeQuery(c)
	if !ok {
		return
	}
	appts, err := Scheduler.ListForDoctor(c.Request.Context(), middleware.GetActor(c), c.Param("doctorId"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// RescheduleAppointment moves an appointment to a new interval.
func RescheduleAppointment(c *gin.Context) {
	var input struct {
		Start time.Time `json:"start" binding:"required"`
		End   time.Time `json:"end"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := Scheduler.Reschedule(c.Request.Context(), middleware.GetActor(c), c.Param("id"), input.Start, input.End)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// CancelAppointment cancels an appointment and revokes its reminders.
func CancelAppointment(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	appt, err := Scheduler.Cancel(c.Request.Context(), middleware.GetActor(c), c.Param("id"), input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// ConfirmAppointment marks a scheduled appointment as confirmed.
func ConfirmAppointment(c *gin.Context) {
	appt, err := Scheduler.Confirm(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// CompleteAppointment records that the visit happened.
func CompleteAppointment(c *gin.Context) {
	var input struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&input)

	appt, err := Scheduler.Complete(c.Request.Context(), middleware.GetActor(c), c.Param("id"), input.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// MarkNoShow records a missed appointment.
func MarkNoShow(c *gin.Context) {
	appt, err := Scheduler.MarkNoShow(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// AppointmentHistory returns the audit trail for one appointment.
func AppointmentHistory(c *gin.Context) {
	events, err := AuditRecorder.History(c.Request.Context(), "appointment", c.Param("id"), 50)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// parseRangeQuery reads from/to query dates and converts them to a
// half-open UTC interval.
func parseRangeQuery(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' date, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' date, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	return from.UTC(), to.UTC().Add(24 * time.Hour), true
}
