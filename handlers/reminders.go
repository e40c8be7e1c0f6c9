package handlers

import (
	"net/http"

	"clinicore/middleware"
	"clinicore/models"

	"github.com/gin-gonic/gin"
)

// GetReminderStatus returns the jobs and delivery log for an appointment.
func GetReminderStatus(c *gin.Context) {
	status, err := Reminders.StatusFor(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// SendReminderNow triggers an immediate manual reminder for an appointment.
func SendReminderNow(c *gin.Context) {
	var input struct {
		Channels []models.Channel `json:"channels"`
	}
	_ = c.ShouldBindJSON(&input)

	jobs, err := Reminders.SendNow(c.Request.Context(), middleware.GetActor(c), c.Param("id"), input.Channels)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobs": jobs})
}

// SendTestReminder delivers a sample message to the caller on one channel.
func SendTestReminder(c *gin.Context) {
	var input struct {
		Channel models.Channel `json:"channel" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := Reminders.SendTest(c.Request.Context(), middleware.GetActor(c), input.Channel); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// RevokeReminders cancels every outstanding reminder for an appointment.
func RevokeReminders(c *gin.Context) {
	revoked, err := Reminders.RevokeForAppointment(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": revoked})
}

// GetReminderSettings returns the caller's reminder preferences.
func GetReminderSettings(c *gin.Context) {
	actor := middleware.GetActor(c)
	setting, err := Reminders.GetSettings(c.Request.Context(), actor.ID, actor.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpdateReminderSettings stores preference changes for the caller.
func UpdateReminderSettings(c *gin.Context) {
	actor := middleware.GetActor(c)

	var setting models.ReminderSetting
	if err := c.ShouldBindJSON(&setting); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if setting.UserID == "" {
		setting.UserID = actor.ID
	}
	if setting.UserType == "" {
		setting.UserType = actor.Role
	}

	if err := Reminders.UpdateSettings(c.Request.Context(), actor, &setting); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// RunMaintenance triggers the scan and sweep passes on demand, the same
// passes the worker runs periodically. Useful after a queue outage.
func RunMaintenance(c *gin.Context) {
	if err := Sweeper.Scan(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	if err := Sweeper.Sweep(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// GetReminderAnalytics returns the per-day counters and rates.
func GetReminderAnalytics(c *gin.Context) {
	rows, err := Reminders.Report(c.Request.Context(), middleware.GetActor(c), c.Query("doctorId"), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analytics": rows})
}
