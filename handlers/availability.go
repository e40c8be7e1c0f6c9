package handlers

import (
	"net/http"
	"time"

	"clinicore/middleware"
	"clinicore/models"

	"github.com/gin-gonic/gin"
)

// GetAvailability returns the bookable slots for a doctor and date, or a
// date range when from/to are given.
func GetAvailability(c *gin.Context) {
	doctorID := c.Param("doctorId")

	if date := c.Query("date"); date != "" {
		day, err := Availability.ComputeDay(c.Request.Context(), doctorID, date)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, day)
		return
	}

	days, err := Availability.ComputeRange(c.Request.Context(), doctorID, c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

// CheckSlot answers whether one interval is free, without booking it.
func CheckSlot(c *gin.Context) {
	var input struct {
		Start time.Time `json:"start" binding:"required"`
		End   time.Time `json:"end" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := Guard.CheckSlot(c.Request.Context(), c.Param("doctorId"), input.Start.UTC(), input.End.UTC(), ""); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true})
}

// UpsertWorkingHours stores a doctor's weekly schedule. Staff only.
func UpsertWorkingHours(c *gin.Context) {
	actor := middleware.GetActor(c)
	doctorID := c.Param("doctorId")
	if actor.Role == models.RoleDoctor && actor.ID != doctorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "doctors can only edit their own schedule"})
		return
	}

	var input struct {
		Days                  map[string]models.DayWindow `json:"days" binding:"required"`
		MaxUpcomingPerPatient int                         `json:"maxUpcomingPerPatient"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	for day, win := range input.Days {
		if win.Enabled && (win.StartMinute < 0 || win.EndMinute > 24*60 || win.EndMinute <= win.StartMinute) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window for " + day})
			return
		}
	}

	hours := &models.WorkingHours{
		DoctorID:              doctorID,
		Days:                  input.Days,
		MaxUpcomingPerPatient: input.MaxUpcomingPerPatient,
	}
	if err := Scheduler.UpsertWorkingHours(c.Request.Context(), hours); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hours)
}
