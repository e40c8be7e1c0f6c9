package handlers

import (
	"net/http"
	"time"

	"clinicore/middleware"
	"clinicore/models"

	"github.com/gin-gonic/gin"
)

// RegisterUser syncs a minimal identity record from the upstream identity
// system. Staff only.
func RegisterUser(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	user.CreatedAt = time.Now().UTC()

	if err := Directory.Register(c.Request.Context(), &user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateDeviceToken stores the caller's FCM token for the push channel.
func UpdateDeviceToken(c *gin.Context) {
	var input struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	if err := Directory.UpdateDeviceToken(c.Request.Context(), actor.ID, input.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// GetWorkingHours returns a doctor's weekly schedule.
func GetWorkingHours(c *gin.Context) {
	hours, err := Scheduler.GetWorkingHours(c.Request.Context(), c.Param("doctorId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if hours == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no schedule configured"})
		return
	}
	c.JSON(http.StatusOK, hours)
}
