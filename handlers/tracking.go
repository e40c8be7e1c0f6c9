package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TrackEngagement records a delivery/open/click callback identified by its
// tracking token. Called by mail webhooks and the one-pixel tracker, so it
// carries no identity headers and always answers 200 on a known token.
func TrackEngagement(c *gin.Context) {
	event := c.Param("event")
	switch event {
	case "delivered", "opened", "clicked":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event"})
		return
	}

	if err := Reminders.HandleEngagement(c.Request.Context(), c.Param("token"), event); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
