package handlers

import (
	"net/http"
	"strconv"

	"clinicore/middleware"

	"github.com/gin-gonic/gin"
)

// ListNotifications returns the caller's in-app notifications.
func ListNotifications(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	actor := middleware.GetActor(c)
	items, err := Inbox.ListByUser(c.Request.Context(), actor.ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkNotificationRead flags one of the caller's notifications as read.
func MarkNotificationRead(c *gin.Context) {
	actor := middleware.GetActor(c)
	if err := Inbox.MarkRead(c.Request.Context(), c.Param("id"), actor.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}
