package middleware

import (
	"net/http"

	"clinicore/models"

	"github.com/gin-gonic/gin"
)

// Authentication happens at the clinic's API gateway, which forwards the
// verified identity in these headers.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const actorKey = "actor"

// ActorMiddleware reads the forwarded identity and stores it on the
// context. Requests without a valid identity are rejected.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderUserID)
		role := models.Role(c.GetHeader(HeaderUserRole))
		if id == "" || !models.ValidRole(role) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid identity headers"})
			return
		}
		c.Set(actorKey, models.Actor{ID: id, Role: role})
		c.Next()
	}
}

// GetActor returns the identity stored by ActorMiddleware.
func GetActor(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

// RequireStaff rejects patient requests before they reach the handler.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor.Role == models.RolePatient {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff only"})
			return
		}
		c.Next()
	}
}
