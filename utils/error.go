package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON shape every error leaves the API in.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler recovers from panics anywhere in the request pipeline and
// turns them into a 500 without leaking internals. Booking and reminder
// handlers map their own typed errors; this is the backstop.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("panic while handling request",
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "Something went wrong processing the request. Please retry.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response and logs it with the
// request path for correlation.
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message,
		zap.String("details", details),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}
