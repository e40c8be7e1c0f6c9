package routes

import (
	"net/http"
	"time"

	"clinicore/handlers"
	"clinicore/middleware"
	"clinicore/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAppointmentRoutes registers the booking lifecycle endpoints.
func RegisterAppointmentRoutes(r *gin.Engine) {
	api := r.Group("/api/appointments")
	{
		api.Use(middleware.ActorMiddleware())
		api.POST("", handlers.CreateAppointment)
		api.GET("/:id", handlers.GetAppointment)
		api.PUT("/:id/reschedule", handlers.RescheduleAppointment)
		api.PUT("/:id/cancel", handlers.CancelAppointment)
		api.PUT("/:id/confirm", handlers.ConfirmAppointment)
		api.PUT("/:id/complete", middleware.RequireStaff(), handlers.CompleteAppointment)
		api.PUT("/:id/no-show", middleware.RequireStaff(), handlers.MarkNoShow)
		api.GET("/:id/history", middleware.RequireStaff(), handlers.AppointmentHistory)

		// Reminder view of an appointment.
		api.GET("/:id/reminders", handlers.GetReminderStatus)
		api.POST("/:id/reminders/send", middleware.RequireStaff(), handlers.SendReminderNow)
		api.DELETE("/:id/reminders", middleware.RequireStaff(), handlers.RevokeReminders)
	}
}

// RegisterDoctorRoutes registers schedule, availability, and block endpoints.
func RegisterDoctorRoutes(r *gin.Engine) {
	api := r.Group("/api/doctors")
	{
		api.Use(middleware.ActorMiddleware())
		api.GET("/:doctorId/availability", handlers.GetAvailability)
		api.POST("/:doctorId/check-slot", handlers.CheckSlot)
		api.GET("/:doctorId/appointments", middleware.RequireStaff(), handlers.ListDoctorAppointments)
		api.GET("/:doctorId/working-hours", handlers.GetWorkingHours)
		api.PUT("/:doctorId/working-hours", middleware.RequireStaff(), handlers.UpsertWorkingHours)
		api.GET("/:doctorId/blocks", middleware.RequireStaff(), handlers.ListBlocks)
	}

	blocks := r.Group("/api/blocks")
	{
		blocks.Use(middleware.ActorMiddleware(), middleware.RequireStaff())
		blocks.POST("", handlers.CreateBlock)
		blocks.DELETE("/:id", handlers.DeleteBlock)
		blocks.DELETE("/series/:recurrenceId", handlers.DeleteBlockSeries)
	}
}

// RegisterReminderRoutes registers preferences, test sends, and analytics.
func RegisterReminderRoutes(r *gin.Engine) {
	api := r.Group("/api/reminders")
	{
		api.Use(middleware.ActorMiddleware())
		api.GET("/settings", handlers.GetReminderSettings)
		api.PUT("/settings", handlers.UpdateReminderSettings)
		api.POST("/test", handlers.SendTestReminder)
		api.GET("/analytics", middleware.RequireStaff(), handlers.GetReminderAnalytics)
	}

	maintenance := r.Group("/api/maintenance")
	{
		maintenance.Use(middleware.ActorMiddleware(), middleware.RequireStaff())
		maintenance.POST("/sweep", handlers.RunMaintenance)
	}

	// Engagement callbacks arrive from mail providers and tracking pixels,
	// so they are unauthenticated by design.
	r.GET("/track/:event/:token", handlers.TrackEngagement)
	r.POST("/track/:event/:token", handlers.TrackEngagement)
}

// RegisterUserRoutes registers identity sync and notification inbox endpoints.
func RegisterUserRoutes(r *gin.Engine) {
	api := r.Group("/api/users")
	{
		api.Use(middleware.ActorMiddleware())
		api.POST("/register", middleware.RequireStaff(), handlers.RegisterUser)
		api.PUT("/device-token", handlers.UpdateDeviceToken)
		api.GET("/notifications", handlers.ListNotifications)
		api.PUT("/notifications/:id/read", handlers.MarkNotificationRead)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "deps": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", middleware.HeaderUserID, middleware.HeaderUserRole},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterAppointmentRoutes(r)
	RegisterDoctorRoutes(r)
	RegisterReminderRoutes(r)
	RegisterUserRoutes(r)
	RegisterHealthRoute(r)
}
