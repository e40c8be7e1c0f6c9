// File: clinicore/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicore/config"
	"clinicore/cron"
	"clinicore/database"
	apptRepo "clinicore/database/repository/appointment"
	auditRepoPkg "clinicore/database/repository/audit"
	blockRepo "clinicore/database/repository/block"
	inboxRepo "clinicore/database/repository/inbox"
	reminderRepo "clinicore/database/repository/reminder"
	scheduleRepo "clinicore/database/repository/schedule"
	schedulerRepo "clinicore/database/repository/scheduler"
	userRepoPkg "clinicore/database/repository/user"
	"clinicore/handlers"
	"clinicore/middleware"
	"clinicore/routes"
	"clinicore/services/audit"
	"clinicore/services/directory"
	"clinicore/services/notification"
	"clinicore/services/reminder"
	"clinicore/services/scheduling"
	"clinicore/services/tasks"
	"clinicore/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	appointments := apptRepo.NewMongoAppointmentRepo()
	blocks := blockRepo.NewMongoBlockRepo()
	workingHours := scheduleRepo.NewMongoScheduleRepo()
	bookingTxn := schedulerRepo.NewMongoSchedulerRepo()
	jobs := reminderRepo.NewMongoJobRepo()
	logs := reminderRepo.NewMongoLogRepo()
	settings := reminderRepo.NewMongoSettingRepo()
	analyticsRows := reminderRepo.NewMongoAnalyticsRepo()
	users := userRepoPkg.NewMongoUserRepo()
	inbox := inboxRepo.NewMongoInboxRepo()
	auditEvents := auditRepoPkg.NewMongoAuditRepo()

	clock := utils.SystemClock{}
	cfg := config.AppConfig

	// services.
	userDirectory := directory.NewUserDirectory(users)
	auditRecorder := audit.NewRecorder(auditEvents)
	analytics := reminder.NewAnalyticsService(analyticsRows, clock)
	planner := reminder.NewPlanner(settings, clock, cfg.ReminderMaxAttempts)
	enqueuer := tasks.NewEnqueuer()

	transports := []notification.Transport{
		notification.NewEmailTransport(),
		notification.NewSMSTransport(),
		notification.NewPushTransport(),
		notification.NewInAppTransport(inbox),
	}
	dispatcher := reminder.NewDispatcher(
		jobs, logs, userDirectory, transports, analytics, enqueuer,
		clock, time.Duration(cfg.TransportTimeoutSecs)*time.Second,
	)
	sweeper := reminder.NewSweeper(jobs, enqueuer, clock,
		time.Duration(cfg.ReminderExpiryGraceMins)*time.Minute)
	reminderService := reminder.NewReminderService(
		jobs, logs, settings, appointments, userDirectory,
		planner, dispatcher, analytics, enqueuer, clock,
	)

	guard := scheduling.NewConflictGuard(appointments, blocks)
	policy := scheduling.NewBookingPolicy(appointments, clock,
		cfg.DefaultMaxUpcomingPerDoc, cfg.PatientCancelWindowDays, cfg.PatientCancelLimit)
	availability := scheduling.NewAvailabilityService(
		workingHours, appointments, blocks, utils.GetCacheClient(), clock, cfg.DefaultSlotMinutes)
	blockRegistry := scheduling.NewBlockRegistry(blocks, appointments, clock)
	scheduler := scheduling.NewAppointmentScheduler(
		appointments, workingHours, bookingTxn, userDirectory, guard, policy,
		availability, planner, enqueuer, auditRecorder, analytics, clock,
	)

	handlers.Init(scheduler, availability, blockRegistry, guard,
		reminderService, sweeper, userDirectory, auditRecorder, inbox)

	// Background delivery worker and periodic scan/sweep.
	cron.InitReminderWorker(dispatcher, sweeper)

	queueRedis := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisReminderQueueDB,
	})
	utils.StartHealthMonitor(database.MongoClient, utils.GetCacheClient(), queueRedis)

	routes.RegisterRoutes(router)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
