package handlers

import (
	"errors"
	"net/http"

	inboxRepo "clinicore/database/repository/inbox"
	"clinicore/services/audit"
	"clinicore/services/directory"
	"clinicore/services/reminder"
	"clinicore/services/scheduling"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Services used by the HTTP layer, wired once at startup.
var (
	Scheduler     *scheduling.AppointmentScheduler
	Availability  *scheduling.AvailabilityService
	Blocks        *scheduling.BlockRegistry
	Guard         *scheduling.ConflictGuard
	Reminders     *reminder.ReminderService
	Sweeper       *reminder.Sweeper
	Directory     *directory.UserDirectory
	AuditRecorder *audit.Recorder
	Inbox         inboxRepo.InboxRepository
)

// Init wires the handler package with its services.
func Init(
	scheduler *scheduling.AppointmentScheduler,
	availability *scheduling.AvailabilityService,
	blocks *scheduling.BlockRegistry,
	guard *scheduling.ConflictGuard,
	reminders *reminder.ReminderService,
	sweeper *reminder.Sweeper,
	dir *directory.UserDirectory,
	auditRec *audit.Recorder,
	inbox inboxRepo.InboxRepository,
) {
	Scheduler = scheduler
	Availability = availability
	Blocks = blocks
	Guard = guard
	Reminders = reminders
	Sweeper = sweeper
	Directory = dir
	AuditRecorder = auditRec
	Inbox = inbox
}

// respondError translates service errors into HTTP responses.
func respondError(c *gin.Context, err error) {
	var verr *scheduling.ValidationError
	var cerr *scheduling.ConflictError
	var aerr *scheduling.AuthorizationError
	var serr *scheduling.StateError

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.As(err, &cerr):
		c.JSON(http.StatusConflict, gin.H{"error": cerr.Error(), "kind": string(cerr.Kind)})
	case errors.As(err, &aerr):
		c.JSON(http.StatusForbidden, gin.H{"error": aerr.Error()})
	case errors.As(err, &serr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": serr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
