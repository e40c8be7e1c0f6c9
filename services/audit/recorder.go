// File: services/audit/recorder.go
package audit

import (
	"context"
	"time"

	auditRepo "clinicore/database/repository/audit"
	"clinicore/models"
	"clinicore/utils"

	"go.uber.org/zap"
)

// Recorder writes audit events without blocking or failing the operation
// that produced them. Losing an event is logged, never propagated.
type Recorder struct {
	repo   auditRepo.AuditRepository
	logger *zap.Logger
}

// NewRecorder wires the fire-and-forget recorder.
func NewRecorder(repo auditRepo.AuditRepository) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: utils.GetLogger().Named("audit"),
	}
}

// Record persists the event in the background. The write gets its own
// context so a cancelled request cannot drop the trail.
func (r *Recorder) Record(ctx context.Context, event *models.AuditEvent) {
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.repo.Record(writeCtx, event); err != nil {
			r.logger.Warn("failed to record audit event",
				zap.String("action", event.Action),
				zap.Error(err))
		}
	}()
}

// History returns the recent events for one entity.
func (r *Recorder) History(ctx context.Context, kind, id string, limit int64) ([]models.AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return r.repo.ListByRelated(ctx, kind, id, limit)
}
