// File: services/scheduling/blocks.go
package scheduling

import (
	"context"
	"fmt"
	"time"

	apptRepo "clinicore/database/repository/appointment"
	blockRepo "clinicore/database/repository/block"
	"clinicore/models"
	"clinicore/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BlockRequest is the input for creating a (possibly recurring) time block.
type BlockRequest struct {
	DoctorID      string                   `json:"doctorId"`
	Start         time.Time                `json:"start"`
	End           time.Time                `json:"end"`
	Reason        string                   `json:"reason"`
	BlockType     models.BlockType         `json:"blockType"`
	Recurrence    models.RecurrencePattern `json:"recurrence"`
	RecurrenceEnd time.Time                `json:"recurrenceEnd"`
}

// BlockResult reports the created occurrences plus any already-booked
// appointments that now sit inside a blocked period. The block wins; the
// clinic is expected to reschedule or cancel the listed appointments.
type BlockResult struct {
	Blocks               []models.TimeBlock   `json:"blocks"`
	AffectedAppointments []models.Appointment `json:"affectedAppointments,omitempty"`
}

// BlockRegistry manages doctor unavailability periods. Recurring blocks are
// expanded into concrete occurrences at creation time, capped at three
// months ahead.
type BlockRegistry struct {
	blocks blockRepo.BlockRepository
	appts  apptRepo.AppointmentRepository
	clock  utils.Clock
	logger *zap.Logger
}

// NewBlockRegistry wires the block registry.
func NewBlockRegistry(blocks blockRepo.BlockRepository, appts apptRepo.AppointmentRepository, clock utils.Clock) *BlockRegistry {
	return &BlockRegistry{
		blocks: blocks,
		appts:  appts,
		clock:  clock,
		logger: utils.GetLogger().Named("blocks"),
	}
}

// Create validates and stores the block, expanding recurrences. Overlap
// with existing appointments does not fail the call; the affected
// appointments are reported back.
func (r *BlockRegistry) Create(ctx context.Context, actor models.Actor, req BlockRequest) (*BlockResult, error) {
	if actor.Role == models.RolePatient {
		return nil, &AuthorizationError{Msg: "patients cannot manage time blocks"}
	}
	if req.DoctorID == "" {
		return nil, NewValidationError("doctorId", "required")
	}
	if !req.End.After(req.Start) {
		return nil, NewValidationError("end", "must be after start")
	}
	if req.BlockType == "" {
		req.BlockType = models.BlockOther
	}
	if req.Recurrence == "" {
		req.Recurrence = models.RecurrenceNone
	}
	switch req.Recurrence {
	case models.RecurrenceNone, models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly:
	default:
		return nil, NewValidationError("recurrence", "unknown recurrence pattern")
	}

	now := r.clock.Now()
	if req.BlockType != models.BlockEmergency && req.Start.Before(now) {
		return nil, NewValidationError("start", "blocks cannot start in the past")
	}

	occurrences, err := expandRecurrence(req, now)
	if err != nil {
		return nil, err
	}

	if err := r.blocks.CreateMany(ctx, occurrences); err != nil {
		return nil, fmt.Errorf("could not store time blocks: %w", err)
	}

	result := &BlockResult{Blocks: occurrences}
	for i := range occurrences {
		appts, err := r.appts.ListByDoctorAndRange(ctx, req.DoctorID, occurrences[i].Start, occurrences[i].End)
		if err != nil {
			r.logger.Warn("could not list appointments under new block", zap.Error(err))
			continue
		}
		for j := range appts {
			if appts[j].IsActive() {
				result.AffectedAppointments = append(result.AffectedAppointments, appts[j])
			}
		}
	}
	if len(result.AffectedAppointments) > 0 {
		r.logger.Info("block covers existing appointments",
			zap.String("doctorID", req.DoctorID),
			zap.Int("affected", len(result.AffectedAppointments)))
	}
	return result, nil
}

// Delete removes one occurrence. Started blocks are immutable except for
// emergency blocks.
func (r *BlockRegistry) Delete(ctx context.Context, actor models.Actor, id string) error {
	if actor.Role == models.RolePatient {
		return &AuthorizationError{Msg: "patients cannot manage time blocks"}
	}
	block, err := r.blocks.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return err
		}
		return fmt.Errorf("could not load time block: %w", err)
	}
	if !block.CanModify(r.clock.Now()) {
		return &StateError{Msg: "blocks that have already started cannot be removed"}
	}
	return r.blocks.Delete(ctx, id)
}

// DeleteSeries removes every future occurrence of a recurring block.
// Past occurrences stay in place as history.
func (r *BlockRegistry) DeleteSeries(ctx context.Context, actor models.Actor, recurrenceID string) (int64, error) {
	if actor.Role == models.RolePatient {
		return 0, &AuthorizationError{Msg: "patients cannot manage time blocks"}
	}
	if recurrenceID == "" {
		return 0, NewValidationError("recurrenceId", "required")
	}
	return r.blocks.DeleteByRecurrenceID(ctx, recurrenceID, r.clock.Now())
}

// List returns the concrete occurrences for a doctor in a range.
func (r *BlockRegistry) List(ctx context.Context, doctorID string, from, to time.Time) ([]models.TimeBlock, error) {
	return r.blocks.ListByDoctorAndRange(ctx, doctorID, from, to)
}

// expandRecurrence turns the request into concrete occurrences. A
// non-recurring request yields exactly one. Recurring requests repeat the
// interval forward until RecurrenceEnd or the three-month horizon,
// whichever comes first; all occurrences share a recurrence ID.
func expandRecurrence(req BlockRequest, now time.Time) ([]models.TimeBlock, error) {
	base := models.TimeBlock{
		ID:         uuid.NewString(),
		DoctorID:   req.DoctorID,
		Start:      req.Start,
		End:        req.End,
		Reason:     req.Reason,
		BlockType:  req.BlockType,
		Recurrence: req.Recurrence,
		CreatedAt:  now,
	}
	if req.Recurrence == models.RecurrenceNone {
		return []models.TimeBlock{base}, nil
	}

	horizon := now.Add(models.MaxRecurrenceHorizon)
	until := req.RecurrenceEnd
	if until.IsZero() || until.After(horizon) {
		until = horizon
	}
	if !until.After(req.Start) {
		return nil, NewValidationError("recurrenceEnd", "must be after the first occurrence")
	}

	recurrenceID := uuid.NewString()
	base.RecurrenceID = recurrenceID
	base.RecurrenceEnd = until

	duration := req.End.Sub(req.Start)
	occurrences := []models.TimeBlock{base}
	for start := nextOccurrence(req.Start, req.Recurrence); !start.After(until); start = nextOccurrence(start, req.Recurrence) {
		occ := base
		occ.ID = uuid.NewString()
		occ.Start = start
		occ.End = start.Add(duration)
		occurrences = append(occurrences, occ)
	}
	return occurrences, nil
}

func nextOccurrence(start time.Time, pattern models.RecurrencePattern) time.Time {
	switch pattern {
	case models.RecurrenceDaily:
		return start.AddDate(0, 0, 1)
	case models.RecurrenceWeekly:
		return start.AddDate(0, 0, 7)
	case models.RecurrenceMonthly:
		return start.AddDate(0, 1, 0)
	}
	return start
}
