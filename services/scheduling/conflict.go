// File: services/scheduling/conflict.go
package scheduling

import (
	"context"
	"fmt"
	"time"

	apptRepo "clinicore/database/repository/appointment"
	blockRepo "clinicore/database/repository/block"
)

// ConflictGuard answers "is this interval free?" outside a transaction.
// It is used for fast pre-checks and read endpoints; the booking
// transaction repeats the checks authoritatively inside its session.
type ConflictGuard struct {
	appts  apptRepo.AppointmentRepository
	blocks blockRepo.BlockRepository
}

// NewConflictGuard wires the guard.
func NewConflictGuard(appts apptRepo.AppointmentRepository, blocks blockRepo.BlockRepository) *ConflictGuard {
	return &ConflictGuard{appts: appts, blocks: blocks}
}

// CheckSlot returns a ConflictError when the interval overlaps an active
// appointment or a block for the doctor. excludeID ignores one appointment,
// for reschedules moving within their own slot.
func (g *ConflictGuard) CheckSlot(ctx context.Context, doctorID string, start, end time.Time, excludeID string) error {
	busy, err := g.appts.CountOverlapping(ctx, doctorID, start, end, excludeID)
	if err != nil {
		return fmt.Errorf("conflict check failed: %w", err)
	}
	if busy > 0 {
		return &ConflictError{Kind: ConflictDoctorBusy, Msg: "the doctor already has an appointment in this interval"}
	}

	blocked, err := g.blocks.CountOverlapping(ctx, doctorID, start, end)
	if err != nil {
		return fmt.Errorf("block check failed: %w", err)
	}
	if blocked > 0 {
		return &ConflictError{Kind: ConflictBlocked, Msg: "the interval falls inside a blocked period"}
	}
	return nil
}
