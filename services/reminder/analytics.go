// File: services/reminder/analytics.go
package reminder

import (
	"context"
	"fmt"
	"time"

	reminderRepo "clinicore/database/repository/reminder"
	"clinicore/models"
	"clinicore/utils"

	"go.uber.org/zap"
)

// AnalyticsService maintains the per-day, per-doctor counters and derived
// rates. Every write is an atomic upsert followed by a rate recompute;
// counter updates are never allowed to fail a caller.
type AnalyticsService struct {
	repo   reminderRepo.AnalyticsRepository
	clock  utils.Clock
	logger *zap.Logger
}

// NewAnalyticsService wires the analytics layer.
func NewAnalyticsService(repo reminderRepo.AnalyticsRepository, clock utils.Clock) *AnalyticsService {
	return &AnalyticsService{
		repo:   repo,
		clock:  clock,
		logger: utils.GetLogger().Named("analytics"),
	}
}

// RecordDispatch counts one delivery attempt result, overall and per channel.
func (s *AnalyticsService) RecordDispatch(ctx context.Context, doctorID string, channel models.Channel, success bool) {
	field := "sent"
	if !success {
		field = "failed"
	}
	date := s.clock.Now().Format("2006-01-02")
	s.increment(ctx, date, doctorID, map[string]int{
		field: 1,
		fmt.Sprintf("by_channel.%s.%s", channel, field): 1,
	})
}

// RecordEngagement counts a delivered/opened/clicked callback.
func (s *AnalyticsService) RecordEngagement(ctx context.Context, doctorID, event string) {
	switch event {
	case "delivered", "opened", "clicked":
	default:
		return
	}
	date := s.clock.Now().Format("2006-01-02")
	s.increment(ctx, date, doctorID, map[string]int{event: 1})
}

// RecordOutcome counts an appointment outcome on the appointment's day:
// "kept", "cancelled", "no_show", or "rescheduled".
func (s *AnalyticsService) RecordOutcome(ctx context.Context, doctorID string, day time.Time, outcome string) {
	switch outcome {
	case "kept", "cancelled", "no_show", "rescheduled":
	default:
		return
	}
	s.increment(ctx, day.UTC().Format("2006-01-02"), doctorID, map[string]int{outcome: 1})
}

// Report returns the analytics rows for a doctor and inclusive date range.
// An empty doctorID aggregates nothing special; it returns all doctors' rows.
func (s *AnalyticsService) Report(ctx context.Context, doctorID, from, to string) ([]models.ReminderAnalytics, error) {
	if _, err := time.Parse("2006-01-02", from); err != nil {
		return nil, fmt.Errorf("invalid from date: %w", err)
	}
	if _, err := time.Parse("2006-01-02", to); err != nil {
		return nil, fmt.Errorf("invalid to date: %w", err)
	}
	return s.repo.Query(ctx, doctorID, from, to)
}

func (s *AnalyticsService) increment(ctx context.Context, date, doctorID string, fields map[string]int) {
	row, err := s.repo.Increment(ctx, date, doctorID, fields)
	if err != nil {
		s.logger.Warn("failed to increment analytics",
			zap.String("doctorID", doctorID),
			zap.String("date", date),
			zap.Error(err))
		return
	}
	row.RecomputeRates()
	if err := s.repo.SetRates(ctx, row); err != nil {
		s.logger.Warn("failed to persist analytics rates",
			zap.String("doctorID", doctorID),
			zap.Error(err))
	}
}
