// File: services/scheduling/availability.go
package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apptRepo "clinicore/database/repository/appointment"
	blockRepo "clinicore/database/repository/block"
	scheduleRepo "clinicore/database/repository/schedule"
	"clinicore/models"
	"clinicore/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	availabilityCacheTTL = 2 * time.Minute
	maxRangeDays         = 31

	// The midday break is carved out of every working day.
	lunchStartMinute = 12 * 60
	lunchEndMinute   = 13 * 60
)

// AvailabilityService computes bookable slots for a doctor and day by
// subtracting booked appointments, time blocks, and the lunch break from
// the configured working hours.
type AvailabilityService struct {
	schedule scheduleRepo.ScheduleRepository
	appts    apptRepo.AppointmentRepository
	blocks   blockRepo.BlockRepository
	cache    *redis.Client
	clock    utils.Clock
	slotSize time.Duration
	logger   *zap.Logger
}

// NewAvailabilityService wires the availability computation.
func NewAvailabilityService(
	schedule scheduleRepo.ScheduleRepository,
	appts apptRepo.AppointmentRepository,
	blocks blockRepo.BlockRepository,
	cache *redis.Client,
	clock utils.Clock,
	slotMinutes int,
) *AvailabilityService {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	return &AvailabilityService{
		schedule: schedule,
		appts:    appts,
		blocks:   blocks,
		cache:    cache,
		clock:    clock,
		slotSize: time.Duration(slotMinutes) * time.Minute,
		logger:   utils.GetLogger().Named("availability"),
	}
}

func availabilityCacheKey(doctorID, date string) string {
	return fmt.Sprintf("availability:%s:%s", doctorID, date)
}

// ComputeDay returns the availability for one doctor on one date
// ("2006-01-02"). Results are cached briefly; every booking write
// invalidates the affected day.
func (s *AvailabilityService) ComputeDay(ctx context.Context, doctorID, date string) (*models.DayAvailability, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, availabilityCacheKey(doctorID, date)).Result(); err == nil {
			var day models.DayAvailability
			if err := json.Unmarshal([]byte(cached), &day); err == nil {
				return &day, nil
			}
		}
	}

	day, err := s.computeDay(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(day); err == nil {
			if err := s.cache.Set(ctx, availabilityCacheKey(doctorID, date), payload, availabilityCacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache availability", zap.String("doctorID", doctorID), zap.Error(err))
			}
		}
	}
	return day, nil
}

// ComputeRange returns availability for each date in [from, to] inclusive,
// capped at 31 days.
func (s *AvailabilityService) ComputeRange(ctx context.Context, doctorID, from, to string) ([]models.DayAvailability, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, NewValidationError("from", "invalid date, expected YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, NewValidationError("to", "invalid date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, NewValidationError("to", "range end precedes range start")
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return nil, NewValidationError("to", fmt.Sprintf("range is limited to %d days", maxRangeDays))
	}

	var out []models.DayAvailability
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day, err := s.ComputeDay(ctx, doctorID, d.Format("2006-01-02"))
		if err != nil {
			return nil, err
		}
		out = append(out, *day)
	}
	return out, nil
}

// InvalidateDay drops the cached availability for one doctor-day. Called
// after every write that changes the day's occupancy.
func (s *AvailabilityService) InvalidateDay(ctx context.Context, doctorID string, day time.Time) {
	if s.cache == nil {
		return
	}
	key := availabilityCacheKey(doctorID, day.UTC().Format("2006-01-02"))
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.String("key", key), zap.Error(err))
	}
}

func (s *AvailabilityService) computeDay(ctx context.Context, doctorID, date string) (*models.DayAvailability, error) {
	dayStart, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, NewValidationError("date", "invalid date, expected YYYY-MM-DD")
	}
	dayStart = dayStart.UTC()
	dayEnd := dayStart.Add(24 * time.Hour)

	day := &models.DayAvailability{
		DoctorID: doctorID,
		Date:     date,
		Slots:    []models.Slot{},
	}

	hours, err := s.schedule.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if hours == nil {
		return day, nil
	}
	win, working := hours.WindowFor(dayStart)
	if !working {
		return day, nil
	}

	day.IsWorkingDay = true
	booked, blocked, err := s.loadOccupancy(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	day.BookedCount = len(booked)
	day.BlockedCount = len(blocked)
	day.Slots = s.walkSlots(dayStart, win, booked, blocked)
	return day, nil
}

func (s *AvailabilityService) loadOccupancy(ctx context.Context, doctorID string, from, to time.Time) ([]models.Appointment, []models.TimeBlock, error) {
	booked, err := s.appts.ListByDoctorAndRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load appointments: %w", err)
	}
	blocked, err := s.blocks.ListByDoctorAndRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load time blocks: %w", err)
	}
	return booked, blocked, nil
}

// walkSlots generates fixed-size candidate slots across the working window
// and keeps the ones free of appointments, blocks, the lunch break, and
// (for today) the past.
func (s *AvailabilityService) walkSlots(dayStart time.Time, win models.DayWindow, booked []models.Appointment, blocked []models.TimeBlock) []models.Slot {
	now := s.clock.Now()
	slots := []models.Slot{}

	for m := win.StartMinute; m+int(s.slotSize.Minutes()) <= win.EndMinute; m += int(s.slotSize.Minutes()) {
		start := dayStart.Add(time.Duration(m) * time.Minute)
		end := start.Add(s.slotSize)

		if m < lunchEndMinute && m+int(s.slotSize.Minutes()) > lunchStartMinute {
			continue
		}
		if !start.After(now) {
			continue
		}
		if slotTaken(start, end, booked, blocked) {
			continue
		}
		slots = append(slots, models.Slot{Start: start, End: end})
	}
	return slots
}

func slotTaken(start, end time.Time, booked []models.Appointment, blocked []models.TimeBlock) bool {
	for i := range booked {
		if booked[i].IsActive() && booked[i].Overlaps(start, end) {
			return true
		}
	}
	for i := range blocked {
		if blocked[i].Overlaps(start, end) {
			return true
		}
	}
	return false
}
