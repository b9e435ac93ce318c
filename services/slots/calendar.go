package slots

import (
	"context"
	"errors"
	"time"

	"farberge/models"
	"farberge/utils"

	"go.uber.org/zap"
)

// GetDay returns the reconciled day, creating it from the template on first
// access.
func (s *DefaultSlotService) GetDay(ctx context.Context, workerID, date string) (*models.SlotCalendarDay, error) {
	if err := validateDay(workerID, date); err != nil {
		return nil, err
	}
	day, reclaimed, err := s.mutate(ctx, workerID, date, true, func(*models.SlotCalendarDay, time.Time) (bool, error) {
		return false, nil
	})
	s.handOff(ctx, workerID, date, reclaimed)
	if err != nil {
		return nil, AsAppError(err, s.now())
	}
	return day, nil
}

// SetOffDay marks the whole day off. It is refused while the worker has a
// pending or booked booking on the day, or any slot is held or booked.
func (s *DefaultSlotService) SetOffDay(ctx context.Context, workerID, date string) (*models.SlotCalendarDay, error) {
	if err := validateDay(workerID, date); err != nil {
		return nil, err
	}
	if s.Bookings != nil {
		active, err := s.Bookings.ExistsActiveOnDate(ctx, workerID, date)
		if err != nil {
			return nil, utils.NewInternalError("failed to check bookings", err)
		}
		if active {
			return nil, utils.NewConflictError("DAY_HAS_BOOKINGS", "Cannot set an off day while bookings exist on it")
		}
	}

	day, reclaimed, err := s.mutate(ctx, workerID, date, true, func(day *models.SlotCalendarDay, now time.Time) (bool, error) {
		if day.IsOffDay {
			return false, nil
		}
		return true, day.MarkOffDay(now)
	})
	s.handOff(ctx, workerID, date, reclaimed)
	if err != nil {
		return nil, AsAppError(err, s.now())
	}
	s.logger().Info("Off day set", zap.String("workerId", workerID), zap.String("date", date))
	return day, nil
}

// SetUnavailableSlots takes the listed slots out of circulation. The request
// is all-or-nothing.
func (s *DefaultSlotService) SetUnavailableSlots(ctx context.Context, workerID, date string, startTimes []string) (*models.SlotCalendarDay, error) {
	if err := validateDay(workerID, date); err != nil {
		return nil, err
	}
	if len(startTimes) == 0 {
		return nil, utils.NewValidationError("unavailableSlots must not be empty")
	}
	for _, st := range startTimes {
		if err := validateStartTime(st); err != nil {
			return nil, err
		}
	}

	day, reclaimed, err := s.mutate(ctx, workerID, date, true, func(day *models.SlotCalendarDay, now time.Time) (bool, error) {
		return day.MarkUnavailable(startTimes, now)
	})
	s.handOff(ctx, workerID, date, reclaimed)
	if err != nil {
		var se *models.SlotError
		if errors.As(err, &se) && se.Code == models.SlotErrNotFound {
			return nil, utils.NewValidationError("unknown slot " + se.StartTime).WithDetail("startTime", se.StartTime)
		}
		return nil, AsAppError(err, s.now())
	}
	s.logger().Info("Slots marked unavailable", zap.String("workerId", workerID), zap.String("date", date), zap.Strings("slots", startTimes))
	return day, nil
}
