package slots

import (
	"context"
	"time"

	"farberge/models"
	"farberge/utils"

	"go.uber.org/zap"
)

// PlaceHold claims the slot for bookingID until now+holdFor. Stale holds on
// the day are reclaimed first and reported in the result so the caller can
// expire their bookings. A rejected hold may still return a result carrying
// only Reclaimed.
func (s *DefaultSlotService) PlaceHold(ctx context.Context, workerID, date, startTime, bookingID string, holdFor time.Duration) (*HoldResult, error) {
	if err := validateDay(workerID, date); err != nil {
		return nil, err
	}
	if err := validateStartTime(startTime); err != nil {
		return nil, err
	}
	if bookingID == "" {
		return nil, utils.NewValidationError("bookingId is required")
	}
	if holdFor <= 0 {
		return nil, utils.NewValidationError("hold duration must be positive")
	}

	var result HoldResult
	_, reclaimed, err := s.mutate(ctx, workerID, date, true, func(day *models.SlotCalendarDay, now time.Time) (bool, error) {
		idx := day.FindSlot(startTime)
		until := now.Add(holdFor)
		if err := day.PlaceHold(idx, bookingID, until, now); err != nil {
			return false, err
		}
		result.Slot = day.Slots[idx]
		result.HeldUntil = until
		return true, nil
	})
	if err != nil {
		if code, ok := models.SlotErrorCodeOf(err); ok {
			utils.HoldsRejected.WithLabelValues(string(code)).Inc()
		}
		if len(reclaimed) > 0 {
			s.logger().Info("Reclaimed stale holds", zap.String("workerId", workerID), zap.String("date", date), zap.Strings("bookingIds", reclaimed))
		}
		return &HoldResult{Reclaimed: reclaimed}, err
	}
	result.Reclaimed = reclaimed
	utils.HoldsPlaced.Inc()
	s.logger().Debug("Hold placed",
		zap.String("workerId", workerID), zap.String("date", date),
		zap.String("startTime", startTime), zap.String("bookingId", bookingID),
		zap.Time("heldUntil", result.HeldUntil))
	return &result, nil
}

// ReleaseHold drops bookingID's hold on the slot. Releasing a slot that is
// not held by bookingID, or a day that does not exist, is a no-op.
func (s *DefaultSlotService) ReleaseHold(ctx context.Context, workerID, date, startTime, bookingID string) error {
	_, reclaimed, err := s.mutate(ctx, workerID, date, false, func(day *models.SlotCalendarDay, now time.Time) (bool, error) {
		released := day.ReleaseHold(day.FindSlot(startTime), bookingID, now)
		if released {
			utils.HoldsReleased.Inc()
		}
		return released, nil
	})
	s.handOff(ctx, workerID, date, reclaimed)
	return err
}

// ConfirmHold makes the slot a permanent booking for bookingID.
func (s *DefaultSlotService) ConfirmHold(ctx context.Context, workerID, date, startTime, bookingID string) error {
	_, reclaimed, err := s.mutate(ctx, workerID, date, true, func(day *models.SlotCalendarDay, now time.Time) (bool, error) {
		idx := day.FindSlot(startTime)
		if idx >= 0 && day.Slots[idx].IsBooked && day.Slots[idx].BookedBy == bookingID {
			return false, nil
		}
		if err := day.ConfirmHold(idx, bookingID, now); err != nil {
			return false, err
		}
		return true, nil
	})
	s.handOff(ctx, workerID, date, reclaimed)
	return err
}

// ReleaseBooked frees a slot permanently booked by bookingID.
func (s *DefaultSlotService) ReleaseBooked(ctx context.Context, workerID, date, startTime, bookingID string) error {
	_, reclaimed, err := s.mutate(ctx, workerID, date, false, func(day *models.SlotCalendarDay, now time.Time) (bool, error) {
		return day.ReleaseBooking(day.FindSlot(startTime), bookingID, now), nil
	})
	s.handOff(ctx, workerID, date, reclaimed)
	return err
}

// ReconcileDay clears stale holds on an existing day and returns the
// bookings they belonged to. The caller owns expiring them; OnReclaim is not
// called.
func (s *DefaultSlotService) ReconcileDay(ctx context.Context, workerID, date string) ([]string, error) {
	_, reclaimed, err := s.mutate(ctx, workerID, date, false, func(*models.SlotCalendarDay, time.Time) (bool, error) {
		return false, nil
	})
	return reclaimed, err
}

// handOff passes holds reclaimed during a lazy touch to OnReclaim so their
// bookings expire with them.
func (s *DefaultSlotService) handOff(ctx context.Context, workerID, date string, reclaimed []string) {
	if len(reclaimed) == 0 {
		return
	}
	s.logger().Info("Reclaimed stale holds", zap.String("workerId", workerID), zap.String("date", date), zap.Strings("bookingIds", reclaimed))
	if s.OnReclaim != nil {
		s.OnReclaim(ctx, reclaimed)
	}
}
