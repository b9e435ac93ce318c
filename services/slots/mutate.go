package slots

import (
	"context"
	"errors"
	"time"

	calendarRepo "farberge/database/repository/calendar"
	"farberge/models"
	"farberge/utils"

	"go.uber.org/zap"
)

const maxSaveAttempts = 5

type mutation func(day *models.SlotCalendarDay, now time.Time) (changed bool, err error)

// mutate runs fn against a freshly loaded, reconciled day and saves the
// result with an optimistic version check, reloading on conflict. When
// create is false a missing day yields (nil, nil, nil) without calling fn.
func (s *DefaultSlotService) mutate(ctx context.Context, workerID, date string, create bool, fn mutation) (*models.SlotCalendarDay, []string, error) {
	var defaults []models.Slot
	if create {
		var err error
		if defaults, err = s.Template.Generate(); err != nil {
			return nil, nil, utils.NewInternalError("invalid slot template", err)
		}
	}

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		var day *models.SlotCalendarDay
		var err error
		if create {
			day, err = s.Repo.GetOrCreate(ctx, workerID, date, defaults)
		} else {
			day, err = s.Repo.Get(ctx, workerID, date)
			if errors.Is(err, calendarRepo.ErrNotFound) {
				return nil, nil, nil
			}
		}
		if err != nil {
			return nil, nil, err
		}

		now := s.now()
		reclaimed, reconciled := day.Reconcile(now)
		mutated, fnErr := fn(day, now)
		if fnErr != nil {
			if reconciled {
				// Persist the reconciliation even though the request failed.
				if err := s.Repo.Save(ctx, day); err != nil && !errors.Is(err, calendarRepo.ErrVersionConflict) {
					s.logger().Warn("Failed to persist reconciled day", zap.String("workerId", workerID), zap.String("date", date), zap.Error(err))
				}
			}
			s.countReclaimed(reclaimed)
			return day, reclaimed, fnErr
		}
		if !reconciled && !mutated {
			return day, reclaimed, nil
		}

		err = s.Repo.Save(ctx, day)
		if errors.Is(err, calendarRepo.ErrVersionConflict) {
			s.logger().Debug("Calendar version conflict, retrying",
				zap.String("workerId", workerID), zap.String("date", date), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		s.countReclaimed(reclaimed)
		return day, reclaimed, nil
	}
	return nil, nil, ErrContention
}

func (s *DefaultSlotService) countReclaimed(reclaimed []string) {
	if len(reclaimed) > 0 {
		utils.HoldsReleased.Add(float64(len(reclaimed)))
	}
}

func validateDay(workerID, date string) error {
	if workerID == "" {
		return utils.NewValidationError("workerId is required")
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return utils.NewValidationError("date must be in YYYY-MM-DD format")
	}
	return nil
}

func validateStartTime(startTime string) error {
	if _, err := models.ParseClock(startTime); err != nil {
		return utils.NewValidationError("startTime must be in HH:MM format")
	}
	return nil
}
