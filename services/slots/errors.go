package slots

import (
	"errors"
	"math"
	"time"

	"farberge/models"
	"farberge/utils"
)

// ErrContention is returned when a day kept changing under every save attempt.
var ErrContention = errors.New("calendar day is under heavy contention")

// AsAppError translates slot and calendar failures into the application
// error taxonomy. Errors that already are AppErrors pass through.
func AsAppError(err error, now time.Time) error {
	if err == nil {
		return nil
	}
	var ae *utils.AppError
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, ErrContention) {
		return utils.NewConflictError("CALENDAR_BUSY", "The worker's calendar is busy, please retry")
	}

	var se *models.SlotError
	if !errors.As(err, &se) {
		return utils.NewInternalError("calendar operation failed", err)
	}
	switch se.Code {
	case models.SlotErrOffDay:
		return utils.NewConflictError(string(se.Code), "Worker is off on this day")
	case models.SlotErrNotFound:
		appErr := utils.NewNotFoundError(string(se.Code), "Time slot not found")
		if se.StartTime != "" {
			appErr.WithDetail("startTime", se.StartTime)
		}
		return appErr
	case models.SlotErrHeld:
		appErr := utils.NewConflictError(string(se.Code), "Slot is temporarily held by another customer")
		appErr.WithDetail("startTime", se.StartTime)
		if se.HeldUntil != nil {
			appErr.WithDetail("heldUntil", se.HeldUntil.UTC().Format(time.RFC3339))
			appErr.WithDetail("retryAfterMinutes", RetryAfterMinutes(*se.HeldUntil, now))
		}
		return appErr
	case models.SlotErrBooked:
		return utils.NewConflictError(string(se.Code), "Slot is already booked").WithDetail("startTime", se.StartTime)
	case models.SlotErrBlocked:
		return utils.NewConflictError(string(se.Code), "Slot is reserved as a buffer next to another booking").WithDetail("startTime", se.StartTime)
	case models.SlotErrUnavailable:
		return utils.NewConflictError(string(se.Code), "Slot is not available").WithDetail("startTime", se.StartTime)
	}
	return utils.NewInternalError("unknown slot error", err)
}

// RetryAfterMinutes rounds the remaining hold time up to whole minutes.
func RetryAfterMinutes(heldUntil, now time.Time) int {
	remaining := heldUntil.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Minutes()))
}
