package slots

import (
	"context"
	"time"

	calendarRepo "farberge/database/repository/calendar"
	"farberge/models"

	"go.uber.org/zap"
)

// HoldManager owns every slot transition on a worker's day.
type HoldManager interface {
	PlaceHold(ctx context.Context, workerID, date, startTime, bookingID string, holdFor time.Duration) (*HoldResult, error)
	ReleaseHold(ctx context.Context, workerID, date, startTime, bookingID string) error
	ConfirmHold(ctx context.Context, workerID, date, startTime, bookingID string) error
	ReleaseBooked(ctx context.Context, workerID, date, startTime, bookingID string) error
	ReconcileDay(ctx context.Context, workerID, date string) ([]string, error)
}

// CalendarManager is the worker-facing side of the calendar.
type CalendarManager interface {
	GetDay(ctx context.Context, workerID, date string) (*models.SlotCalendarDay, error)
	SetOffDay(ctx context.Context, workerID, date string) (*models.SlotCalendarDay, error)
	SetUnavailableSlots(ctx context.Context, workerID, date string, startTimes []string) (*models.SlotCalendarDay, error)
}

// ActiveBookingChecker reports pending or booked bookings on a worker's day.
type ActiveBookingChecker interface {
	ExistsActiveOnDate(ctx context.Context, workerID, date string) (bool, error)
}

// HoldResult describes a successful hold.
type HoldResult struct {
	Slot      models.Slot
	HeldUntil time.Time
	// Reclaimed lists bookings whose stale holds were cleared while placing this one.
	Reclaimed []string
}

// DefaultSlotService implements HoldManager and CalendarManager.
type DefaultSlotService struct {
	Repo     calendarRepo.CalendarRepository
	Bookings ActiveBookingChecker
	Template models.SlotTemplate
	Clock    func() time.Time
	Logger   *zap.Logger

	// OnReclaim receives bookings whose stale holds were cleared by a call
	// that does not return them to its caller.
	OnReclaim func(ctx context.Context, bookingIDs []string)
}

func (s *DefaultSlotService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

func (s *DefaultSlotService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}
