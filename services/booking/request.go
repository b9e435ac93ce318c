package booking

import (
	"context"
	"time"

	"farberge/models"
	"farberge/services/slots"
	"farberge/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultBookingService) validateRequest(req models.BookSlotRequest, now time.Time) error {
	if req.WorkerID == "" {
		return utils.NewValidationError("workerId is required")
	}
	if len(req.Services) == 0 {
		return utils.NewValidationError("at least one service is required")
	}
	day, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return utils.NewValidationError("date must be in YYYY-MM-DD format")
	}
	start, err := models.ParseClock(req.StartTime)
	if err != nil {
		return utils.NewValidationError("startTime must be in HH:MM format")
	}

	now = now.UTC()
	today := now.Format(models.DateLayout)
	if req.Date < today {
		return utils.NewValidationError("cannot book a date in the past")
	}
	if req.Date == today {
		slotStart := day.Add(time.Duration(start) * time.Minute)
		if !slotStart.After(now) {
			return utils.NewValidationError("cannot book a slot that has already started")
		}
	}
	return nil
}

// RequestBooking holds the requested slot and records a pending booking that
// must be paid before the hold expires.
func (s *DefaultBookingService) RequestBooking(ctx context.Context, customerID string, req models.BookSlotRequest) (*models.BookingResponse, error) {
	logger := s.logger().With(zap.String("customerId", customerID), zap.String("workerId", req.WorkerID),
		zap.String("date", req.Date), zap.String("startTime", req.StartTime))

	now := s.now()
	if customerID == "" {
		return nil, utils.NewValidationError("customerId is required")
	}
	if err := s.validateRequest(req, now); err != nil {
		return nil, err
	}

	if _, err := s.Customers.GetCustomer(ctx, customerID); err != nil {
		return nil, directoryError(err)
	}
	worker, err := s.Workers.GetWorker(ctx, req.WorkerID)
	if err != nil {
		return nil, directoryError(err)
	}
	if worker.IsBlocked {
		return nil, utils.NewConflictError("WORKER_UNAVAILABLE", "Worker is not accepting bookings")
	}

	lines, amount, err := s.priceServices(ctx, worker, req.Services)
	if err != nil {
		return nil, err
	}

	bookingID := uuid.New().String()
	hold, err := s.Holds.PlaceHold(ctx, req.WorkerID, req.Date, req.StartTime, bookingID, s.holdDuration())
	if hold != nil && len(hold.Reclaimed) > 0 {
		s.ExpireReclaimed(ctx, hold.Reclaimed)
	}
	if err != nil {
		logger.Info("Hold rejected", zap.Error(err))
		return nil, slots.AsAppError(err, s.now())
	}

	expiresAt := hold.HeldUntil
	booking := &models.Booking{
		ID:               bookingID,
		CustomerID:       customerID,
		WorkerID:         req.WorkerID,
		Services:         lines,
		Date:             req.Date,
		StartTime:        req.StartTime,
		EndTime:          hold.Slot.EndTime,
		Status:           models.BookingPending,
		PaymentAmount:    amount,
		PaymentExpiresAt: &expiresAt,
	}
	if err := s.Bookings.Create(ctx, booking); err != nil {
		logger.Error("Failed to insert booking, releasing hold", zap.String("bookingId", bookingID), zap.Error(err))
		if relErr := s.Holds.ReleaseHold(context.WithoutCancel(ctx), req.WorkerID, req.Date, req.StartTime, bookingID); relErr != nil {
			logger.Error("Failed to release hold after insert failure", zap.String("bookingId", bookingID), zap.Error(relErr))
		}
		return nil, utils.NewInternalError("failed to create booking", err)
	}

	if s.Expiry != nil {
		if err := s.Expiry.ScheduleExpiry(ctx, bookingID, expiresAt); err != nil {
			logger.Warn("Failed to schedule expiry task, sweeper will handle it", zap.String("bookingId", bookingID), zap.Error(err))
		}
	}

	logger.Info("Booking pending payment", zap.String("bookingId", bookingID), zap.Time("expiresAt", expiresAt), zap.Float64("amount", amount))
	return &models.BookingResponse{
		BookingID:     bookingID,
		Status:        booking.Status,
		WorkerID:      booking.WorkerID,
		Date:          booking.Date,
		StartTime:     booking.StartTime,
		EndTime:       booking.EndTime,
		PaymentAmount: amount,
		ExpiresAt:     &expiresAt,
	}, nil
}

// ExpireReclaimed expires the bookings whose stale holds were cleared
// inline. Failures are logged; the sweeper retries them.
func (s *DefaultBookingService) ExpireReclaimed(ctx context.Context, bookingIDs []string) {
	for _, id := range bookingIDs {
		if _, err := s.ExpireBooking(ctx, id, ExpiryReclaim); err != nil {
			s.logger().Warn("Failed to expire booking with reclaimed hold", zap.String("bookingId", id), zap.Error(err))
		}
	}
}
