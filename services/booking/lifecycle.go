package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "farberge/database/repository/booking"
	"farberge/models"
	"farberge/utils"

	"go.uber.org/zap"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// GetBooking returns a booking visible to the actor. An unpaid booking past
// its deadline is expired before it is returned.
func (s *DefaultBookingService) GetBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, bookingLookupError(err)
	}
	if !canView(actor, b) {
		return nil, utils.NewForbiddenError("You are not allowed to view this booking")
	}

	if b.PaymentOverdue(s.now()) {
		expired, err := s.ExpireBooking(ctx, b.ID, ExpiryLazy)
		if err != nil {
			s.logger().Warn("Lazy expiry failed", zap.String("bookingId", b.ID), zap.Error(err))
		}
		if expired || err != nil {
			if fresh, getErr := s.Bookings.GetByID(ctx, bookingID); getErr == nil {
				b = fresh
			}
		}
	}
	return b, nil
}

func canView(actor models.Actor, b *models.Booking) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return b.CustomerID == actor.ID
	case models.RoleWorker:
		return b.WorkerID == actor.ID
	}
	return false
}

func (s *DefaultBookingService) ListWorkerBookings(ctx context.Context, workerID string, filter models.BookingFilter) (*models.BookingPage, error) {
	if workerID == "" {
		return nil, utils.NewValidationError("workerId is required")
	}
	return s.list(ctx, models.BookingQuery{WorkerID: workerID}, filter)
}

func (s *DefaultBookingService) ListCustomerBookings(ctx context.Context, customerID string, filter models.BookingFilter) (*models.BookingPage, error) {
	if customerID == "" {
		return nil, utils.NewValidationError("customerId is required")
	}
	return s.list(ctx, models.BookingQuery{CustomerID: customerID}, filter)
}

func (s *DefaultBookingService) list(ctx context.Context, q models.BookingQuery, filter models.BookingFilter) (*models.BookingPage, error) {
	page, limit, err := applyFilter(&q, filter, s.now().UTC())
	if err != nil {
		return nil, err
	}

	items, total, err := s.Bookings.List(ctx, q)
	if err != nil {
		return nil, utils.NewInternalError("failed to list bookings", err)
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.BookingPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// applyFilter folds the listing parameters into q and returns the effective
// page and limit.
func applyFilter(q *models.BookingQuery, f models.BookingFilter, now time.Time) (int, int, error) {
	page, limit := f.Page, f.Limit
	if page < 0 || limit < 0 {
		return 0, 0, utils.NewValidationError("page and limit must not be negative")
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	q.Skip = int64((page - 1) * limit)
	q.Limit = int64(limit)

	if f.Month != 0 || f.Year != 0 {
		year := f.Year
		if year == 0 {
			year = now.Year()
		}
		if year < 1970 || year > 9999 {
			return 0, 0, utils.NewValidationError("year is out of range")
		}
		if f.Month != 0 {
			if f.Month < 1 || f.Month > 12 {
				return 0, 0, utils.NewValidationError("month must be between 1 and 12")
			}
			first := time.Date(year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
			q.DateFrom = first.Format(models.DateLayout)
			q.DateTo = first.AddDate(0, 1, -1).Format(models.DateLayout)
		} else {
			q.DateFrom = fmt.Sprintf("%04d-01-01", year)
			q.DateTo = fmt.Sprintf("%04d-12-31", year)
		}
	}

	if f.Status != "" {
		status := models.BookingStatus(f.Status)
		if !status.Valid() {
			return 0, 0, utils.NewValidationError("unknown status " + f.Status)
		}
		q.Status = status
	}

	today := now.Format(models.DateLayout)
	switch f.Filter {
	case "":
	case "upcoming":
		if q.DateFrom < today {
			q.DateFrom = today
		}
	case "completed", "past":
		q.DateBefore = today
	default:
		return 0, 0, utils.NewValidationError("filter must be 'upcoming' or 'completed'")
	}
	return page, limit, nil
}

// CompleteBooking marks a booked appointment as done. Only the assigned
// worker may complete it.
func (s *DefaultBookingService) CompleteBooking(ctx context.Context, bookingID, workerID string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, bookingLookupError(err)
	}
	if b.WorkerID != workerID {
		return nil, utils.NewForbiddenError("You are not allowed to complete this booking")
	}
	if err := completionError(b.Status); err != nil {
		return nil, err
	}

	ok, err := s.Bookings.UpdateStatus(ctx, bookingID, []models.BookingStatus{models.BookingBooked}, models.BookingCompleted)
	if err != nil {
		return nil, utils.NewInternalError("failed to complete booking", err)
	}
	if !ok {
		// Lost a race; report against the current status.
		fresh, err := s.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, bookingLookupError(err)
		}
		if err := completionError(fresh.Status); err != nil {
			return nil, err
		}
		return nil, utils.NewConflictError("INVALID_STATUS", "Booking changed concurrently")
	}

	b.Status = models.BookingCompleted
	s.logger().Info("Booking completed", zap.String("bookingId", bookingID), zap.String("workerId", workerID))
	return b, nil
}

func completionError(status models.BookingStatus) error {
	switch status {
	case models.BookingBooked:
		return nil
	case models.BookingCompleted:
		return utils.NewConflictError("ALREADY_COMPLETED", "Booking is already completed")
	}
	return utils.NewConflictError("INVALID_STATUS", "Only booked appointments can be completed").
		WithDetail("status", string(status))
}

// CancelBooking cancels a booked appointment and frees its slot.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, bookingLookupError(err)
	}
	if !b.Status.CanTransitionTo(models.BookingCancelled) {
		return nil, utils.NewConflictError("INVALID_STATUS", "Only booked appointments can be cancelled").
			WithDetail("status", string(b.Status))
	}

	ok, err := s.Bookings.UpdateStatus(ctx, bookingID, []models.BookingStatus{models.BookingBooked}, models.BookingCancelled)
	if err != nil {
		return nil, utils.NewInternalError("failed to cancel booking", err)
	}
	if !ok {
		return nil, utils.NewConflictError("INVALID_STATUS", "Booking changed concurrently")
	}
	b.Status = models.BookingCancelled

	if err := s.Holds.ReleaseBooked(ctx, b.WorkerID, b.Date, b.StartTime, b.ID); err != nil {
		s.logger().Error("Booking cancelled but slot not released",
			zap.String("bookingId", b.ID), zap.String("workerId", b.WorkerID), zap.String("date", b.Date), zap.Error(err))
	}
	s.logger().Info("Booking cancelled", zap.String("bookingId", bookingID))
	return b, nil
}

// DeleteBooking purges a booking, freeing whatever claim it still has on
// its slot first.
func (s *DefaultBookingService) DeleteBooking(ctx context.Context, bookingID string) error {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return bookingLookupError(err)
	}

	switch b.Status {
	case models.BookingPending:
		err = s.Holds.ReleaseHold(ctx, b.WorkerID, b.Date, b.StartTime, b.ID)
	case models.BookingBooked:
		err = s.Holds.ReleaseBooked(ctx, b.WorkerID, b.Date, b.StartTime, b.ID)
	}
	if err != nil {
		return utils.NewInternalError("failed to release slot", err)
	}

	if err := s.Bookings.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil
		}
		return utils.NewInternalError("failed to delete booking", err)
	}
	s.logger().Info("Booking deleted", zap.String("bookingId", bookingID), zap.String("status", string(b.Status)))
	return nil
}

// ExpireBooking moves an unpaid, overdue pending booking to expired and
// releases its hold. It reports whether this call performed the transition;
// anything else (missing, paid, already expired, not yet due) is a no-op.
func (s *DefaultBookingService) ExpireBooking(ctx context.Context, bookingID string, source string) (bool, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	expired, err := s.Bookings.MarkExpired(ctx, bookingID, s.now())
	if err != nil {
		return false, err
	}
	if !expired {
		return false, nil
	}
	utils.BookingsExpired.WithLabelValues(source).Inc()

	if err := s.Holds.ReleaseHold(ctx, b.WorkerID, b.Date, b.StartTime, b.ID); err != nil {
		return true, fmt.Errorf("booking %s expired but hold not released: %w", b.ID, err)
	}
	s.logger().Info("Booking expired",
		zap.String("bookingId", b.ID), zap.String("source", source),
		zap.String("workerId", b.WorkerID), zap.String("date", b.Date), zap.String("startTime", b.StartTime))
	return true, nil
}
