package booking

import (
	"context"
	"time"

	bookingRepo "farberge/database/repository/booking"
	directoryRepo "farberge/database/repository/directory"
	"farberge/models"
	"farberge/services/slots"

	"go.uber.org/zap"
)

// BookingService drives a booking from request to a terminal state.
type BookingService interface {
	RequestBooking(ctx context.Context, customerID string, req models.BookSlotRequest) (*models.BookingResponse, error)
	GetBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	ListWorkerBookings(ctx context.Context, workerID string, filter models.BookingFilter) (*models.BookingPage, error)
	ListCustomerBookings(ctx context.Context, customerID string, filter models.BookingFilter) (*models.BookingPage, error)
	CompleteBooking(ctx context.Context, bookingID, workerID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	DeleteBooking(ctx context.Context, bookingID string) error
	ExpireBooking(ctx context.Context, bookingID string, source string) (bool, error)
}

// PaymentService reacts to the payment provider.
type PaymentService interface {
	CreateCheckout(ctx context.Context, customerID, bookingID string) (*models.CheckoutSession, error)
	OnPaymentSucceeded(ctx context.Context, bookingID, transactionID string, amountPaid float64) error
	OnPaymentFailed(ctx context.Context, bookingID, reason string)
}

// ExpiryScheduler queues a one-off expiry check for a booking.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, bookingID string, at time.Time) error
}

// CheckoutProvider opens a hosted checkout with the payment provider.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error)
}

// Expiry sources, used as the metrics label.
const (
	ExpirySweep   = "sweep"
	ExpiryLazy    = "lazy"
	ExpiryTask    = "task"
	ExpiryReclaim = "reclaim"
)

// DefaultBookingService implements BookingService and PaymentService.
type DefaultBookingService struct {
	Bookings     bookingRepo.BookingRepository
	Holds        slots.HoldManager
	Workers      directoryRepo.WorkerDirectory
	Customers    directoryRepo.CustomerDirectory
	Catalog      directoryRepo.ServiceCatalog
	Expiry       ExpiryScheduler
	Checkout     CheckoutProvider
	HoldDuration time.Duration
	Clock        func() time.Time
	Logger       *zap.Logger
}

const defaultHoldDuration = 10 * time.Minute

func (s *DefaultBookingService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

func (s *DefaultBookingService) holdDuration() time.Duration {
	if s.HoldDuration > 0 {
		return s.HoldDuration
	}
	return defaultHoldDuration
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}
