package booking

import (
	"context"
	"errors"
	"fmt"
	"math"

	bookingRepo "farberge/database/repository/booking"
	"farberge/models"
	"farberge/utils"

	"go.uber.org/zap"
)

// CreateCheckout opens a hosted checkout for a pending booking the customer owns.
func (s *DefaultBookingService) CreateCheckout(ctx context.Context, customerID, bookingID string) (*models.CheckoutSession, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, bookingLookupError(err)
	}
	if b.CustomerID != customerID {
		return nil, utils.NewForbiddenError("You are not allowed to pay for this booking")
	}
	if b.Status != models.BookingPending {
		return nil, utils.NewConflictError("BOOKING_NOT_PENDING", "Booking is not awaiting payment").
			WithDetail("status", string(b.Status))
	}
	if b.PaymentOverdue(s.now()) {
		if _, err := s.ExpireBooking(ctx, b.ID, ExpiryLazy); err != nil {
			s.logger().Warn("Lazy expiry failed", zap.String("bookingId", b.ID), zap.Error(err))
		}
		return nil, utils.NewConflictError("HOLD_EXPIRED", "The payment window for this booking has closed")
	}
	if s.Checkout == nil {
		return nil, utils.NewExternalError("payments are not configured", nil)
	}

	req := models.CheckoutRequest{
		BookingID:   b.ID,
		CustomerID:  b.CustomerID,
		WorkerID:    b.WorkerID,
		Amount:      b.PaymentAmount,
		Description: fmt.Sprintf("Appointment on %s at %s", b.Date, b.StartTime),
	}
	if customer, err := s.Customers.GetCustomer(ctx, customerID); err == nil {
		req.CustomerEmail = customer.Email
	}

	session, err := s.Checkout.CreateSession(ctx, req)
	if err != nil {
		s.logger().Error("Checkout session creation failed", zap.String("bookingId", b.ID), zap.Error(err))
		return nil, utils.NewExternalError("payment provider unavailable", err)
	}
	s.logger().Info("Checkout session created", zap.String("bookingId", b.ID), zap.String("sessionId", session.SessionID))
	return session, nil
}

// OnPaymentSucceeded applies a confirmed payment. Payment that arrives before
// the booking is expired wins, even past the deadline. Payment for a booking
// that can no longer be confirmed is recorded and flagged for refund, and
// redeliveries of an applied payment are no-ops. A non-nil error means the
// event should be redelivered.
func (s *DefaultBookingService) OnPaymentSucceeded(ctx context.Context, bookingID, transactionID string, amountPaid float64) error {
	logger := s.logger().With(zap.String("bookingId", bookingID), zap.String("transactionId", transactionID))
	record := models.PaymentRecord{TransactionID: transactionID, Amount: amountPaid}

	for attempt := 0; attempt < 2; attempt++ {
		b, err := s.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrNotFound) {
				logger.Warn("Payment for unknown booking dropped")
				return nil
			}
			return err
		}

		switch b.Status {
		case models.BookingPending:
			if math.Abs(b.PaymentAmount-amountPaid) > 0.005 {
				logger.Warn("Paid amount differs from quoted amount",
					zap.Float64("quoted", b.PaymentAmount), zap.Float64("paid", amountPaid))
			}
			ok, err := s.Bookings.ConfirmPayment(ctx, bookingID, record)
			if err != nil {
				return err
			}
			if !ok {
				// Status moved under us; re-evaluate.
				continue
			}
			utils.PaymentsConfirmed.Inc()
			if err := s.Holds.ConfirmHold(ctx, b.WorkerID, b.Date, b.StartTime, b.ID); err != nil {
				utils.PaymentsNeedingRefund.Inc()
				logger.Error("Booking paid but slot could not be confirmed",
					zap.String("workerId", b.WorkerID), zap.String("date", b.Date),
					zap.String("startTime", b.StartTime), zap.Bool("needsRefund", true), zap.Error(err))
				return nil
			}
			logger.Info("Payment confirmed", zap.Float64("amount", amountPaid))
			return nil

		case models.BookingBooked, models.BookingCompleted:
			if b.TransactionID == transactionID {
				logger.Debug("Payment already applied")
				return nil
			}
			utils.PaymentsNeedingRefund.Inc()
			logger.Error("Second payment for an already paid booking",
				zap.String("existingTransactionId", b.TransactionID), zap.Bool("needsRefund", true))
			return nil

		default:
			if b.IsPayment && b.TransactionID == transactionID {
				return nil
			}
			if err := s.Bookings.AttachPayment(ctx, bookingID, record); err != nil {
				return err
			}
			utils.PaymentsNeedingRefund.Inc()
			logger.Error("Payment received for a booking that can no longer be confirmed",
				zap.String("status", string(b.Status)), zap.Float64("amount", amountPaid), zap.Bool("needsRefund", true))
			return nil
		}
	}
	return fmt.Errorf("booking %s kept changing while applying payment", bookingID)
}

// OnPaymentFailed only logs; the hold expires on its own.
func (s *DefaultBookingService) OnPaymentFailed(ctx context.Context, bookingID, reason string) {
	s.logger().Info("Payment failed", zap.String("bookingId", bookingID), zap.String("reason", reason))
}
