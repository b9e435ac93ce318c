package booking

import (
	"context"
	"encoding/json"
	"fmt"

	"farberge/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// StripeWebhook verifies and dispatches Stripe events to the payment service.
type StripeWebhook struct {
	Secret   string
	Payments PaymentService
	Dedupe   utils.EventDeduper
	Logger   *zap.Logger
}

func (w *StripeWebhook) logger() *zap.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return zap.NewNop()
}

// Handle verifies the signature header against the raw payload and applies
// the event. Nothing is mutated for an event that fails verification.
func (w *StripeWebhook) Handle(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, w.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		w.logger().Warn("Rejected webhook with invalid signature", zap.Error(err))
		return utils.NewValidationError("invalid webhook signature")
	}
	return w.HandleEvent(ctx, event)
}

// HandleEvent applies an already verified event once per event id.
func (w *StripeWebhook) HandleEvent(ctx context.Context, event stripe.Event) error {
	logger := w.logger().With(zap.String("eventId", event.ID), zap.String("type", string(event.Type)))

	if w.Dedupe != nil && event.ID != "" {
		seen, err := w.Dedupe.Seen(ctx, event.ID)
		if err != nil {
			logger.Warn("Event dedupe lookup failed, processing anyway", zap.Error(err))
		} else if seen {
			logger.Debug("Duplicate webhook event ignored")
			return nil
		}
	}

	if err := w.dispatch(ctx, event, logger); err != nil {
		return err
	}

	if w.Dedupe != nil && event.ID != "" {
		if err := w.Dedupe.Mark(ctx, event.ID); err != nil {
			logger.Warn("Failed to record processed event", zap.Error(err))
		}
	}
	return nil
}

func (w *StripeWebhook) dispatch(ctx context.Context, event stripe.Event, logger *zap.Logger) error {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
	default:
		logger.Debug("Unhandled webhook event type")
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		logger.Warn("Malformed checkout session payload", zap.Error(err))
		return utils.NewValidationError("malformed checkout session payload")
	}
	bookingID := sess.Metadata[metaBookingID]
	if bookingID == "" {
		bookingID = sess.ClientReferenceID
	}
	if bookingID == "" {
		logger.Warn("Checkout session without booking reference dropped", zap.String("sessionId", sess.ID))
		return nil
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		w.Payments.OnPaymentFailed(ctx, bookingID, "async payment failed")
		return nil
	case stripe.EventTypeCheckoutSessionCompleted:
		// Delayed payment methods complete unpaid and follow up with async_payment_succeeded.
		if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			logger.Info("Checkout completed without payment yet", zap.String("bookingId", bookingID),
				zap.String("paymentStatus", string(sess.PaymentStatus)))
			return nil
		}
	}

	if err := w.Payments.OnPaymentSucceeded(ctx, bookingID, transactionID(&sess), fromMinorUnits(sess.AmountTotal)); err != nil {
		return utils.NewInternalError(fmt.Sprintf("failed to apply payment for booking %s", bookingID), err)
	}
	return nil
}

// transactionID prefers the payment intent id and falls back to the session id.
func transactionID(sess *stripe.CheckoutSession) string {
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		return sess.PaymentIntent.ID
	}
	return sess.ID
}
