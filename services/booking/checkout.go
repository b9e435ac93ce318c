package booking

import (
	"context"
	"math"

	"farberge/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// StripeCheckout opens Stripe hosted checkout sessions. stripe.Key must be
// set before use.
type StripeCheckout struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Metadata keys carried on the session and read back by the webhook.
const (
	metaBookingID  = "bookingId"
	metaCustomerID = "customerId"
	metaWorkerID   = "workerId"
)

func (c *StripeCheckout) CreateSession(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.SuccessURL),
		CancelURL:         stripe.String(c.CancelURL),
		ClientReferenceID: stripe.String(req.BookingID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(c.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(toMinorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata(metaBookingID, req.BookingID)
	params.AddMetadata(metaCustomerID, req.CustomerID)
	params.AddMetadata(metaWorkerID, req.WorkerID)

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &models.CheckoutSession{URL: sess.URL, SessionID: sess.ID}, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
