package models

// CheckoutRequest is what the payment provider needs to open a checkout.
type CheckoutRequest struct {
	BookingID     string
	CustomerID    string
	WorkerID      string
	CustomerEmail string
	Amount        float64
	Description   string
}

// CheckoutSession is handed back to the client to complete payment.
type CheckoutSession struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// InitializePaymentRequest is the customer's checkout request body.
type InitializePaymentRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
}

// ExpiryPayload is the body of the per-booking expiry task.
type ExpiryPayload struct {
	BookingID string `json:"bookingId"`
}
