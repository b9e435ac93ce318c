// File: farberge/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking endpoints
	BookSlot         gin.HandlerFunc
	GetBooking       gin.HandlerFunc
	WorkerBookings   gin.HandlerFunc
	CustomerBookings gin.HandlerFunc
	CompleteBooking  gin.HandlerFunc
	CancelBooking    gin.HandlerFunc
	DeleteBooking    gin.HandlerFunc

	// Payment endpoints
	InitializePayment gin.HandlerFunc
	StripeWebhook     gin.HandlerFunc

	// Timeslot endpoints
	AssignOffDay       gin.HandlerFunc
	UpdateAvailability gin.HandlerFunc
	WorkerAvailability gin.HandlerFunc
}

// NewHandlerBundle wires the handler structs into the bundle.
func NewHandlerBundle(b *BookingHandler, p *PaymentHandler, t *TimeslotHandler) *HandlerBundle {
	return &HandlerBundle{
		BookSlot:         b.BookSlot,
		GetBooking:       b.GetBooking,
		WorkerBookings:   b.WorkerBookings,
		CustomerBookings: b.CustomerBookings,
		CompleteBooking:  b.CompleteBooking,
		CancelBooking:    b.CancelBooking,
		DeleteBooking:    b.DeleteBooking,

		InitializePayment: p.InitializePayment,
		StripeWebhook:     p.StripeWebhook,

		AssignOffDay:       t.AssignOffDay,
		UpdateAvailability: t.UpdateAvailability,
		WorkerAvailability: t.WorkerAvailability,
	}
}
