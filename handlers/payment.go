package handlers

import (
	"errors"
	"io"
	"net/http"

	"farberge/models"
	"farberge/services/booking"
	"farberge/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Webhook bodies above this size are refused with 413.
const maxWebhookBody = 1 << 20

// PaymentHandler serves checkout creation and the provider webhook.
type PaymentHandler struct {
	Payments booking.PaymentService
	Webhook  *booking.StripeWebhook
}

func NewPaymentHandler(payments booking.PaymentService, webhook *booking.StripeWebhook) *PaymentHandler {
	return &PaymentHandler{Payments: payments, Webhook: webhook}
}

// InitializePayment opens a checkout session for the customer's pending booking.
func (h *PaymentHandler) InitializePayment(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req models.InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError("bookingId is required"))
		return
	}

	session, err := h.Payments.CreateCheckout(c.Request.Context(), actor.ID, req.BookingID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// StripeWebhook verifies and applies a Stripe event. Failures other than a
// bad signature answer 500 so Stripe redelivers.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			getLogger(c).Error("Webhook body over limit", zap.Int64("limit", tooLarge.Limit))
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, utils.ErrorResponse{
				Message: "Payload too large",
				Code:    "PAYLOAD_TOO_LARGE",
			})
			return
		}
		utils.RespondError(c, utils.NewValidationError("unreadable body"))
		return
	}

	if err := h.Webhook.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		getLogger(c).Warn("Webhook not applied", zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
