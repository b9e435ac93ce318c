package handlers

import (
	"net/http"

	"farberge/middleware"
	"farberge/models"
	"farberge/services/booking"
	"farberge/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler serves the booking endpoints.
type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(service booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: service}
}

func actorOrAbort(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Not authenticated", Code: "UNAUTHORIZED"})
	}
	return actor, ok
}

// BookSlot holds a slot for the authenticated customer.
func (h *BookingHandler) BookSlot(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req models.BookSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		getLogger(c).Debug("Invalid booking request", zap.Error(err))
		utils.RespondError(c, utils.NewValidationError("Invalid request payload").WithDetail("reason", err.Error()))
		return
	}

	resp, err := h.Service.RequestBooking(c.Request.Context(), actor.ID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Slot held, complete payment before it expires",
		"booking": resp,
	})
}

// GetBooking returns one booking the caller may see.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	b, err := h.Service.GetBooking(c.Request.Context(), actor, c.Param("bookingId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

func (h *BookingHandler) WorkerBookings(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var filter models.BookingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.RespondError(c, utils.NewValidationError("Invalid query parameters").WithDetail("reason", err.Error()))
		return
	}
	page, err := h.Service.ListWorkerBookings(c.Request.Context(), actor.ID, filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *BookingHandler) CustomerBookings(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var filter models.BookingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.RespondError(c, utils.NewValidationError("Invalid query parameters").WithDetail("reason", err.Error()))
		return
	}
	page, err := h.Service.ListCustomerBookings(c.Request.Context(), actor.ID, filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CompleteBooking lets the assigned worker mark a booked appointment done.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	b, err := h.Service.CompleteBooking(c.Request.Context(), c.Param("bookingId"), actor.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking completed", "booking": b})
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	b, err := h.Service.CancelBooking(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "booking": b})
}

func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	if err := h.Service.DeleteBooking(c.Request.Context(), c.Param("bookingId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted"})
}
