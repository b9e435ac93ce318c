package handlers

import (
	"net/http"

	"farberge/models"
	"farberge/services/slots"
	"farberge/utils"

	"github.com/gin-gonic/gin"
)

// TimeslotHandler serves worker calendar management and availability reads.
type TimeslotHandler struct {
	Calendar slots.CalendarManager
}

func NewTimeslotHandler(calendar slots.CalendarManager) *TimeslotHandler {
	return &TimeslotHandler{Calendar: calendar}
}

func (h *TimeslotHandler) AssignOffDay(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req models.OffDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError("date is required"))
		return
	}

	day, err := h.Calendar.SetOffDay(c.Request.Context(), actor.ID, req.Date)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Off day assigned", "timeslot": day})
}

func (h *TimeslotHandler) UpdateAvailability(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req models.UnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError("date and unavailableSlots are required"))
		return
	}

	day, err := h.Calendar.SetUnavailableSlots(c.Request.Context(), actor.ID, req.Date, req.UnavailableSlots)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability updated", "timeslot": day})
}

// WorkerAvailability returns the reconciled day for ?date=.
func (h *TimeslotHandler) WorkerAvailability(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.RespondError(c, utils.NewValidationError("date query parameter is required"))
		return
	}
	day, err := h.Calendar.GetDay(c.Request.Context(), c.Param("workerId"), date)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeslot": day})
}
