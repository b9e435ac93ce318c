package models

import "time"

// ServiceSelection is one service picked by the customer on the booking form.
type ServiceSelection struct {
	ServiceID         string   `json:"serviceId" binding:"required"`
	ServiceCategories []string `json:"serviceCategories"`
}

// BookSlotRequest is the customer's booking request body.
type BookSlotRequest struct {
	WorkerID  string             `json:"workerId" binding:"required"`
	Services  []ServiceSelection `json:"services" binding:"required,min=1,dive"`
	Date      string             `json:"date" binding:"required"`
	StartTime string             `json:"startTime" binding:"required"`
}

// BookingResponse is returned once a slot is held for the customer.
type BookingResponse struct {
	BookingID     string        `json:"bookingId"`
	Status        BookingStatus `json:"status"`
	WorkerID      string        `json:"workerId"`
	Date          string        `json:"date"`
	StartTime     string        `json:"startTime"`
	EndTime       string        `json:"endTime"`
	PaymentAmount float64       `json:"paymentAmount"`
	ExpiresAt     *time.Time    `json:"expiresAt,omitempty"`
}

// BookingFilter carries the listing query parameters.
type BookingFilter struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Month  int    `form:"month"`
	Year   int    `form:"year"`
	Status string `form:"status"`
	Filter string `form:"filter"` // "upcoming" or "completed" (date already passed)
}

// OffDayRequest marks a whole date as off.
type OffDayRequest struct {
	Date string `json:"date" binding:"required"`
}

// UnavailabilityRequest takes individual slots out of circulation.
type UnavailabilityRequest struct {
	Date             string   `json:"date" binding:"required"`
	UnavailableSlots []string `json:"unavailableSlots" binding:"required"`
}

// Actor is the authenticated caller.
type Actor struct {
	ID   string
	Role string
}

const (
	RoleCustomer = "customer"
	RoleWorker   = "worker"
	RoleAdmin    = "admin"
)
