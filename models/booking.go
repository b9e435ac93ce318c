package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingBooked    BookingStatus = "booked"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending: {BookingBooked, BookingExpired},
	BookingBooked:  {BookingCompleted, BookingCancelled},
}

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingBooked, BookingCompleted, BookingCancelled, BookingExpired:
		return true
	}
	return false
}

// IsTerminal is true for completed, cancelled and expired.
func (s BookingStatus) IsTerminal() bool {
	_, ok := bookingTransitions[s]
	return s.Valid() && !ok
}

// CanTransitionTo reports whether the lifecycle allows s -> next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BookingService is one requested service with its chosen subcategories.
type BookingService struct {
	ServiceID      string   `bson:"serviceId" json:"serviceId"`
	SubcategoryIDs []string `bson:"subcategoryIds" json:"subcategoryIds"`
}

// Booking is one reservation attempt. Records are kept for history.
type Booking struct {
	ID               string           `bson:"id" json:"id"`
	CustomerID       string           `bson:"customerId" json:"customerId"`
	WorkerID         string           `bson:"workerId" json:"workerId"`
	Services         []BookingService `bson:"services" json:"services"`
	Date             string           `bson:"date" json:"date"`
	StartTime        string           `bson:"startTime" json:"startTime"`
	EndTime          string           `bson:"endTime" json:"endTime"`
	Status           BookingStatus    `bson:"status" json:"status"`
	IsPayment        bool             `bson:"isPayment" json:"isPayment"`
	TransactionID    string           `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	PaymentAmount    float64          `bson:"paymentAmount" json:"paymentAmount"`
	PaymentExpiresAt *time.Time       `bson:"paymentExpiresAt" json:"paymentExpiresAt"`
	CreatedAt        time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// PaymentOverdue is true for an unpaid pending booking past its deadline.
func (b *Booking) PaymentOverdue(now time.Time) bool {
	return b.Status == BookingPending && !b.IsPayment &&
		b.PaymentExpiresAt != nil && !b.PaymentExpiresAt.After(now)
}

// BookingQuery selects bookings for the worker and customer listings.
type BookingQuery struct {
	WorkerID   string
	CustomerID string
	DateFrom   string // inclusive, "2006-01-02"
	DateTo     string // inclusive
	DateBefore string // exclusive
	Status     BookingStatus
	Skip       int64
	Limit      int64
}

// BookingPage is one page of a booking listing.
type BookingPage struct {
	Items      []Booking `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}

// PaymentRecord is what a confirmed provider payment writes onto a booking.
type PaymentRecord struct {
	TransactionID string
	Amount        float64
}
