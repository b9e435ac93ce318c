// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"errors"
	"time"

	"farberge/database"
	"farberge/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no booking matches the id.
var ErrNotFound = errors.New("booking not found")

// BookingRepository stores bookings. Status changes are conditional updates:
// the bool result reports whether the guard matched.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (bool, error)
	MarkExpired(ctx context.Context, id string, now time.Time) (bool, error)
	ConfirmPayment(ctx context.Context, id string, payment models.PaymentRecord) (bool, error)
	AttachPayment(ctx context.Context, id string, payment models.PaymentRecord) error
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Booking, error)
	List(ctx context.Context, query models.BookingQuery) ([]models.Booking, int64, error)
	ExistsActiveOnDate(ctx context.Context, workerID, date string) (bool, error)
	Delete(ctx context.Context, id string) error
	EnsureIndexes() error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	return &mongoBookingRepo{
		coll: database.Database().Collection("bookings"),
	}
}
