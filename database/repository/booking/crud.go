// File: database/repository/booking/crud.go
package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farberge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (r *mongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return &booking, nil
}

// UpdateStatus moves the booking to `to` only if its current status is one of `from`.
func (r *mongoBookingRepo) UpdateStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// MarkExpired flips an unpaid pending booking whose deadline has passed.
func (r *mongoBookingRepo) MarkExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":               id,
		"status":           models.BookingPending,
		"isPayment":        false,
		"paymentExpiresAt": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{"status": models.BookingExpired, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to expire booking: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// ConfirmPayment records the payment and moves a pending booking to booked.
func (r *mongoBookingRepo) ConfirmPayment(ctx context.Context, id string, payment models.PaymentRecord) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": models.BookingPending}
	update := bson.M{"$set": bson.M{
		"status":           models.BookingBooked,
		"isPayment":        true,
		"transactionId":    payment.TransactionID,
		"paymentAmount":    payment.Amount,
		"paymentExpiresAt": nil,
		"updatedAt":        time.Now().UTC(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to confirm booking payment: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// AttachPayment records payment fields without touching the status.
func (r *mongoBookingRepo) AttachPayment(ctx context.Context, id string, payment models.PaymentRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"isPayment":     true,
		"transactionId": payment.TransactionID,
		"paymentAmount": payment.Amount,
		"updatedAt":     time.Now().UTC(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to attach payment: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
