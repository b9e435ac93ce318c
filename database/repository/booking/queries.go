// File: database/repository/booking/queries.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"farberge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindExpiredPending returns unpaid pending bookings whose deadline passed,
// oldest deadline first.
func (r *mongoBookingRepo) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":           models.BookingPending,
		"isPayment":        false,
		"paymentExpiresAt": bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "paymentExpiresAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch expired bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

func buildListFilter(q models.BookingQuery) bson.M {
	filter := bson.M{}
	if q.WorkerID != "" {
		filter["workerId"] = q.WorkerID
	}
	if q.CustomerID != "" {
		filter["customerId"] = q.CustomerID
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	date := bson.M{}
	if q.DateFrom != "" {
		date["$gte"] = q.DateFrom
	}
	if q.DateTo != "" {
		date["$lte"] = q.DateTo
	}
	if q.DateBefore != "" {
		date["$lt"] = q.DateBefore
	}
	if len(date) > 0 {
		filter["date"] = date
	}
	return filter
}

// List returns one page of bookings ordered by date and start time, plus the
// total number of matches.
func (r *mongoBookingRepo) List(ctx context.Context, q models.BookingQuery) ([]models.Booking, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := buildListFilter(q)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}}).
		SetSkip(q.Skip)
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, total, nil
}

// ExistsActiveOnDate reports whether the worker has a pending or booked
// booking on the date.
func (r *mongoBookingRepo) ExistsActiveOnDate(ctx context.Context, workerID, date string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"workerId": workerID,
		"date":     date,
		"status":   bson.M{"$in": []models.BookingStatus{models.BookingPending, models.BookingBooked}},
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check bookings on date: %w", err)
	}
	return n > 0, nil
}
