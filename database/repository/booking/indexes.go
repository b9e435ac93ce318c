// FILE: database/repository/booking/indexes.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the bookings collection.
func (r *mongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Expiry sweep: pending bookings by payment deadline.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "paymentExpiresAt", Value: 1}},
			Options: options.Index().SetName("status_payment_expires_idx"),
		},
		{
			Keys:    bson.D{{Key: "workerId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("worker_date_idx"),
		},
		{
			Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("customer_date_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
