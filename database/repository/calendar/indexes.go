// FILE: database/repository/calendar/indexes.go
package calendarRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the timeslots collection.
func (r *mongoCalendarRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// One document per worker and day; GetOrCreate relies on it.
		{
			Keys:    bson.D{{Key: "workerId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("worker_date_unique"),
		},
		// Sweeper lookup of stale holds.
		{
			Keys:    bson.D{{Key: "slots.heldUntil", Value: 1}},
			Options: options.Index().SetName("slots_held_until_idx").SetSparse(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create calendar indexes: %w", err)
	}
	return nil
}
