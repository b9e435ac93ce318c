// File: database/repository/calendar/queries.go
package calendarRepo

import (
	"context"
	"fmt"
	"time"

	"farberge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListWithStaleHolds returns days carrying at least one unbooked slot whose
// hold deadline is at or before the given instant.
func (r *mongoCalendarRepo) ListWithStaleHolds(ctx context.Context, before time.Time, limit int) ([]models.SlotCalendarDay, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"slots": bson.M{"$elemMatch": bson.M{
			"isBooked":  false,
			"heldUntil": bson.M{"$lte": before},
		}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch days with stale holds: %w", err)
	}
	defer cursor.Close(ctx)

	var days []models.SlotCalendarDay
	if err := cursor.All(ctx, &days); err != nil {
		return nil, fmt.Errorf("error decoding calendar days: %w", err)
	}
	return days, nil
}
