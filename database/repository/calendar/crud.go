// File: database/repository/calendar/crud.go
package calendarRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farberge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxUpsertAttempts = 3

// GetOrCreate loads the day, inserting it with the given default slots when
// it does not exist yet. Concurrent first reads converge on one document.
func (r *mongoCalendarRepo) GetOrCreate(ctx context.Context, workerID, date string, defaults []models.Slot) (*models.SlotCalendarDay, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if defaults == nil {
		defaults = []models.Slot{}
	}
	now := time.Now().UTC()
	filter := bson.M{"workerId": workerID, "date": date}
	update := bson.M{"$setOnInsert": bson.M{
		"workerId":  workerID,
		"date":      date,
		"isOffDay":  false,
		"slots":     defaults,
		"version":   0,
		"createdAt": now,
		"updatedAt": now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var lastErr error
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		var day models.SlotCalendarDay
		err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&day)
		if err == nil {
			return &day, nil
		}
		// Two upserts racing on the unique key: the loser retries and reads the winner.
		if mongo.IsDuplicateKeyError(err) {
			lastErr = err
			continue
		}
		return nil, fmt.Errorf("failed to load calendar day: %w", err)
	}
	return nil, fmt.Errorf("failed to create calendar day: %w", lastErr)
}

func (r *mongoCalendarRepo) Get(ctx context.Context, workerID, date string) (*models.SlotCalendarDay, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var day models.SlotCalendarDay
	err := r.coll.FindOne(ctx, bson.M{"workerId": workerID, "date": date}).Decode(&day)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch calendar day: %w", err)
	}
	return &day, nil
}

// Save writes the whole day if nobody saved it since it was loaded. On
// success day.Version is advanced to the stored version.
func (r *mongoCalendarRepo) Save(ctx context.Context, day *models.SlotCalendarDay) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slots := day.Slots
	if slots == nil {
		slots = []models.Slot{}
	}
	now := time.Now().UTC()
	filter := bson.M{"workerId": day.WorkerID, "date": day.Date, "version": day.Version}
	update := bson.M{
		"$set": bson.M{
			"isOffDay":  day.IsOffDay,
			"slots":     slots,
			"updatedAt": now,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save calendar day: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	day.Version++
	day.UpdatedAt = now
	return nil
}
