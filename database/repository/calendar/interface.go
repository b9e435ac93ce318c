// File: database/repository/calendar/interface.go
package calendarRepo

import (
	"context"
	"errors"
	"time"

	"farberge/database"
	"farberge/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when no calendar day exists for the key.
	ErrNotFound = errors.New("calendar day not found")
	// ErrVersionConflict means the day changed since it was loaded.
	ErrVersionConflict = errors.New("calendar day was modified concurrently")
)

// CalendarRepository persists one document per (worker, date). Save is a
// compare-and-swap on the document version.
type CalendarRepository interface {
	GetOrCreate(ctx context.Context, workerID, date string, defaults []models.Slot) (*models.SlotCalendarDay, error)
	Get(ctx context.Context, workerID, date string) (*models.SlotCalendarDay, error)
	Save(ctx context.Context, day *models.SlotCalendarDay) error
	ListWithStaleHolds(ctx context.Context, before time.Time, limit int) ([]models.SlotCalendarDay, error)
	EnsureIndexes() error
}

type mongoCalendarRepo struct {
	coll *mongo.Collection
}

// NewMongoCalendarRepo constructs a CalendarRepository on the "timeslots" collection.
func NewMongoCalendarRepo() CalendarRepository {
	return &mongoCalendarRepo{
		coll: database.Database().Collection("timeslots"),
	}
}
