package tasks

import (
	"context"
	"encoding/json"
	"time"

	"farberge/models"

	"github.com/hibiken/asynq"
)

const TypeBookingExpire = "booking:expire"

// expiryGrace delays the task slightly past the deadline so the booking is
// already overdue when it runs.
const expiryGrace = 2 * time.Second

func NewBookingExpiryTask(payload models.ExpiryPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingExpire, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt.Add(expiryGrace)),
		asynq.TaskID("expire:" + payload.BookingID),
		asynq.MaxRetry(5),
	}
	return task, opts, nil
}

// AsynqExpiryScheduler enqueues expiry tasks on the asynq queue.
type AsynqExpiryScheduler struct {
	Client *asynq.Client
}

func (s *AsynqExpiryScheduler) ScheduleExpiry(ctx context.Context, bookingID string, at time.Time) error {
	task, opts, err := NewBookingExpiryTask(models.ExpiryPayload{BookingID: bookingID}, at)
	if err != nil {
		return err
	}
	_, err = s.Client.EnqueueContext(ctx, task, opts...)
	return err
}
