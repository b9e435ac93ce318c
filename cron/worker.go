package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"farberge/config"
	"farberge/models"
	bookingService "farberge/services/booking"
	"farberge/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// BookingExpirer is the slice of the booking service the expiry paths need.
type BookingExpirer interface {
	ExpireBooking(ctx context.Context, bookingID string, source string) (bool, error)
}

// QueueRedisOpt is the asynq connection for the expiry queue.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// ExpiryWorker consumes booking:expire tasks.
type ExpiryWorker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewExpiryWorker(expirer BookingExpirer, logger *zap.Logger) *ExpiryWorker {
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingExpire, HandleExpiryTask(expirer, logger))
	return &ExpiryWorker{srv: srv, mux: mux}
}

// Start runs the worker in the background, retrying startup with backoff.
func (w *ExpiryWorker) Start(logger *zap.Logger) {
	go func() {
		logger.Info("Starting expiry worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Start(w.mux)
			if err == nil {
				return
			}
			logger.Error("Expiry worker failed to start", zap.Int("attempt", attempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Expiry worker gave up; sweeper remains the expiry path")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
}

func (w *ExpiryWorker) Shutdown() {
	w.srv.Shutdown()
}

// HandleExpiryTask expires the booking named in the task. Already paid or
// already expired bookings are a no-op.
func HandleExpiryTask(expirer BookingExpirer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ExpiryPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid expiry task payload", zap.Error(err))
			return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
		}

		expired, err := expirer.ExpireBooking(ctx, p.BookingID, bookingService.ExpiryTask)
		if err != nil {
			logger.Error("Expiry task failed", zap.String("bookingId", p.BookingID), zap.Error(err))
			return err
		}
		logger.Debug("Expiry task done", zap.String("bookingId", p.BookingID), zap.Bool("expired", expired))
		return nil
	}
}
