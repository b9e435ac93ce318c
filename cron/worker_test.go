package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"farberge/models"
	bookingService "farberge/services/booking"
	"farberge/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingExpirer struct {
	ids     []string
	sources []string
	err     error
}

func (r *recordingExpirer) ExpireBooking(_ context.Context, id, source string) (bool, error) {
	r.ids = append(r.ids, id)
	r.sources = append(r.sources, source)
	return r.err == nil, r.err
}

func TestHandleExpiryTask(t *testing.T) {
	expirer := &recordingExpirer{}
	handler := HandleExpiryTask(expirer, zap.NewNop())

	payload, err := json.Marshal(models.ExpiryPayload{BookingID: "b1"})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), asynq.NewTask(tasks.TypeBookingExpire, payload)))
	assert.Equal(t, []string{"b1"}, expirer.ids)
	assert.Equal(t, []string{bookingService.ExpiryTask}, expirer.sources)
}

func TestHandleExpiryTaskBadPayloadSkipsRetry(t *testing.T) {
	expirer := &recordingExpirer{}
	err := HandleExpiryTask(expirer, zap.NewNop())(context.Background(), asynq.NewTask(tasks.TypeBookingExpire, []byte("{")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	assert.Empty(t, expirer.ids)
}

func TestHandleExpiryTaskReturnsErrorForRetry(t *testing.T) {
	expirer := &recordingExpirer{err: errors.New("mongo timeout")}
	payload, _ := json.Marshal(models.ExpiryPayload{BookingID: "b1"})

	err := HandleExpiryTask(expirer, zap.NewNop())(context.Background(), asynq.NewTask(tasks.TypeBookingExpire, payload))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}
