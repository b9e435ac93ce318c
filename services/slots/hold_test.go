package slots

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	calendarRepo "farberge/database/repository/calendar"
	memoryRepo "farberge/database/repository/memory"
	"farberge/models"
	"farberge/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWorker = "worker-1"
	testDate   = "2030-03-04"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type activeBookings bool

func (a activeBookings) ExistsActiveOnDate(context.Context, string, string) (bool, error) {
	return bool(a), nil
}

func newTestService() (*DefaultSlotService, *memoryRepo.CalendarStore, *testClock) {
	store := memoryRepo.NewCalendarStore()
	clock := newTestClock()
	svc := &DefaultSlotService{
		Repo:     store,
		Template: models.DefaultSlotTemplate,
		Clock:    clock.Now,
	}
	return svc, store, clock
}

func appErr(t *testing.T, err error) *utils.AppError {
	t.Helper()
	var ae *utils.AppError
	require.ErrorAs(t, err, &ae)
	return ae
}

func TestPlaceHoldCreatesDayAndBlocksNeighbours(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()

	res, err := svc.PlaceHold(ctx, testWorker, testDate, "10:00", "b1", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "10:00", res.Slot.StartTime)
	assert.True(t, res.HeldUntil.Equal(clock.Now().Add(10*time.Minute)))
	assert.Empty(t, res.Reclaimed)

	day := store.Peek(testWorker, testDate)
	require.NotNil(t, day)
	require.Len(t, day.Slots, 20)
	assert.Equal(t, 1, day.Version)
	assert.Equal(t, "b1", day.Slots[2].HeldBy)
	assert.True(t, day.Slots[1].IsBlocked)
	assert.True(t, day.Slots[3].IsBlocked)
	assert.False(t, day.Slots[4].IsBlocked)
}

func TestPlaceHoldValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name                         string
		worker, date, start, booking string
		holdFor                      time.Duration
	}{
		{"missing worker", "", testDate, "10:00", "b1", time.Minute},
		{"bad date", testWorker, "04/03/2030", "10:00", "b1", time.Minute},
		{"bad time", testWorker, testDate, "10h", "b1", time.Minute},
		{"missing booking", testWorker, testDate, "10:00", "", time.Minute},
		{"zero hold", testWorker, testDate, "10:00", "b1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceHold(ctx, tt.worker, tt.date, tt.start, tt.booking, tt.holdFor)
			assert.True(t, utils.IsKind(err, utils.KindValidation), "got %v", err)
		})
	}
}

func TestPlaceHoldOnHeldSlotReportsRetryAfter(t *testing.T) {
	svc, _, clock := newTestService()
	ctx := context.Background()

	_, err := svc.PlaceHold(ctx, testWorker, testDate, "10:00", "b1", 10*time.Minute)
	require.NoError(t, err)

	clock.Advance(2*time.Minute + 30*time.Second)
	_, err = svc.PlaceHold(ctx, testWorker, testDate, "10:00", "b2", 10*time.Minute)
	code, ok := models.SlotErrorCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, models.SlotErrHeld, code)

	ae := appErr(t, AsAppError(err, clock.Now()))
	assert.Equal(t, utils.KindConflict, ae.Kind)
	assert.Equal(t, "SLOT_HELD", ae.Code)
	assert.Equal(t, 8, ae.Details["retryAfterMinutes"])
	assert.Equal(t, "10:00", ae.Details["startTime"])
	assert.NotEmpty(t, ae.Details["heldUntil"])
}

func TestPlaceHoldReclaimsStaleHold(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()

	_, err := svc.PlaceHold(ctx, testWorker, testDate, "10:00", "b1", 10*time.Minute)
	require.NoError(t, err)
	clock.Advance(11 * time.Minute)

	res, err := svc.PlaceHold(ctx, testWorker, testDate, "10:00", "b2", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, res.Reclaimed)
	assert.Equal(t, "b2", store.Peek(testWorker, testDate).Slots[2].HeldBy)
}

func TestRejectedHoldStillPersistsReconciliation(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()

	_, err := svc.PlaceHold(ctx, testWorker, testDate, "10:00", "stale", 5*time.Minute)
	require.NoError(t, err)
	_, err = svc.PlaceHold(ctx, testWorker, testDate, "13:00", "live", 30*time.Minute)
	require.NoError(t, err)
	clock.Advance(6 * time.Minute)

	res, err := svc.PlaceHold(ctx, testWorker, testDate, "13:00", "b3", 10*time.Minute)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []string{"stale"}, res.Reclaimed)

	day := store.Peek(testWorker, testDate)
	assert.Empty(t, day.Slots[2].HeldBy)
	assert.False(t, day.Slots[1].IsBlocked)
}

func TestConcurrentHoldsOnSameSlot(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	const callers = 20
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceHold(ctx, testWorker, testDate, "11:00", fmt.Sprintf("b%d", i), 10*time.Minute)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		code, _ := models.SlotErrorCodeOf(err)
		assert.Equal(t, models.SlotErrHeld, code)
	}
	assert.Equal(t, 1, wins)
	assert.NotEmpty(t, store.Peek(testWorker, testDate).Slots[4].HeldBy)
}

func TestConcurrentHoldsOnAdjacentSlots(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, start := range []string{"11:00", "11:30"} {
		wg.Add(1)
		go func(i int, start string) {
			defer wg.Done()
			_, errs[i] = svc.PlaceHold(ctx, testWorker, testDate, start, fmt.Sprintf("b%d", i), 10*time.Minute)
		}(i, start)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			code, _ := models.SlotErrorCodeOf(err)
			assert.Equal(t, models.SlotErrBlocked, code)
		}
	}
	assert.Equal(t, 1, failed)
	require.NoError(t, store.Peek(testWorker, testDate).Validate(clock.Now()))
}

func TestPlaceHoldRetriesOnVersionConflict(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()

	_, err := svc.GetDay(ctx, testWorker, testDate)
	require.NoError(t, err)

	calls := 0
	store.SaveHook = func(*models.SlotCalendarDay) error {
		calls++
		if calls == 1 {
			// Another writer lands a hold on 15:00 first.
			other := store.Peek(testWorker, testDate)
			require.NoError(t, other.PlaceHold(other.FindSlot("15:00"), "other", clock.Now().Add(time.Hour), clock.Now()))
			other.Version++
			store.Put(other)
		}
		return nil
	}

	_, err = svc.PlaceHold(ctx, testWorker, testDate, "09:00", "b1", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	day := store.Peek(testWorker, testDate)
	assert.Equal(t, "b1", day.Slots[0].HeldBy)
	assert.Equal(t, "other", day.Slots[12].HeldBy)
}

func TestPlaceHoldGivesUpUnderContention(t *testing.T) {
	svc, store, clock := newTestService()
	store.SaveHook = func(*models.SlotCalendarDay) error { return calendarRepo.ErrVersionConflict }

	_, err := svc.PlaceHold(context.Background(), testWorker, testDate, "09:00", "b1", 10*time.Minute)
	require.ErrorIs(t, err, ErrContention)

	ae := appErr(t, AsAppError(err, clock.Now()))
	assert.Equal(t, "CALENDAR_BUSY", ae.Code)
	assert.Equal(t, utils.KindConflict, ae.Kind)
}

func TestPlaceHoldSurfacesStoreFailure(t *testing.T) {
	svc, store, clock := newTestService()
	boom := errors.New("disk on fire")
	store.SaveHook = func(*models.SlotCalendarDay) error { return boom }

	_, err := svc.PlaceHold(context.Background(), testWorker, testDate, "09:00", "b1", 10*time.Minute)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, utils.KindInternal, utils.KindOf(AsAppError(err, clock.Now())))
}

func TestReleaseHold(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	_, err := svc.PlaceHold(ctx, testWorker, testDate, "10:00", "b1", 10*time.Minute)
	require.NoError(t, err)

	require.NoError(t, svc.ReleaseHold(ctx, testWorker, testDate, "10:00", "intruder"))
	assert.Equal(t, "b1", store.Peek(testWorker, testDate).Slots[2].HeldBy)

	require.NoError(t, svc.ReleaseHold(ctx, testWorker, testDate, "10:00", "b1"))
	day := store.Peek(testWorker, testDate)
	assert.True(t, day.Slots[2].IsAvailable)
	assert.False(t, day.Slots[1].IsBlocked)
	version := day.Version

	require.NoError(t, svc.ReleaseHold(ctx, testWorker, testDate, "10:00", "b1"))
	assert.Equal(t, version, store.Peek(testWorker, testDate).Version, "no-op release does not write")
}

func TestReleaseHoldOnMissingDay(t *testing.T) {
	svc, store, _ := newTestService()
	require.NoError(t, svc.ReleaseHold(context.Background(), testWorker, testDate, "10:00", "b1"))
	assert.Nil(t, store.Peek(testWorker, testDate))
}

func TestConfirmAndReleaseBooked(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()

	_, err := svc.PlaceHold(ctx, testWorker, testDate, "10:00", "b1", 10*time.Minute)
	require.NoError(t, err)
	clock.Advance(4 * time.Minute)

	require.NoError(t, svc.ConfirmHold(ctx, testWorker, testDate, "10:00", "b1"))
	day := store.Peek(testWorker, testDate)
	assert.True(t, day.Slots[2].IsBooked)
	assert.Equal(t, "b1", day.Slots[2].BookedBy)
	assert.True(t, day.Slots[1].IsBlocked)
	assert.True(t, day.Slots[3].IsBlocked)

	version := day.Version
	require.NoError(t, svc.ConfirmHold(ctx, testWorker, testDate, "10:00", "b1"))
	assert.Equal(t, version, store.Peek(testWorker, testDate).Version)

	require.NoError(t, svc.ReleaseBooked(ctx, testWorker, testDate, "10:00", "other"))
	assert.True(t, store.Peek(testWorker, testDate).Slots[2].IsBooked)

	require.NoError(t, svc.ReleaseBooked(ctx, testWorker, testDate, "10:00", "b1"))
	day = store.Peek(testWorker, testDate)
	assert.True(t, day.Slots[2].IsAvailable)
	assert.False(t, day.Slots[1].IsBlocked)
}

func TestConfirmHoldAfterAnotherCustomerTookTheSlot(t *testing.T) {
	svc, _, clock := newTestService()
	ctx := context.Background()

	_, err := svc.PlaceHold(ctx, testWorker, testDate, "10:00", "b1", 10*time.Minute)
	require.NoError(t, err)
	clock.Advance(11 * time.Minute)
	_, err = svc.PlaceHold(ctx, testWorker, testDate, "10:00", "b2", 10*time.Minute)
	require.NoError(t, err)

	err = svc.ConfirmHold(ctx, testWorker, testDate, "10:00", "b1")
	code, _ := models.SlotErrorCodeOf(err)
	assert.Equal(t, models.SlotErrHeld, code)
}

func TestReconcileDay(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()

	ids, err := svc.ReconcileDay(ctx, testWorker, testDate)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = svc.PlaceHold(ctx, testWorker, testDate, "16:00", "b1", 10*time.Minute)
	require.NoError(t, err)
	clock.Advance(15 * time.Minute)

	ids, err = svc.ReconcileDay(ctx, testWorker, testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, ids)
	require.NoError(t, store.Peek(testWorker, testDate).Validate(clock.Now()))
	assert.Empty(t, store.Peek(testWorker, testDate).Slots[14].HeldBy)
}

func TestGetDay(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()

	day, err := svc.GetDay(ctx, testWorker, testDate)
	require.NoError(t, err)
	require.Len(t, day.Slots, 20)
	assert.False(t, day.IsOffDay)

	_, err = svc.PlaceHold(ctx, testWorker, testDate, "09:00", "b1", 10*time.Minute)
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)

	day, err = svc.GetDay(ctx, testWorker, testDate)
	require.NoError(t, err)
	assert.True(t, day.Slots[0].IsAvailable, "expired hold is cleared on read")
	assert.False(t, day.Slots[1].IsBlocked)
	assert.Empty(t, store.Peek(testWorker, testDate).Slots[0].HeldBy, "and persisted")

	_, err = svc.GetDay(ctx, testWorker, "2030-13-01")
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestSetOffDay(t *testing.T) {
	ctx := context.Background()

	t.Run("refused with active bookings", func(t *testing.T) {
		svc, store, _ := newTestService()
		svc.Bookings = activeBookings(true)
		_, err := svc.SetOffDay(ctx, testWorker, testDate)
		ae := appErr(t, err)
		assert.Equal(t, "DAY_HAS_BOOKINGS", ae.Code)
		assert.Nil(t, store.Peek(testWorker, testDate))
	})

	t.Run("refused with a live hold", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.PlaceHold(ctx, testWorker, testDate, "09:00", "b1", 10*time.Minute)
		require.NoError(t, err)
		_, err = svc.SetOffDay(ctx, testWorker, testDate)
		assert.Equal(t, "SLOT_HELD", appErr(t, err).Code)
	})

	t.Run("clears the day", func(t *testing.T) {
		svc, _, _ := newTestService()
		svc.Bookings = activeBookings(false)
		day, err := svc.SetOffDay(ctx, testWorker, testDate)
		require.NoError(t, err)
		assert.True(t, day.IsOffDay)
		assert.Empty(t, day.Slots)

		_, err = svc.SetOffDay(ctx, testWorker, testDate)
		require.NoError(t, err, "setting an off day twice is fine")

		_, err = svc.PlaceHold(ctx, testWorker, testDate, "09:00", "b1", 10*time.Minute)
		ae := appErr(t, AsAppError(err, time.Now()))
		assert.Equal(t, "OFF_DAY", ae.Code)
		assert.Equal(t, "Worker is off on this day", ae.Message)
	})
}

func TestSetUnavailableSlots(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService()

	_, err := svc.SetUnavailableSlots(ctx, testWorker, testDate, nil)
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = svc.SetUnavailableSlots(ctx, testWorker, testDate, []string{"09:15"})
	ae := appErr(t, err)
	assert.Equal(t, utils.KindValidation, ae.Kind)
	assert.Equal(t, "09:15", ae.Details["startTime"])

	require.NoError(t, svc.ConfirmHold(ctx, testWorker, testDate, "12:00", "b1"))
	_, err = svc.SetUnavailableSlots(ctx, testWorker, testDate, []string{"09:00", "12:00"})
	assert.Equal(t, "SLOT_BOOKED", appErr(t, err).Code)
	assert.True(t, store.Peek(testWorker, testDate).Slots[0].IsAvailable)

	day, err := svc.SetUnavailableSlots(ctx, testWorker, testDate, []string{"09:00", "17:00"})
	require.NoError(t, err)
	assert.False(t, day.Slots[0].IsAvailable)
	assert.False(t, day.Slots[16].IsAvailable)

	_, err = svc.PlaceHold(ctx, testWorker, testDate, "17:00", "b2", 10*time.Minute)
	code, _ := models.SlotErrorCodeOf(err)
	assert.Equal(t, models.SlotErrUnavailable, code)
}

func TestRetryAfterMinutes(t *testing.T) {
	now := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, RetryAfterMinutes(now.Add(-time.Second), now))
	assert.Equal(t, 1, RetryAfterMinutes(now.Add(time.Second), now))
	assert.Equal(t, 5, RetryAfterMinutes(now.Add(5*time.Minute), now))
	assert.Equal(t, 6, RetryAfterMinutes(now.Add(5*time.Minute+time.Millisecond), now))
}

type reclaimRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *reclaimRecorder) record(_ context.Context, ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, ids...)
}

func (r *reclaimRecorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.ids
	r.ids = nil
	return ids
}

func TestLazyTouchesHandOffReclaimedHolds(t *testing.T) {
	svc, _, clock := newTestService()
	rec := &reclaimRecorder{}
	svc.OnReclaim = rec.record
	ctx := context.Background()

	stale := func() {
		t.Helper()
		_, err := svc.PlaceHold(ctx, testWorker, testDate, "10:00", "stale", 10*time.Minute)
		require.NoError(t, err)
		clock.Advance(11 * time.Minute)
	}

	stale()
	_, err := svc.GetDay(ctx, testWorker, testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, rec.take())

	stale()
	require.NoError(t, svc.ReleaseHold(ctx, testWorker, testDate, "16:00", "other"))
	assert.Equal(t, []string{"stale"}, rec.take())

	stale()
	_, err = svc.PlaceHold(ctx, testWorker, testDate, "16:00", "paid", 10*time.Minute)
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmHold(ctx, testWorker, testDate, "16:00", "paid"))
	assert.Empty(t, rec.take(), "placing a hold returns reclaimed ids to the caller")

	stale()
	require.NoError(t, svc.ReleaseBooked(ctx, testWorker, testDate, "16:00", "paid"))
	assert.Equal(t, []string{"stale"}, rec.take())

	stale()
	_, err = svc.SetUnavailableSlots(ctx, testWorker, testDate, []string{"18:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, rec.take())

	stale()
	reclaimed, err := svc.ReconcileDay(ctx, testWorker, testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, reclaimed)
	assert.Empty(t, rec.take(), "reconcile returns ids instead")
}

func TestRejectedTouchStillHandsOffReclaimedHolds(t *testing.T) {
	svc, _, clock := newTestService()
	rec := &reclaimRecorder{}
	svc.OnReclaim = rec.record
	ctx := context.Background()

	_, err := svc.PlaceHold(ctx, testWorker, testDate, "10:00", "stale", 10*time.Minute)
	require.NoError(t, err)
	_, err = svc.PlaceHold(ctx, testWorker, testDate, "14:00", "live", 30*time.Minute)
	require.NoError(t, err)
	clock.Advance(11 * time.Minute)

	err = svc.ConfirmHold(ctx, testWorker, testDate, "14:00", "intruder")
	code, _ := models.SlotErrorCodeOf(err)
	assert.Equal(t, models.SlotErrHeld, code)
	assert.Equal(t, []string{"stale"}, rec.take())
}
