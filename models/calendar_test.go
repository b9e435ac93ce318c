package models

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC)

func newTestDay(t *testing.T) *SlotCalendarDay {
	t.Helper()
	slots, err := DefaultSlotTemplate.Generate()
	require.NoError(t, err)
	return NewSlotCalendarDay("worker-1", "2030-03-04", slots, t0)
}

func blockedTimes(d *SlotCalendarDay) []string {
	var out []string
	for _, s := range d.Slots {
		if s.IsBlocked {
			out = append(out, s.StartTime)
		}
	}
	return out
}

func TestGenerateDefaultDay(t *testing.T) {
	slots, err := DefaultSlotTemplate.Generate()
	require.NoError(t, err)
	require.Len(t, slots, 20)

	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "09:30", slots[0].EndTime)
	assert.Equal(t, "18:30", slots[19].StartTime)
	assert.Equal(t, "19:00", slots[19].EndTime)
	for _, s := range slots {
		assert.True(t, s.IsAvailable)
		assert.False(t, s.IsBooked)
		assert.False(t, s.IsBlocked)
	}
}

func TestGenerateRejectsBadTemplate(t *testing.T) {
	tests := []struct {
		name string
		tpl  SlotTemplate
	}{
		{"bad start", SlotTemplate{DayStart: "9am", DayEnd: "19:00", SlotMinutes: 30}},
		{"end before start", SlotTemplate{DayStart: "19:00", DayEnd: "09:00", SlotMinutes: 30}},
		{"zero width", SlotTemplate{DayStart: "09:00", DayEnd: "19:00", SlotMinutes: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tpl.Generate()
			assert.Error(t, err)
		})
	}
}

func TestGenerateDropsShortRemainder(t *testing.T) {
	slots, err := SlotTemplate{DayStart: "09:00", DayEnd: "10:45", SlotMinutes: 30}.Generate()
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "10:30", slots[2].EndTime)
}

func TestPlaceHoldBlocksNeighbours(t *testing.T) {
	day := newTestDay(t)

	require.NoError(t, day.PlaceHold(0, "b1", t0.Add(10*time.Minute), t0))
	assert.Equal(t, []string{"09:30"}, blockedTimes(day), "first slot has no left neighbour")

	require.NoError(t, day.PlaceHold(5, "b2", t0.Add(10*time.Minute), t0))
	assert.Equal(t, []string{"09:30", "11:00", "12:00"}, blockedTimes(day))

	held := day.Slots[0]
	assert.False(t, held.IsAvailable)
	assert.Equal(t, "b1", held.HeldBy)
	require.NoError(t, day.Validate(t0))
}

func TestPlaceHoldRejections(t *testing.T) {
	until := t0.Add(10 * time.Minute)

	t.Run("live hold reports deadline", func(t *testing.T) {
		day := newTestDay(t)
		require.NoError(t, day.PlaceHold(2, "b1", until, t0))
		err := day.PlaceHold(2, "b2", until, t0.Add(time.Minute))
		var se *SlotError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, SlotErrHeld, se.Code)
		require.NotNil(t, se.HeldUntil)
		assert.True(t, se.HeldUntil.Equal(until))
	})

	t.Run("neighbour of hold is blocked", func(t *testing.T) {
		day := newTestDay(t)
		require.NoError(t, day.PlaceHold(2, "b1", until, t0))
		code, _ := SlotErrorCodeOf(day.PlaceHold(3, "b2", until, t0))
		assert.Equal(t, SlotErrBlocked, code)
	})

	t.Run("booked", func(t *testing.T) {
		day := newTestDay(t)
		require.NoError(t, day.ConfirmHold(4, "b1", t0))
		code, _ := SlotErrorCodeOf(day.PlaceHold(4, "b2", until, t0))
		assert.Equal(t, SlotErrBooked, code)
	})

	t.Run("unavailable", func(t *testing.T) {
		day := newTestDay(t)
		_, err := day.MarkUnavailable([]string{"12:00"}, t0)
		require.NoError(t, err)
		code, _ := SlotErrorCodeOf(day.PlaceHold(day.FindSlot("12:00"), "b1", until, t0))
		assert.Equal(t, SlotErrUnavailable, code)
	})

	t.Run("unknown slot", func(t *testing.T) {
		day := newTestDay(t)
		code, _ := SlotErrorCodeOf(day.PlaceHold(day.FindSlot("09:15"), "b1", until, t0))
		assert.Equal(t, SlotErrNotFound, code)
	})

	t.Run("off day", func(t *testing.T) {
		day := newTestDay(t)
		require.NoError(t, day.MarkOffDay(t0))
		code, _ := SlotErrorCodeOf(day.PlaceHold(0, "b1", until, t0))
		assert.Equal(t, SlotErrOffDay, code)
	})
}

func TestReleaseHoldKeepsBlockFromOtherNeighbour(t *testing.T) {
	day := newTestDay(t)
	until := t0.Add(10 * time.Minute)
	require.NoError(t, day.PlaceHold(2, "b1", until, t0))
	require.NoError(t, day.PlaceHold(4, "b2", until, t0))
	require.True(t, day.Slots[3].IsBlocked)

	assert.True(t, day.ReleaseHold(2, "b1", t0))
	assert.True(t, day.Slots[3].IsBlocked, "10:30 still sits next to b2's hold")
	assert.False(t, day.Slots[1].IsBlocked)
	assert.True(t, day.Slots[2].IsAvailable)
	require.NoError(t, day.Validate(t0))
}

func TestReleaseHoldIsGuardedByBooking(t *testing.T) {
	day := newTestDay(t)
	require.NoError(t, day.PlaceHold(6, "b1", t0.Add(10*time.Minute), t0))

	assert.False(t, day.ReleaseHold(6, "someone-else", t0))
	assert.Equal(t, "b1", day.Slots[6].HeldBy)

	assert.True(t, day.ReleaseHold(6, "b1", t0))
	assert.False(t, day.ReleaseHold(6, "b1", t0), "second release is a no-op")
	assert.False(t, day.ReleaseHold(42, "b1", t0))
}

func TestReconcileReclaimsStaleHolds(t *testing.T) {
	day := newTestDay(t)
	require.NoError(t, day.PlaceHold(0, "stale", t0.Add(5*time.Minute), t0))
	require.NoError(t, day.PlaceHold(10, "live", t0.Add(30*time.Minute), t0))

	later := t0.Add(10 * time.Minute)
	reclaimed, changed := day.Reconcile(later)
	assert.True(t, changed)
	assert.Equal(t, []string{"stale"}, reclaimed)

	assert.True(t, day.Slots[0].IsAvailable)
	assert.Empty(t, day.Slots[0].HeldBy)
	assert.Nil(t, day.Slots[0].HeldUntil)
	assert.False(t, day.Slots[1].IsBlocked)
	assert.Equal(t, []string{"13:30", "14:30"}, blockedTimes(day))

	_, changed = day.Reconcile(later)
	assert.False(t, changed, "reconcile is idempotent")
	require.NoError(t, day.Validate(later))
}

func TestExpiredHoldNoLongerBlocksBeforeReconcile(t *testing.T) {
	day := newTestDay(t)
	require.NoError(t, day.PlaceHold(2, "b1", t0.Add(10*time.Minute), t0))

	later := t0.Add(11 * time.Minute)
	assert.False(t, day.Slots[2].HoldLive(later))
	assert.True(t, day.Slots[2].HoldStale(later))
	_, _ = day.Reconcile(later)
	require.NoError(t, day.PlaceHold(3, "b2", later.Add(10*time.Minute), later))
}

func TestConfirmHold(t *testing.T) {
	t.Run("own hold even after expiry", func(t *testing.T) {
		day := newTestDay(t)
		require.NoError(t, day.PlaceHold(2, "b1", t0.Add(10*time.Minute), t0))
		require.NoError(t, day.ConfirmHold(2, "b1", t0.Add(20*time.Minute)))
		s := day.Slots[2]
		assert.True(t, s.IsBooked)
		assert.False(t, s.IsAvailable)
		assert.Equal(t, "b1", s.BookedBy)
		assert.Empty(t, s.HeldBy)
		assert.Equal(t, []string{"09:30", "10:30"}, blockedTimes(day))
	})

	t.Run("free slot", func(t *testing.T) {
		day := newTestDay(t)
		require.NoError(t, day.ConfirmHold(7, "b1", t0))
		assert.True(t, day.Slots[7].IsBooked)
	})

	t.Run("idempotent for the same booking", func(t *testing.T) {
		day := newTestDay(t)
		require.NoError(t, day.ConfirmHold(7, "b1", t0))
		require.NoError(t, day.ConfirmHold(7, "b1", t0))
	})

	t.Run("someone else's live hold", func(t *testing.T) {
		day := newTestDay(t)
		require.NoError(t, day.PlaceHold(7, "b2", t0.Add(10*time.Minute), t0))
		code, _ := SlotErrorCodeOf(day.ConfirmHold(7, "b1", t0))
		assert.Equal(t, SlotErrHeld, code)
	})

	t.Run("booked by another", func(t *testing.T) {
		day := newTestDay(t)
		require.NoError(t, day.ConfirmHold(7, "b2", t0))
		code, _ := SlotErrorCodeOf(day.ConfirmHold(7, "b1", t0))
		assert.Equal(t, SlotErrBooked, code)
	})
}

func TestReleaseBooking(t *testing.T) {
	day := newTestDay(t)
	require.NoError(t, day.ConfirmHold(3, "b1", t0))

	assert.False(t, day.ReleaseBooking(3, "b2", t0))
	assert.True(t, day.ReleaseBooking(3, "b1", t0))
	assert.True(t, day.Slots[3].IsAvailable)
	assert.Empty(t, blockedTimes(day))
}

func TestMarkOffDay(t *testing.T) {
	day := newTestDay(t)
	require.NoError(t, day.PlaceHold(3, "b1", t0.Add(10*time.Minute), t0))
	code, _ := SlotErrorCodeOf(day.MarkOffDay(t0))
	assert.Equal(t, SlotErrHeld, code)

	_, _ = day.Reconcile(t0.Add(time.Hour))
	require.NoError(t, day.MarkOffDay(t0.Add(time.Hour)))
	assert.True(t, day.IsOffDay)
	assert.Empty(t, day.Slots)
	require.NoError(t, day.Validate(t0.Add(time.Hour)))
}

func TestMarkUnavailableIsAllOrNothing(t *testing.T) {
	day := newTestDay(t)
	require.NoError(t, day.ConfirmHold(4, "b1", t0))

	_, err := day.MarkUnavailable([]string{"09:00", "11:00"}, t0)
	code, _ := SlotErrorCodeOf(err)
	assert.Equal(t, SlotErrBooked, code)
	assert.True(t, day.Slots[0].IsAvailable, "nothing applied on rejection")

	_, err = day.MarkUnavailable([]string{"09:00", "09:10"}, t0)
	code, _ = SlotErrorCodeOf(err)
	assert.Equal(t, SlotErrNotFound, code)

	changed, err := day.MarkUnavailable([]string{"09:00", "16:00"}, t0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, day.Slots[0].IsAvailable)

	changed, err = day.MarkUnavailable([]string{"09:00"}, t0)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCloneDoesNotAlias(t *testing.T) {
	day := newTestDay(t)
	require.NoError(t, day.PlaceHold(0, "b1", t0.Add(10*time.Minute), t0))

	cp := day.Clone()
	*cp.Slots[0].HeldUntil = t0
	cp.Slots[1].IsBlocked = false

	assert.True(t, day.Slots[0].HeldUntil.Equal(t0.Add(10*time.Minute)))
	assert.True(t, day.Slots[1].IsBlocked)
}

// Random operation sequences must always leave a day that satisfies the
// buffer and exclusivity rules once reconciled.
func TestRandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	day := newTestDay(t)
	now := t0
	ids := []string{"a", "b", "c", "d", "e", "f"}

	for step := 0; step < 2000; step++ {
		idx := rng.Intn(len(day.Slots) + 1) // occasionally out of range
		id := ids[rng.Intn(len(ids))]

		switch rng.Intn(6) {
		case 0, 1:
			_ = day.PlaceHold(idx, id, now.Add(time.Duration(1+rng.Intn(15))*time.Minute), now)
		case 2:
			day.ReleaseHold(idx, id, now)
		case 3:
			_ = day.ConfirmHold(idx, id, now)
		case 4:
			day.ReleaseBooking(idx, id, now)
		case 5:
			now = now.Add(time.Duration(rng.Intn(4)) * time.Minute)
		}

		day.Reconcile(now)
		require.NoError(t, day.Validate(now), "step %d", step)
		for _, s := range day.Slots {
			require.False(t, s.IsBooked && s.HeldBy != "", "slot %s booked and held", s.StartTime)
		}
	}
}
