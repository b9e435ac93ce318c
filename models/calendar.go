package models

import (
	"errors"
	"fmt"
	"time"
)

// SlotCalendarDay is the single source of truth for one worker's day. Every
// slot mutation goes through its methods and is persisted as one document.
type SlotCalendarDay struct {
	WorkerID  string    `bson:"workerId" json:"workerId"`
	Date      string    `bson:"date" json:"date"` // "2006-01-02"
	IsOffDay  bool      `bson:"isOffDay" json:"isOffDay"`
	Slots     []Slot    `bson:"slots" json:"slots"`
	Version   int       `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DateLayout is the storage format of calendar dates.
const DateLayout = "2006-01-02"

// NewSlotCalendarDay builds a fresh, persisted-version-zero day.
func NewSlotCalendarDay(workerID, date string, slots []Slot, now time.Time) *SlotCalendarDay {
	cp := make([]Slot, len(slots))
	copy(cp, slots)
	return &SlotCalendarDay{
		WorkerID:  workerID,
		Date:      date,
		Slots:     cp,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy, so callers can mutate without aliasing slot pointers.
func (d *SlotCalendarDay) Clone() *SlotCalendarDay {
	cp := *d
	cp.Slots = make([]Slot, len(d.Slots))
	for i, s := range d.Slots {
		if s.HeldUntil != nil {
			t := *s.HeldUntil
			s.HeldUntil = &t
		}
		cp.Slots[i] = s
	}
	return &cp
}

// FindSlot returns the index of the slot starting at startTime, or -1.
func (d *SlotCalendarDay) FindSlot(startTime string) int {
	for i := range d.Slots {
		if d.Slots[i].StartTime == startTime {
			return i
		}
	}
	return -1
}

// Reconcile releases every stale hold and recomputes the buffer flags.
// It returns the booking ids whose holds were reclaimed and whether anything
// changed. Lazy reads, hold placement and the sweeper all go through here.
func (d *SlotCalendarDay) Reconcile(now time.Time) (reclaimed []string, changed bool) {
	for i := range d.Slots {
		s := &d.Slots[i]
		if !s.HoldStale(now) {
			continue
		}
		if s.HeldBy != "" {
			reclaimed = append(reclaimed, s.HeldBy)
		}
		s.clearHold()
		s.IsAvailable = true
		changed = true
	}
	if d.recomputeBlocks(now) {
		changed = true
	}
	return reclaimed, changed
}

// recomputeBlocks applies the buffer rule from scratch: a slot is blocked iff
// a positional neighbour is booked or carries a live hold.
func (d *SlotCalendarDay) recomputeBlocks(now time.Time) bool {
	changed := false
	for i := range d.Slots {
		want := (i > 0 && d.Slots[i-1].claimed(now)) ||
			(i+1 < len(d.Slots) && d.Slots[i+1].claimed(now))
		if d.Slots[i].IsBlocked != want {
			d.Slots[i].IsBlocked = want
			changed = true
		}
	}
	return changed
}

// PlaceHold claims slot idx for bookingID until the given deadline. The day
// must already be reconciled against now.
func (d *SlotCalendarDay) PlaceHold(idx int, bookingID string, until, now time.Time) error {
	if d.IsOffDay {
		return &SlotError{Code: SlotErrOffDay}
	}
	if idx < 0 || idx >= len(d.Slots) {
		return &SlotError{Code: SlotErrNotFound}
	}
	s := &d.Slots[idx]
	switch {
	case s.HoldLive(now):
		held := *s.HeldUntil
		return &SlotError{Code: SlotErrHeld, StartTime: s.StartTime, HeldUntil: &held}
	case s.IsBooked:
		return &SlotError{Code: SlotErrBooked, StartTime: s.StartTime}
	case s.IsBlocked:
		return &SlotError{Code: SlotErrBlocked, StartTime: s.StartTime}
	case !s.IsAvailable:
		return &SlotError{Code: SlotErrUnavailable, StartTime: s.StartTime}
	}

	deadline := until
	s.IsAvailable = false
	s.HeldBy = bookingID
	s.HeldUntil = &deadline
	d.recomputeBlocks(now)
	return nil
}

// ReleaseHold drops the hold on slot idx if it belongs to bookingID. An empty
// bookingID releases whatever hold is present. Releasing a slot that carries
// no matching hold is a no-op.
func (d *SlotCalendarDay) ReleaseHold(idx int, bookingID string, now time.Time) bool {
	if idx < 0 || idx >= len(d.Slots) {
		return false
	}
	s := &d.Slots[idx]
	if s.IsBooked || (s.HeldBy == "" && s.HeldUntil == nil) {
		return false
	}
	if bookingID != "" && s.HeldBy != bookingID {
		return false
	}
	s.clearHold()
	s.IsAvailable = true
	d.recomputeBlocks(now)
	return true
}

// ConfirmHold turns slot idx into a permanent booking for bookingID. The slot
// must either carry bookingID's hold (expired or not) or be entirely free.
func (d *SlotCalendarDay) ConfirmHold(idx int, bookingID string, now time.Time) error {
	if d.IsOffDay {
		return &SlotError{Code: SlotErrOffDay}
	}
	if idx < 0 || idx >= len(d.Slots) {
		return &SlotError{Code: SlotErrNotFound}
	}
	s := &d.Slots[idx]
	if s.IsBooked {
		if s.BookedBy == bookingID {
			return nil
		}
		return &SlotError{Code: SlotErrBooked, StartTime: s.StartTime}
	}
	if s.HeldBy != bookingID {
		if err := d.checkFree(idx, now); err != nil {
			return err
		}
	}

	s.clearHold()
	s.IsBooked = true
	s.IsAvailable = false
	s.BookedBy = bookingID
	d.recomputeBlocks(now)
	return nil
}

func (d *SlotCalendarDay) checkFree(idx int, now time.Time) error {
	s := d.Slots[idx]
	switch {
	case s.HoldLive(now):
		held := *s.HeldUntil
		return &SlotError{Code: SlotErrHeld, StartTime: s.StartTime, HeldUntil: &held}
	case s.IsBlocked:
		return &SlotError{Code: SlotErrBlocked, StartTime: s.StartTime}
	case !s.IsAvailable:
		return &SlotError{Code: SlotErrUnavailable, StartTime: s.StartTime}
	}
	return nil
}

// ReleaseBooking frees a permanently booked slot owned by bookingID.
func (d *SlotCalendarDay) ReleaseBooking(idx int, bookingID string, now time.Time) bool {
	if idx < 0 || idx >= len(d.Slots) {
		return false
	}
	s := &d.Slots[idx]
	if !s.IsBooked || s.BookedBy != bookingID {
		return false
	}
	s.IsBooked = false
	s.BookedBy = ""
	s.IsAvailable = true
	d.recomputeBlocks(now)
	return true
}

// MarkOffDay clears the day. It refuses while any slot is booked or held.
func (d *SlotCalendarDay) MarkOffDay(now time.Time) error {
	for _, s := range d.Slots {
		if s.IsBooked {
			return &SlotError{Code: SlotErrBooked, StartTime: s.StartTime}
		}
		if s.HoldLive(now) {
			held := *s.HeldUntil
			return &SlotError{Code: SlotErrHeld, StartTime: s.StartTime, HeldUntil: &held}
		}
	}
	d.IsOffDay = true
	d.Slots = []Slot{}
	return nil
}

// MarkUnavailable takes the given start times out of circulation. Unknown
// times and slots that are held or booked reject the whole request.
func (d *SlotCalendarDay) MarkUnavailable(startTimes []string, now time.Time) (bool, error) {
	if d.IsOffDay {
		return false, &SlotError{Code: SlotErrOffDay}
	}
	idxs := make([]int, 0, len(startTimes))
	for _, st := range startTimes {
		idx := d.FindSlot(st)
		if idx == -1 {
			return false, &SlotError{Code: SlotErrNotFound, StartTime: st}
		}
		s := d.Slots[idx]
		if s.IsBooked {
			return false, &SlotError{Code: SlotErrBooked, StartTime: st}
		}
		if s.HoldLive(now) {
			held := *s.HeldUntil
			return false, &SlotError{Code: SlotErrHeld, StartTime: st, HeldUntil: &held}
		}
		idxs = append(idxs, idx)
	}

	changed := false
	for _, idx := range idxs {
		if d.Slots[idx].IsAvailable {
			d.Slots[idx].IsAvailable = false
			changed = true
		}
	}
	return changed, nil
}

// Validate checks the structural invariants of the day.
func (d *SlotCalendarDay) Validate(now time.Time) error {
	if d.IsOffDay && len(d.Slots) > 0 {
		return errors.New("off day must not carry slots")
	}
	for i, s := range d.Slots {
		if s.IsBooked && s.IsAvailable {
			return fmt.Errorf("slot %s is both booked and available", s.StartTime)
		}
		if s.HoldLive(now) && s.IsAvailable {
			return fmt.Errorf("slot %s is held and available", s.StartTime)
		}
		want := (i > 0 && d.Slots[i-1].claimed(now)) ||
			(i+1 < len(d.Slots) && d.Slots[i+1].claimed(now))
		if s.IsBlocked != want {
			return fmt.Errorf("slot %s has block flag %t, want %t", s.StartTime, s.IsBlocked, want)
		}
	}
	return nil
}
