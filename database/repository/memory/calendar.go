// Package memoryRepo holds in-memory stores with the same conditional-write
// semantics as the Mongo repositories.
package memoryRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	calendarRepo "farberge/database/repository/calendar"
	"farberge/models"
)

type calendarKey struct{ workerID, date string }

// CalendarStore implements calendarRepo.CalendarRepository.
type CalendarStore struct {
	mu   sync.Mutex
	days map[calendarKey]*models.SlotCalendarDay

	// SaveHook, when set, runs before every Save and may fail it.
	SaveHook func(day *models.SlotCalendarDay) error
}

func NewCalendarStore() *CalendarStore {
	return &CalendarStore{days: make(map[calendarKey]*models.SlotCalendarDay)}
}

func (s *CalendarStore) GetOrCreate(_ context.Context, workerID, date string, defaults []models.Slot) (*models.SlotCalendarDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := calendarKey{workerID, date}
	day, ok := s.days[key]
	if !ok {
		day = models.NewSlotCalendarDay(workerID, date, defaults, time.Now().UTC())
		s.days[key] = day
	}
	return day.Clone(), nil
}

func (s *CalendarStore) Get(_ context.Context, workerID, date string) (*models.SlotCalendarDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.days[calendarKey{workerID, date}]
	if !ok {
		return nil, calendarRepo.ErrNotFound
	}
	return day.Clone(), nil
}

func (s *CalendarStore) Save(_ context.Context, day *models.SlotCalendarDay) error {
	if s.SaveHook != nil {
		if err := s.SaveHook(day); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := calendarKey{day.WorkerID, day.Date}
	stored, ok := s.days[key]
	if !ok || stored.Version != day.Version {
		return calendarRepo.ErrVersionConflict
	}
	day.Version++
	day.UpdatedAt = time.Now().UTC()
	s.days[key] = day.Clone()
	return nil
}

func (s *CalendarStore) ListWithStaleHolds(_ context.Context, before time.Time, limit int) ([]models.SlotCalendarDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.SlotCalendarDay
	for _, day := range s.days {
		for _, slot := range day.Slots {
			if slot.HoldStale(before) {
				out = append(out, *day.Clone())
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *CalendarStore) EnsureIndexes() error { return nil }

// Put stores day as-is, replacing any existing document. Test setup only.
func (s *CalendarStore) Put(day *models.SlotCalendarDay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days[calendarKey{day.WorkerID, day.Date}] = day.Clone()
}

// Peek returns a copy of the stored day or nil.
func (s *CalendarStore) Peek(workerID, date string) *models.SlotCalendarDay {
	s.mu.Lock()
	defer s.mu.Unlock()
	day, ok := s.days[calendarKey{workerID, date}]
	if !ok {
		return nil
	}
	return day.Clone()
}
