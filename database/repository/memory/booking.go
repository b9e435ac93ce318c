package memoryRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	bookingRepo "farberge/database/repository/booking"
	"farberge/models"
)

// BookingStore implements bookingRepo.BookingRepository.
type BookingStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking

	// CreateErr, when set, fails every Create.
	CreateErr error
	// ExpireHook, when set, runs before MarkExpired and may fail it.
	ExpireHook func(id string) error
}

func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]*models.Booking)}
}

func cloneBooking(b *models.Booking) *models.Booking {
	cp := *b
	cp.Services = append([]models.BookingService(nil), b.Services...)
	if b.PaymentExpiresAt != nil {
		t := *b.PaymentExpiresAt
		cp.PaymentExpiresAt = &t
	}
	return &cp
}

func (s *BookingStore) Create(_ context.Context, booking *models.Booking) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	s.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (s *BookingStore) GetByID(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (s *BookingStore) UpdateStatus(_ context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if b.Status == st {
			b.Status = to
			b.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

func (s *BookingStore) MarkExpired(_ context.Context, id string, now time.Time) (bool, error) {
	if s.ExpireHook != nil {
		if err := s.ExpireHook(id); err != nil {
			return false, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || !b.PaymentOverdue(now) {
		return false, nil
	}
	b.Status = models.BookingExpired
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *BookingStore) ConfirmPayment(_ context.Context, id string, payment models.PaymentRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || b.Status != models.BookingPending {
		return false, nil
	}
	b.Status = models.BookingBooked
	b.IsPayment = true
	b.TransactionID = payment.TransactionID
	b.PaymentAmount = payment.Amount
	b.PaymentExpiresAt = nil
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *BookingStore) AttachPayment(_ context.Context, id string, payment models.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.IsPayment = true
	b.TransactionID = payment.TransactionID
	b.PaymentAmount = payment.Amount
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *BookingStore) FindExpiredPending(_ context.Context, now time.Time, limit int) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Booking
	for _, b := range s.bookings {
		if b.PaymentOverdue(now) {
			out = append(out, *cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentExpiresAt.Before(*out[j].PaymentExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matches(b *models.Booking, q models.BookingQuery) bool {
	switch {
	case q.WorkerID != "" && b.WorkerID != q.WorkerID:
		return false
	case q.CustomerID != "" && b.CustomerID != q.CustomerID:
		return false
	case q.Status != "" && b.Status != q.Status:
		return false
	case q.DateFrom != "" && b.Date < q.DateFrom:
		return false
	case q.DateTo != "" && b.Date > q.DateTo:
		return false
	case q.DateBefore != "" && b.Date >= q.DateBefore:
		return false
	}
	return true
}

func (s *BookingStore) List(_ context.Context, q models.BookingQuery) ([]models.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := []models.Booking{}
	for _, b := range s.bookings {
		if matches(b, q) {
			all = append(all, *cloneBooking(b))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Date != all[j].Date {
			return all[i].Date < all[j].Date
		}
		return all[i].StartTime < all[j].StartTime
	})

	total := int64(len(all))
	start := q.Skip
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return all[start:end], total, nil
}

func (s *BookingStore) ExistsActiveOnDate(_ context.Context, workerID, date string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bookings {
		if b.WorkerID == workerID && b.Date == date &&
			(b.Status == models.BookingPending || b.Status == models.BookingBooked) {
			return true, nil
		}
	}
	return false, nil
}

func (s *BookingStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return bookingRepo.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *BookingStore) EnsureIndexes() error { return nil }
