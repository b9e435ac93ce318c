package cron

import (
	"context"
	"fmt"
	"time"

	"farberge/models"
	bookingService "farberge/services/booking"
	"farberge/utils"

	"go.uber.org/zap"
)

// ExpiredBookingFinder lists unpaid pending bookings past their deadline.
type ExpiredBookingFinder interface {
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Booking, error)
}

// StaleHoldFinder lists calendar days that still carry stale holds.
type StaleHoldFinder interface {
	ListWithStaleHolds(ctx context.Context, before time.Time, limit int) ([]models.SlotCalendarDay, error)
}

// DayReconciler clears stale holds on one day.
type DayReconciler interface {
	ReconcileDay(ctx context.Context, workerID, date string) ([]string, error)
}

// SweepReport summarises one sweep.
type SweepReport struct {
	Scanned        int
	Expired        int
	DaysReconciled int
	ReclaimedHolds int
	Errors         []error
}

// Sweeper expires overdue pending bookings and reclaims orphaned holds.
// SweepOnce is safe to run concurrently with itself and with the request
// path; Run drives it on a ticker until the context is cancelled.
type Sweeper struct {
	Bookings  ExpiredBookingFinder
	Expirer   BookingExpirer
	Calendar  StaleHoldFinder
	Holds     DayReconciler
	Lease     utils.Lease
	Interval  time.Duration
	BatchSize int
	Clock     func() time.Time
	Logger    *zap.Logger
}

const defaultSweepBatch = 200

func (s *Sweeper) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

func (s *Sweeper) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func (s *Sweeper) batch() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return defaultSweepBatch
}

func (s *Sweeper) fail(report *SweepReport, err error) {
	report.Errors = append(report.Errors, err)
	utils.SweepErrors.Inc()
	s.logger().Error("Sweep item failed", zap.Error(err))
}

// SweepOnce runs a single pass. Per-item failures are collected in the
// report and never stop the pass.
func (s *Sweeper) SweepOnce(ctx context.Context) SweepReport {
	started := time.Now()
	defer func() { utils.SweepDuration.Observe(time.Since(started).Seconds()) }()

	var report SweepReport
	now := s.now()

	overdue, err := s.Bookings.FindExpiredPending(ctx, now, s.batch())
	if err != nil {
		s.fail(&report, fmt.Errorf("find expired bookings: %w", err))
	}
	for _, b := range overdue {
		if ctx.Err() != nil {
			return report
		}
		report.Scanned++
		expired, err := s.Expirer.ExpireBooking(ctx, b.ID, bookingService.ExpirySweep)
		if expired {
			report.Expired++
		}
		if err != nil {
			s.fail(&report, fmt.Errorf("expire booking %s: %w", b.ID, err))
		}
	}

	if s.Calendar != nil && s.Holds != nil {
		s.reclaimOrphans(ctx, now, &report)
	}

	if report.Expired > 0 || report.ReclaimedHolds > 0 || len(report.Errors) > 0 {
		s.logger().Info("Sweep finished",
			zap.Int("scanned", report.Scanned), zap.Int("expired", report.Expired),
			zap.Int("reclaimedHolds", report.ReclaimedHolds), zap.Int("errors", len(report.Errors)))
	}
	return report
}

// reclaimOrphans clears stale holds left behind when a booking was never
// written or its release failed.
func (s *Sweeper) reclaimOrphans(ctx context.Context, now time.Time, report *SweepReport) {
	days, err := s.Calendar.ListWithStaleHolds(ctx, now, s.batch())
	if err != nil {
		s.fail(report, fmt.Errorf("find stale holds: %w", err))
		return
	}
	for _, day := range days {
		if ctx.Err() != nil {
			return
		}
		reclaimed, err := s.Holds.ReconcileDay(ctx, day.WorkerID, day.Date)
		if err != nil {
			s.fail(report, fmt.Errorf("reconcile %s/%s: %w", day.WorkerID, day.Date, err))
			continue
		}
		report.DaysReconciled++
		report.ReclaimedHolds += len(reclaimed)
		for _, id := range reclaimed {
			expired, err := s.Expirer.ExpireBooking(ctx, id, bookingService.ExpirySweep)
			if expired {
				report.Expired++
			}
			if err != nil {
				s.fail(report, fmt.Errorf("expire booking %s: %w", id, err))
			}
		}
	}
}

// Run sweeps every Interval until ctx is cancelled. With a lease configured
// only the replica holding it sweeps a given tick; if the lease store is
// unreachable the sweep runs anyway.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger().Info("Expiry sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger().Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
			if !s.acquire(ctx, interval) {
				continue
			}
			s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) acquire(ctx context.Context, ttl time.Duration) bool {
	if s.Lease == nil {
		return true
	}
	ok, err := s.Lease.Acquire(ctx, ttl)
	if err != nil {
		s.logger().Warn("Sweep lease unavailable, sweeping anyway", zap.Error(err))
		return true
	}
	return ok
}
