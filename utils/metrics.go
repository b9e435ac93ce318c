package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HoldsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farberge_holds_placed_total",
		Help: "Slot holds placed.",
	})

	HoldsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farberge_holds_rejected_total",
		Help: "Slot holds rejected, by reason code.",
	}, []string{"code"})

	HoldsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farberge_holds_released_total",
		Help: "Slot holds released explicitly or by reconciliation.",
	})

	BookingsExpired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farberge_bookings_expired_total",
		Help: "Pending bookings expired, by the path that expired them.",
	}, []string{"source"})

	PaymentsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farberge_payments_confirmed_total",
		Help: "Payments that moved a booking to booked.",
	})

	PaymentsNeedingRefund = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farberge_payments_refund_required_total",
		Help: "Payments received for bookings that could no longer be confirmed.",
	})

	SweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farberge_sweep_errors_total",
		Help: "Per-item failures during expiry sweeps.",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "farberge_sweep_duration_seconds",
		Help:    "Duration of expiry sweeps.",
		Buckets: prometheus.DefBuckets,
	})
)
