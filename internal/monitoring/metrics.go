package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	purchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Purchase attempts by outcome",
		},
		[]string{"outcome"},
	)

	seatConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_conflicts_total",
			Help: "Purchase or reservation attempts lost to a seat race",
		},
	)

	reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_reservations_total",
			Help: "Seat hold operations by type",
		},
		[]string{"operation"},
	)

	ticketScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_scans_total",
			Help: "Ticket scan attempts by outcome",
		},
		[]string{"outcome"},
	)

	expiredHoldsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expired_holds_swept_total",
			Help: "Expired seat holds reset by the background sweeper",
		},
	)
)

// TrackHTTPRequest records one completed HTTP request.
func TrackHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackPurchase records a purchase attempt outcome (success, validation,
// conflict, error).
func TrackPurchase(outcome string) {
	purchases.WithLabelValues(outcome).Inc()
}

// TrackSeatConflict records a lost seat race.
func TrackSeatConflict() {
	seatConflicts.Inc()
}

// TrackReservation records a hold operation (reserve, unreserve, release).
func TrackReservation(operation string) {
	reservations.WithLabelValues(operation).Inc()
}

// TrackScan records a ticket scan attempt outcome.
func TrackScan(outcome string) {
	ticketScans.WithLabelValues(outcome).Inc()
}

// TrackExpiredHolds records holds reset by the sweeper.
func TrackExpiredHolds(count int) {
	expiredHoldsSwept.Add(float64(count))
}
