// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts HTTP requests handled by the API.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// AcceptsTotal counts accept attempts by outcome (won/lost/stale).
	// Lost and stale are expected under load, not failures.
	AcceptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_accepts_total",
			Help: "Total number of accept attempts, by race outcome.",
		},
		[]string{"outcome"},
	)

	// OffersIssuedTotal counts offers fanned out, by search tier.
	OffersIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_offers_issued_total",
			Help: "Total number of offers issued at fan-out.",
		},
		[]string{"tier"},
	)

	// EscalationsTotal counts tier escalations by trigger.
	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_escalations_total",
			Help: "Total number of search-tier escalations.",
		},
		[]string{"reason"},
	)

	// GigsFinishedTotal counts gigs reaching a terminal status.
	GigsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_gigs_finished_total",
			Help: "Total number of gigs that reached a terminal status.",
		},
		[]string{"status"},
	)

	// ActiveGigs tracks gigs currently in a non-terminal status.
	ActiveGigs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_active_gigs",
			Help: "Number of gigs currently in a non-terminal status.",
		},
	)

	// ReservationLapsesTotal counts reservations that expired unconfirmed.
	ReservationLapsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_reservation_lapses_total",
			Help: "Total number of reservations that lapsed unconfirmed.",
		},
	)

	// IsLeader marks whether this node currently leads the dispatcher group.
	IsLeader = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "is_leader",
			Help: "Is this node currently the leader. 1 if leader, 0 otherwise.",
		},
		[]string{"node_id"},
	)
)
