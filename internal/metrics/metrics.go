package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine metrics
var (
	SpinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slots_spins_total",
			Help: "Spins processed, by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	SpinsDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slots_spins_denied_total",
			Help: "Spins denied, by reason.",
		},
		[]string{"reason"},
	)

	JackpotPayouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slots_jackpot_payouts_total",
			Help: "Jackpot pool payouts.",
		},
	)

	JackpotPaidPoints = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slots_jackpot_paid_points_total",
			Help: "Points paid out of the jackpot pool.",
		},
	)

	DuelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slots_duels_total",
			Help: "Duels reaching a terminal state, by state.",
		},
		[]string{"state"},
	)

	DisplayRefreshFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slots_display_refresh_failures_total",
			Help: "Best-effort display refreshes that failed.",
		},
	)
)

// HTTP metrics for the admin server
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slots_http_requests_total",
			Help: "HTTP requests to the admin server.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slots_http_request_duration_seconds",
			Help:    "HTTP request latency on the admin server.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slots_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		},
	)
)

// Outcome label values
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"

	ReasonNoTokens     = "no_tokens"
	ReasonQuota        = "quota_exhausted"
	ReasonInsufficient = "insufficient_points"
)
