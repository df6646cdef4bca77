package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects pipeline counters. One instance is created at startup
// and shared by all stages; each instance carries its own registry so
// construction is safe to repeat.
type Metrics struct {
	Registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec

	notificationsTotal *prometheus.CounterVec

	resolverLookups *prometheus.CounterVec
	cacheHitsTotal  *prometheus.CounterVec

	reservationsTotal  *prometheus.CounterVec
	reservationRetries prometheus.Counter

	stockAlertsActive *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		requestsTotal: auto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emergency_requests_total",
				Help: "Emergency requests by final pipeline status",
			},
			[]string{"status", "blood_group"},
		),
		pipelineDuration: auto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emergency_pipeline_duration_seconds",
				Help:    "End to end pipeline duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		notificationsTotal: auto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_total",
				Help: "Notification attempts by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		resolverLookups: auto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "location_lookups_total",
				Help: "Location resolutions by source and accuracy",
			},
			[]string{"source", "accuracy"},
		),
		cacheHitsTotal: auto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resolver_cache_total",
				Help: "Resolver cache lookups by result",
			},
			[]string{"kind", "result"},
		),
		reservationsTotal: auto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservations_total",
				Help: "Reservation outcomes",
			},
			[]string{"outcome"},
		),
		reservationRetries: auto.NewCounter(
			prometheus.CounterOpts{
				Name: "reservation_race_losses_total",
				Help: "Candidates skipped after losing a stock race",
			},
		),
		stockAlertsActive: auto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stock_alerts_active",
				Help: "Active stock alerts by level",
			},
			[]string{"level"},
		),
	}
}

func (m *Metrics) ObserveRequest(status, bloodGroup string, took time.Duration) {
	m.requestsTotal.WithLabelValues(status, bloodGroup).Inc()
	m.pipelineDuration.WithLabelValues(status).Observe(took.Seconds())
}

func (m *Metrics) NotificationAttempt(channel, outcome string) {
	m.notificationsTotal.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) LocationResolved(source, accuracy string) {
	m.resolverLookups.WithLabelValues(source, accuracy).Inc()
}

func (m *Metrics) CacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheHitsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ReservationOutcome(outcome string) {
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ReservationRaceLost() {
	m.reservationRetries.Inc()
}

func (m *Metrics) SetActiveAlerts(level string, n int) {
	m.stockAlertsActive.WithLabelValues(level).Set(float64(n))
}
