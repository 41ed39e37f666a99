package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the reservation and routing flows.
type BookingMetrics struct {
	reserveTotal *prometheus.CounterVec
	commitTotal  *prometheus.CounterVec
	matchTotal   *prometheus.CounterVec
	expiredTotal prometheus.Counter
	matchLatency prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		reserveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telehealth",
			Subsystem: "booking",
			Name:      "reserve_total",
			Help:      "Total hold reservation attempts by outcome",
		}, []string{"outcome"}),
		commitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telehealth",
			Subsystem: "booking",
			Name:      "commit_total",
			Help:      "Total hold commit attempts by outcome",
		}, []string{"outcome"}),
		matchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telehealth",
			Subsystem: "routing",
			Name:      "match_total",
			Help:      "Total instant-match requests by outcome",
		}, []string{"outcome"}),
		expiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telehealth",
			Subsystem: "booking",
			Name:      "holds_expired_total",
			Help:      "Total holds reclaimed by the expiry sweeper",
		}),
		matchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "telehealth",
			Subsystem: "routing",
			Name:      "match_latency_seconds",
			Help:      "Latency of instant-match selection including reserve retries",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reserveTotal, m.commitTotal, m.matchTotal, m.expiredTotal, m.matchLatency)
	return m
}

func (m *BookingMetrics) ObserveReserve(outcome string) {
	if m == nil {
		return
	}
	m.reserveTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCommit(outcome string) {
	if m == nil {
		return
	}
	m.commitTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveMatch(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.matchTotal.WithLabelValues(outcome).Inc()
	m.matchLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveExpired(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.expiredTotal.Add(float64(count))
}
