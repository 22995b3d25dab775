package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/serroba/shortlink/internal/shortener"
)

// Allocation exports allocator telemetry to Prometheus.
type Allocation struct {
	claims   *prometheus.CounterVec
	attempts prometheus.Histogram
	duration prometheus.Histogram
}

// NewAllocation registers the allocation collectors on reg.
func NewAllocation(reg prometheus.Registerer) *Allocation {
	a := &Allocation{
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shortener",
			Name:      "claim_attempts_total",
			Help:      "Code claim attempts by outcome.",
		}, []string{"outcome"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shortener",
			Name:      "allocation_attempts",
			Help:      "Claim attempts needed per allocation.",
			Buckets:   []float64{1, 2, 3, 4, 8, 16},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shortener",
			Name:      "allocation_duration_seconds",
			Help:      "Time spent allocating a code.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(a.claims, a.attempts, a.duration)

	return a
}

func (a *Allocation) ObserveClaim(outcome shortener.ClaimOutcome) {
	a.claims.WithLabelValues(string(outcome)).Inc()
}

func (a *Allocation) ObserveAllocation(attempts int, elapsed time.Duration) {
	a.attempts.Observe(float64(attempts))
	a.duration.Observe(elapsed.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Compile-time check.
var _ shortener.Observer = (*Allocation)(nil)
