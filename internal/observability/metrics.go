package observability

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
)

// Metrics holds the Prometheus collectors shared by the rating service and
// the batch driver.
type Metrics struct {
	RatingsComputed *prometheus.CounterVec // labels: regime={still_air,wind}
	RatingFailures  *prometheus.CounterVec // labels: category={construction,range,enum,domain,other}
	LineRating      *prometheus.GaugeVec   // labels: line

	BatchCells    prometheus.Counter
	BatchDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers all metrics with reg. The batch driver uses a
// private registry that it dumps to a textfile once the run is over.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.RatingsComputed,
		m.RatingFailures,
		m.LineRating,
		m.BatchCells,
		m.BatchDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RatingsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linerating",
			Name:      "ratings_computed_total",
			Help:      "Ratings successfully computed, by convection regime.",
		}, []string{"regime"}),
		RatingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linerating",
			Name:      "rating_failures_total",
			Help:      "Rating calculations that failed, by error category.",
		}, []string{"category"}),
		LineRating: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "linerating",
			Name:      "line_rating_amperes",
			Help:      "Current rating of each monitored line; NaN when unavailable.",
		}, []string{"line"}),
		BatchCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linerating",
			Name:      "batch_cells_total",
			Help:      "Conductor/condition pairs evaluated by the batch driver.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "linerating",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a complete ratings table run.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

// ObserveRating counts one calculation outcome.
func (m *Metrics) ObserveRating(c ampacity.AmbientCondition, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.RatingFailures.WithLabelValues(ampacity.Category(err)).Inc()
		return
	}
	m.RatingsComputed.WithLabelValues(Regime(c)).Inc()
}

// SetLineRating publishes the latest rating of line id, NaN when the
// rating is unavailable.
func (m *Metrics) SetLineRating(id string, rating float64, available bool) {
	if m == nil {
		return
	}
	if !available {
		rating = math.NaN()
	}
	m.LineRating.WithLabelValues(id).Set(rating)
}

// Regime is the metric/report label of the convection regime c is rated in.
func Regime(c ampacity.AmbientCondition) string {
	if c.StillAir() {
		return "still_air"
	}
	return "wind"
}
