package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Lifecycle metrics
	exitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_exits_total",
			Help: "Total exit instructions issued, by reason",
		},
		[]string{"account", "reason"},
	)

	stopUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_stop_updates_total",
			Help: "Total stop-loss amendments issued, by action",
		},
		[]string{"account", "action"},
	)

	rotationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_rotations_total",
			Help: "Total positions selected for capital rotation",
		},
		[]string{"account"},
	)

	// Capital metrics
	drawdownPct = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "guardian_drawdown_pct",
			Help: "Current drawdown from peak capital",
		},
		[]string{"account"},
	)

	exposureMultiplier = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "guardian_exposure_multiplier",
			Help: "Last approved exposure multiplier",
		},
		[]string{"account"},
	)

	openPositions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "guardian_open_positions",
			Help: "Number of positions currently managed",
		},
		[]string{"account"},
	)

	// Error metrics
	evaluationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_evaluation_errors_total",
			Help: "Position evaluations skipped due to corrupt inputs or execution failures",
		},
		[]string{"account", "type"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(exitsTotal)
	prometheus.MustRegister(stopUpdatesTotal)
	prometheus.MustRegister(rotationsTotal)
	prometheus.MustRegister(drawdownPct)
	prometheus.MustRegister(exposureMultiplier)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(evaluationErrorsTotal)
}

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordExit records an issued exit instruction
func RecordExit(account, reason string) {
	exitsTotal.WithLabelValues(account, reason).Inc()
}

// RecordStopUpdate records an issued stop amendment
func RecordStopUpdate(account, action string) {
	stopUpdatesTotal.WithLabelValues(account, action).Inc()
}

// RecordRotation records positions selected for rotation
func RecordRotation(account string, count int) {
	rotationsTotal.WithLabelValues(account).Add(float64(count))
}

// UpdateDrawdown updates the drawdown gauge
func UpdateDrawdown(account string, pct float64) {
	drawdownPct.WithLabelValues(account).Set(pct)
}

// UpdateExposureMultiplier updates the exposure multiplier gauge
func UpdateExposureMultiplier(account string, multiplier float64) {
	exposureMultiplier.WithLabelValues(account).Set(multiplier)
}

// UpdateOpenPositions updates the managed position count gauge
func UpdateOpenPositions(account string, count int) {
	openPositions.WithLabelValues(account).Set(float64(count))
}

// RecordEvaluationError records a skipped position evaluation
func RecordEvaluationError(account, errorType string) {
	evaluationErrorsTotal.WithLabelValues(account, errorType).Inc()
}
