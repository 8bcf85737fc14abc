package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the bulk-import pipeline.
// Labelled by entity ("clients", "products") so one instance serves both domains.
type Metrics struct {
	AnalyzeTotal    *prometheus.CounterVec
	CommitTotal     *prometheus.CounterVec
	RecordsCreated  *prometheus.CounterVec
	RecordsRejected *prometheus.CounterVec
	AnalyzeDuration *prometheus.HistogramVec
	CommitDuration  *prometheus.HistogramVec
}

// New creates a Metrics instance with all import pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		AnalyzeTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_import_analyze_total",
			Help: "Total number of import analyze requests",
		}, []string{"entity"}),
		CommitTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_import_commit_total",
			Help: "Total number of import commit requests",
		}, []string{"entity"}),
		RecordsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_import_records_created_total",
			Help: "Records persisted by import commits",
		}, []string{"entity"}),
		RecordsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_import_records_rejected_total",
			Help: "Records rejected as duplicates during import commits",
		}, []string{"entity"}),
		AnalyzeDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backoffice_import_analyze_duration_seconds",
			Help:    "Duration of import analyze operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"entity"}),
		CommitDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backoffice_import_commit_duration_seconds",
			Help:    "Duration of import commit operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"entity"}),
	}
}

// ObserveAnalyze records one analyze request and its duration.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveAnalyze(entity string, start time.Time) {
	m.AnalyzeTotal.WithLabelValues(entity).Inc()
	m.AnalyzeDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())
}

// ObserveCommit records one commit request, its duration and its outcome counts.
func (m *Metrics) ObserveCommit(entity string, start time.Time, created, rejected int) {
	m.CommitTotal.WithLabelValues(entity).Inc()
	m.CommitDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())
	m.RecordsCreated.WithLabelValues(entity).Add(float64(created))
	m.RecordsRejected.WithLabelValues(entity).Add(float64(rejected))
}
