// Package metrics provides observability for the data point module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks data point mutation counts and durations, plus per-outcome
// bulk import row counts.
type Metrics struct {
	DataPointsCreated  prometheus.Counter
	DataPointsUpdated  prometheus.Counter
	DataPointsVerified prometheus.Counter
	DataPointsDeleted  prometheus.Counter
	PeriodConflicts    prometheus.Counter
	BulkImportBatches  prometheus.Counter
	BulkImportRows     *prometheus.CounterVec
	MutationDuration   prometheus.Histogram
	BulkImportDuration prometheus.Histogram
}

// New creates a Metrics instance with all data point module metrics registered.
func New() *Metrics {
	return &Metrics{
		DataPointsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satudata_datapoints_created_total",
			Help: "Total number of data points created",
		}),
		DataPointsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satudata_datapoints_updated_total",
			Help: "Total number of data point updates",
		}),
		DataPointsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satudata_datapoints_verified_total",
			Help: "Total number of data points verified to final",
		}),
		DataPointsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satudata_datapoints_deleted_total",
			Help: "Total number of data points deleted",
		}),
		PeriodConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satudata_period_conflicts_total",
			Help: "Total number of rejected duplicate-period submissions",
		}),
		BulkImportBatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satudata_bulk_import_batches_total",
			Help: "Total number of bulk import batches processed",
		}),
		BulkImportRows: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "satudata_bulk_import_rows_total",
			Help: "Bulk import rows by outcome",
		}, []string{"outcome"}),
		MutationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "satudata_mutation_duration_seconds",
			Help:    "Duration of single data point mutations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BulkImportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "satudata_bulk_import_duration_seconds",
			Help:    "Duration of bulk import batches",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementCreated records a successful data point creation.
func (m *Metrics) IncrementCreated() { m.DataPointsCreated.Inc() }

// IncrementUpdated records a successful data point update.
func (m *Metrics) IncrementUpdated() { m.DataPointsUpdated.Inc() }

// IncrementVerified records a successful verification.
func (m *Metrics) IncrementVerified() { m.DataPointsVerified.Inc() }

// IncrementDeleted records a successful deletion.
func (m *Metrics) IncrementDeleted() { m.DataPointsDeleted.Inc() }

// IncrementPeriodConflict records a duplicate-period rejection.
func (m *Metrics) IncrementPeriodConflict() { m.PeriodConflicts.Inc() }

// ObserveMutation records the duration of a single mutation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveMutation(start time.Time) {
	m.MutationDuration.Observe(time.Since(start).Seconds())
}

// ObserveBulkImport records a finished batch and its per-outcome row counts.
func (m *Metrics) ObserveBulkImport(start time.Time, imported, updated, skipped, failed int) {
	m.BulkImportBatches.Inc()
	m.BulkImportRows.WithLabelValues("imported").Add(float64(imported))
	m.BulkImportRows.WithLabelValues("updated").Add(float64(updated))
	m.BulkImportRows.WithLabelValues("skipped").Add(float64(skipped))
	m.BulkImportRows.WithLabelValues("error").Add(float64(failed))
	m.BulkImportDuration.Observe(time.Since(start).Seconds())
}
