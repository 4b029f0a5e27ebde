package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logtrackr_uploads_total",
		Help: "CSV uploads by outcome (success, rejected, failed)",
	}, []string{"outcome"})
	rowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logtrackr_ingested_rows_total",
		Help: "CSV rows processed by result (created, rejected)",
	}, []string{"result"})
	recordsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logtrackr_records_created_total",
		Help: "Log records created through the direct create endpoint",
	})
	recordsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logtrackr_records_deleted_total",
		Help: "Log records removed by bulk delete",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(uploadsTotal, rowsTotal, recordsCreatedTotal, recordsDeletedTotal)
}

// ObserveUpload records one upload attempt and its row counts.
func ObserveUpload(outcome string, created, rejected int) {
	uploadsTotal.WithLabelValues(outcome).Inc()
	rowsTotal.WithLabelValues("created").Add(float64(created))
	rowsTotal.WithLabelValues("rejected").Add(float64(rejected))
}

// IncRecordCreated increments the direct create counter.
func IncRecordCreated() { recordsCreatedTotal.Inc() }

// AddRecordsDeleted adds n to the bulk delete counter.
func AddRecordsDeleted(n int64) { recordsDeletedTotal.Add(float64(n)) }
