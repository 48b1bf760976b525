package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// bulkQueryDuration tracks the store-side duration of /users bulk queries,
// labeled by pagination strategy: offset, date, or cursor.
var bulkQueryDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "users_bulk_query_duration_seconds",
		Help:    "Duration of bulk user queries in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"strategy"},
)

// RecordBulkQuery observes one bulk-query execution.
func RecordBulkQuery(strategy string, duration time.Duration) {
	bulkQueryDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}
