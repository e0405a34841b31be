package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PostgresPoolConnections is sampled from pgxpool stats; state is one of
// acquired, idle, max or total.
var PostgresPoolConnections = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "postgres",
		Name:      "pool_connections",
		Help:      "Postgres pool connections by state",
	},
	[]string{"state"},
)

var (
	PostgresQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "postgres",
			Name:      "query_duration_seconds",
			Help:      "Postgres query latency",
			Buckets:   latencyBuckets,
		},
		[]string{"operation", "table"},
	)

	PostgresQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "postgres",
			Name:      "query_errors_total",
			Help:      "Postgres queries that failed with something other than no rows",
		},
		[]string{"operation", "table", "error_type"},
	)
)

var (
	MongoOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mongo",
			Name:      "operation_duration_seconds",
			Help:      "MongoDB operation latency",
			Buckets:   latencyBuckets,
		},
		[]string{"operation", "collection"},
	)

	MongoOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mongo",
			Name:      "operation_errors_total",
			Help:      "MongoDB operations that failed with something other than no documents",
		},
		[]string{"operation", "collection"},
	)
)
