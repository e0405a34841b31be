package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/devnla/backend-express/internal/common/constants"
	"github.com/devnla/backend-express/internal/observability/metrics"
)

// StartPoolMetrics publishes pool gauges until ctx is done.
func StartPoolMetrics(ctx context.Context, pool *pgxpool.Pool, interval time.Duration) {
	if interval <= 0 {
		interval = constants.DBPoolMetricsInterval
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				recordPoolStats(pool.Stat())
			}
		}
	}()
}

func recordPoolStats(stats *pgxpool.Stat) {
	metrics.PostgresPoolConnections.WithLabelValues("acquired").Set(float64(stats.AcquiredConns()))
	metrics.PostgresPoolConnections.WithLabelValues("idle").Set(float64(stats.IdleConns()))
	metrics.PostgresPoolConnections.WithLabelValues("max").Set(float64(stats.MaxConns()))
	metrics.PostgresPoolConnections.WithLabelValues("total").Set(float64(stats.TotalConns()))
}
