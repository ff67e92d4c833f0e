package metrics

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DBQueryDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Storage operation latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_errors_total",
			Help:      "Storage operations that failed, by error type",
		},
		[]string{"operation", "error_type"},
	)
)

// PoolStats is a snapshot of connection pool usage for either backend.
type PoolStats struct {
	Open  int
	InUse int
	Idle  int
	Max   int
}

func PgxPoolStats(pool *pgxpool.Pool) PoolStats {
	stat := pool.Stat()
	return PoolStats{
		Open:  int(stat.TotalConns()),
		InUse: int(stat.AcquiredConns()),
		Idle:  int(stat.IdleConns()),
		Max:   int(stat.MaxConns()),
	}
}

func SQLDBStats(db *sql.DB) PoolStats {
	stat := db.Stats()
	return PoolStats{
		Open:  stat.OpenConnections,
		InUse: stat.InUse,
		Idle:  stat.Idle,
		Max:   stat.MaxOpenConnections,
	}
}

var (
	poolOpenDesc  = prometheus.NewDesc(namespace+"_db_connections_open", "Open database connections", nil, nil)
	poolInUseDesc = prometheus.NewDesc(namespace+"_db_connections_in_use", "Database connections checked out", nil, nil)
	poolIdleDesc  = prometheus.NewDesc(namespace+"_db_connections_idle", "Idle database connections", nil, nil)
	poolMaxDesc   = prometheus.NewDesc(namespace+"_db_connections_max_open", "Connection limit of the pool", nil, nil)
)

// PoolCollector reads pool statistics when /metrics is scraped.
type PoolCollector struct {
	stats func() PoolStats
}

func NewPoolCollector(stats func() PoolStats) *PoolCollector {
	return &PoolCollector{stats: stats}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolOpenDesc
	ch <- poolInUseDesc
	ch <- poolIdleDesc
	ch <- poolMaxDesc
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.stats()
	ch <- prometheus.MustNewConstMetric(poolOpenDesc, prometheus.GaugeValue, float64(stat.Open))
	ch <- prometheus.MustNewConstMetric(poolInUseDesc, prometheus.GaugeValue, float64(stat.InUse))
	ch <- prometheus.MustNewConstMetric(poolIdleDesc, prometheus.GaugeValue, float64(stat.Idle))
	ch <- prometheus.MustNewConstMetric(poolMaxDesc, prometheus.GaugeValue, float64(stat.Max))
}

// RecordQuery observes one storage operation. Call it deferred:
//
//	defer func(start time.Time) { metrics.RecordQuery("events_create", start, err) }(time.Now())
func RecordQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DBErrors.WithLabelValues(operation, errorType(err)).Inc()
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "query_error"
	}
}
