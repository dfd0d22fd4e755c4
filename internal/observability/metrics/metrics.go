package metrics

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	metricPrefix = "assets_"

	resultSuccess = "success"
	resultError   = "error"

	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

var (
	registerOnce sync.Once

	importBatches *prometheus.CounterVec
	importRows    *prometheus.CounterVec
	importLatency *prometheus.HistogramVec

	lifecycleDevices *prometheus.GaugeVec

	chainNodes prometheus.Histogram
	chainCache *prometheus.CounterVec

	exportTotal *prometheus.CounterVec
)

// Init registers metrics on the default registry and, when db is set,
// DB-backed gauges for stored devices and connections.
func Init(db *sql.DB, logger logrus.FieldLogger) {
	registerOnce.Do(func() {
		importBatches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_batches_total",
				Help: "Total spreadsheet import batches by result",
			},
			[]string{"result"},
		)
		importRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_rows_total",
				Help: "Total imported rows by sheet and outcome",
			},
			[]string{"sheet", "outcome"},
		)
		importLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "import_latency_seconds",
				Help:    "Import batch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		lifecycleDevices = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "lifecycle_devices",
				Help: "Devices per lifecycle status in the latest report",
			},
			[]string{"status"},
		)

		chainNodes = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "chain_traversal_nodes",
				Help:    "Number of devices reached by a power chain traversal",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		)
		chainCache = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "chain_cache_total",
				Help: "Power chain cache lookups by result",
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			importBatches,
			importRows,
			importLatency,
			lifecycleDevices,
			chainNodes,
			chainCache,
			exportTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

func registerDBMetrics(db *sql.DB, logger logrus.FieldLogger) {
	count := func(table string) func() float64 {
		query := "SELECT COUNT(*) FROM " + table
		return func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			var n int64
			if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
				if logger != nil {
					logger.WithError(err).WithField("table", table).Warn("metrics count failed")
				}
				return 0
			}
			return float64(n)
		}
	}
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: metricPrefix + "devices",
			Help: "Stored devices",
		}, count("devices")),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: metricPrefix + "connections",
			Help: "Stored connections",
		}, count("connections")),
	)
}

// ObserveImport records import batch duration and result.
func ObserveImport(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if importBatches != nil {
		importBatches.WithLabelValues(result).Inc()
	}
	if importLatency != nil {
		importLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddImportRows counts rows per sheet and outcome.
func AddImportRows(sheet, outcome string, count int) {
	if count <= 0 {
		return
	}
	if sheet == "" {
		sheet = "unknown"
	}
	if importRows != nil {
		importRows.WithLabelValues(sheet, outcome).Add(float64(count))
	}
}

// SetLifecycleCounts publishes the status distribution of a report.
func SetLifecycleCounts(counts map[string]int) {
	if lifecycleDevices == nil {
		return
	}
	for status, n := range counts {
		lifecycleDevices.WithLabelValues(status).Set(float64(n))
	}
}

// ObserveChainTraversal records how many devices a traversal reached.
func ObserveChainTraversal(nodes int) {
	if chainNodes != nil {
		chainNodes.Observe(float64(nodes))
	}
}

// IncChainCache counts a cache lookup outcome.
func IncChainCache(result string) {
	if result == "" {
		result = cacheError
	}
	if chainCache != nil {
		chainCache.WithLabelValues(result).Inc()
	}
}

// IncExport counts an export by format and result.
func IncExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	CacheHit   = cacheHit
	CacheMiss  = cacheMiss
	CacheError = cacheError
)
