package tracking

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Metric names following OpenTelemetry semantic conventions
	metricDBCalls    = "db.client.calls"
	metricDBDuration = "db.client.operation.duration"

	// Connection pool metrics
	metricPoolActive = "db.connection.pool.active"
	metricPoolIdle   = "db.connection.pool.idle"
	metricPoolTotal  = "db.connection.pool.total"

	metricDbSQLTable  = "db.sql.table"
	metricDbOperation = "db.operation.name"
	metricDbSystem    = "db.system"
)

// dbInstruments holds the metric instruments created from one meter provider.
type dbInstruments struct {
	meter    metric.Meter
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

var (
	instrumentsMu sync.Mutex
	instruments   *dbInstruments
	instrumentsMP metric.MeterProvider
)

// logMetricError logs a metric registration error to stderr.
// Metric failures never fail a query.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize metric %s: %v\n", metricName, err)
	}
}

// getInstruments returns instruments for the current global meter provider,
// recreating them when the provider has been replaced (observability.Setup, tests).
func getInstruments() *dbInstruments {
	instrumentsMu.Lock()
	defer instrumentsMu.Unlock()

	mp := otel.GetMeterProvider()
	if instruments != nil && instrumentsMP == mp {
		return instruments
	}

	meter := mp.Meter(dbTracerName)
	inst := &dbInstruments{meter: meter}

	var err error
	inst.calls, err = meter.Int64Counter(
		metricDBCalls,
		metric.WithDescription("Total number of database client calls"),
	)
	logMetricError(metricDBCalls, err)

	inst.duration, err = meter.Float64Histogram(
		metricDBDuration,
		metric.WithDescription("Duration of database operations in milliseconds"),
		metric.WithUnit("ms"),
	)
	logMetricError(metricDBDuration, err)

	instruments, instrumentsMP = inst, mp
	return inst
}

// recordDBMetrics records the call counter and duration histogram for one statement.
func recordDBMetrics(ctx context.Context, tc *Context, query string, duration time.Duration, err error) {
	inst := getInstruments()

	commonAttrs := []attribute.KeyValue{
		attribute.String(metricDbSystem, normalizeDBVendor(tc.Vendor)),
		attribute.String(metricDbOperation, extractDBOperation(query)),
		attribute.String(metricDbSQLTable, extractTableName(query)),
	}

	if inst.calls != nil {
		counterAttrs := append(append([]attribute.KeyValue{}, commonAttrs...), attribute.Bool("error", err != nil))
		inst.calls.Add(ctx, 1, metric.WithAttributes(counterAttrs...))
	}

	if inst.duration != nil {
		durationMs := float64(duration.Nanoseconds()) / 1e6
		inst.duration.Record(ctx, durationMs, metric.WithAttributes(commonAttrs...))
	}
}

// selectTableRegex captures the first table after FROM, skipping a schema
// qualifier and identifier quotes. Wrapped COUNT statements start with
// "FROM (" and resolve to the inner statement's table.
var selectTableRegex = regexp.MustCompile("(?i)FROM\\s+(?:\\(\\s*SELECT\\s.*?FROM\\s+)?(?:[`\"']?\\w+[`\"']?\\.)?[`\"']?(\\w+)[`\"']?")

// extractTableName returns the primary table of a SELECT statement, or "unknown".
// This is a lightweight matcher for the statements the builder produces, not a SQL parser.
func extractTableName(query string) string {
	query = strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToUpper(query), "SELECT") {
		return "unknown"
	}
	if matches := selectTableRegex.FindStringSubmatch(query); len(matches) > 1 {
		return strings.ToLower(matches[1])
	}
	return "unknown"
}

// asInt64 converts the numeric values found in Stats() maps to int64.
func asInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case float64:
		return int64(val), true
	default:
		return 0, false
	}
}

// poolMetricsRegistration reports connection pool statistics through observable gauges.
type poolMetricsRegistration struct {
	conn interface {
		Stats() (map[string]any, error)
	}
	activeGauge metric.Int64ObservableGauge
	idleGauge   metric.Int64ObservableGauge
	totalGauge  metric.Int64ObservableGauge
	attrs       []attribute.KeyValue
}

func (r *poolMetricsRegistration) observePoolStats(_ context.Context, observer metric.Observer) error {
	stats, err := r.conn.Stats()
	if err != nil {
		return nil
	}

	opt := metric.WithAttributes(r.attrs...)
	if v, ok := asInt64(stats["in_use"]); ok {
		observer.ObserveInt64(r.activeGauge, v, opt)
	}
	if v, ok := asInt64(stats["idle"]); ok {
		observer.ObserveInt64(r.idleGauge, v, opt)
	}
	if v, ok := asInt64(stats["max_open_connections"]); ok {
		observer.ObserveInt64(r.totalGauge, v, opt)
	}
	return nil
}

// RegisterConnectionPoolMetrics registers gauges for in-use, idle and maximum
// connections that read conn.Stats() at every collection. The returned function
// unregisters the callback.
func RegisterConnectionPoolMetrics(conn interface {
	Stats() (map[string]any, error)
}, vendor string) func() {
	meter := getInstruments().meter

	reg := &poolMetricsRegistration{
		conn:  conn,
		attrs: []attribute.KeyValue{attribute.String(metricDbSystem, normalizeDBVendor(vendor))},
	}

	var errActive, errIdle, errTotal error
	reg.activeGauge, errActive = meter.Int64ObservableGauge(metricPoolActive, metric.WithDescription("Number of active database connections"))
	reg.idleGauge, errIdle = meter.Int64ObservableGauge(metricPoolIdle, metric.WithDescription("Number of idle database connections"))
	reg.totalGauge, errTotal = meter.Int64ObservableGauge(metricPoolTotal, metric.WithDescription("Maximum number of database connections configured"))
	for name, err := range map[string]error{metricPoolActive: errActive, metricPoolIdle: errIdle, metricPoolTotal: errTotal} {
		if err != nil {
			logMetricError(name, err)
			return func() {}
		}
	}

	registration, err := meter.RegisterCallback(reg.observePoolStats, reg.activeGauge, reg.idleGauge, reg.totalGauge)
	if err != nil {
		logMetricError("pool_metrics_callback", err)
		return func() {}
	}

	return func() {
		if err := registration.Unregister(); err != nil {
			logMetricError("pool_metrics_unregister", err)
		}
	}
}
