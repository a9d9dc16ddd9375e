package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/database/internal/sqlconn"
	"github.com/sherpa-db/sherpa/database/types"
	"github.com/sherpa-db/sherpa/logger"
	obtest "github.com/sherpa-db/sherpa/observability/testing"
)

const (
	testQuerySelectUsers = "SELECT * FROM users WHERE age > $1"
	testQueryCount       = "SELECT COUNT(*) FROM (SELECT * FROM orders GROUP BY status) AS sherpa_count"
)

func bufferedLogger() (logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewWithOptions(logger.Options{Level: "debug", Output: &buf}), &buf
}

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func newTrackedMock(t *testing.T, cfg *config.DatabaseConfig) (sqlmock.Sqlmock, *Connection, *bytes.Buffer) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	log, buf := bufferedLogger()
	conn := NewConnection(sqlconn.New(db, types.PostgreSQL, logger.Nop()), log, cfg)
	t.Cleanup(func() {
		mock.ExpectClose()
		_ = conn.Close()
	})
	return mock, conn, buf
}

func TestConnectionQueryEmitsSpanMetricsAndLog(t *testing.T) {
	tel := obtest.Install(t)
	mock, conn, buf := newTrackedMock(t, &config.DatabaseConfig{
		Query: config.QueryConfig{
			Slow: config.SlowQueryConfig{Enabled: true, Threshold: time.Hour},
			Log:  config.QueryLogConfig{Parameters: true},
		},
	})

	mock.ExpectQuery(testQuerySelectUsers).WithArgs(18).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	rows, err := conn.Query(context.Background(), testQuerySelectUsers, 18)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	spans := tel.Spans.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "db.select", span.Name)
	assert.Equal(t, codes.Unset, span.Status.Code)

	obtest.AssertSpanAttribute(t, span, "db.system", "postgresql")
	obtest.AssertSpanAttribute(t, span, "db.query.text", testQuerySelectUsers)
	obtest.AssertSpanAttribute(t, span, "db.operation.name", "select")
	attrs := obtest.SpanAttributes(span)
	require.NotEmpty(t, attrs[attrQueryID])

	entries := logEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "debug", entries[0]["level"])
	assert.Equal(t, "Database operation executed", entries[0]["message"])
	assert.Equal(t, attrs[attrQueryID], entries[0]["query_id"], "log and span share the query id")
	assert.Equal(t, []any{"18"}, entries[0]["args"])

	duration := tel.Metric(t, metricDBDuration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	table, _ := hist.DataPoints[0].Attributes.Value(metricDbSQLTable)
	assert.Equal(t, "users", table.AsString())

	calls := tel.Metric(t, metricDBCalls)
	sum, ok := calls.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

func TestConnectionQueryErrorIsRecorded(t *testing.T) {
	tel := obtest.Install(t)
	mock, conn, buf := newTrackedMock(t, nil)

	mock.ExpectQuery("SELECT * FROM missing").WillReturnError(errors.New(`relation "missing" does not exist`))

	_, err := conn.Query(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)
	assert.True(t, types.IsExecutionError(err), "adapter classification passes through")

	spans := tel.Spans.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events, "error recorded as span event")

	entries := logEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0]["level"])
	assert.Contains(t, entries[0]["error"], "does not exist")
	assert.NotContains(t, entries[0], "args", "parameters are not logged by default")
}

func TestTrackDBOperationSlowQueries(t *testing.T) {
	obtest.Install(t)

	log, buf := bufferedLogger()
	tc := &Context{
		Logger: log,
		Vendor: types.MySQL,
		Settings: NewSettings(&config.DatabaseConfig{Query: config.QueryConfig{
			Slow: config.SlowQueryConfig{Enabled: true, Threshold: time.Millisecond, WarnPerSecond: 1},
		}}),
	}
	start := time.Now().Add(-50 * time.Millisecond)

	TrackDBOperation(context.Background(), tc, "SELECT 1", nil, start, nil)
	TrackDBOperation(context.Background(), tc, "SELECT 1", nil, start, nil)

	entries := logEntries(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Contains(t, entries[0]["message"], "Slow database operation detected")
	assert.Equal(t, "debug", entries[1]["level"], "second warning within the same second is suppressed")
}

func TestTrackDBOperationSlowDetectionDisabled(t *testing.T) {
	obtest.Install(t)

	log, buf := bufferedLogger()
	tc := &Context{
		Logger: log,
		Vendor: types.SQLite,
		Settings: NewSettings(&config.DatabaseConfig{Query: config.QueryConfig{
			Slow: config.SlowQueryConfig{Enabled: false, Threshold: time.Millisecond},
		}}),
	}

	TrackDBOperation(context.Background(), tc, "SELECT 1", nil, time.Now().Add(-time.Second), nil)

	entries := logEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "debug", entries[0]["level"])
}

func TestTrackDBOperationNilContext(t *testing.T) {
	assert.NotPanics(t, func() {
		TrackDBOperation(context.Background(), nil, "SELECT 1", nil, time.Now(), nil)
		TrackDBOperation(context.Background(), &Context{}, "SELECT 1", nil, time.Now(), nil)
	})
}

func TestConnectionDelegates(t *testing.T) {
	obtest.Install(t)
	mock, conn, _ := newTrackedMock(t, nil)

	assert.Equal(t, types.PostgreSQL, conn.DatabaseType())
	assert.NotNil(t, conn.Unwrap())

	stats, err := conn.Stats()
	require.NoError(t, err)
	assert.Contains(t, stats, "in_use")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolMetricsAreObserved(t *testing.T) {
	tel := obtest.Install(t)
	_, _, _ = newTrackedMock(t, nil)

	total := tel.Metric(t, metricPoolTotal)
	gauge, ok := total.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	system, _ := gauge.DataPoints[0].Attributes.Value(metricDbSystem)
	assert.Equal(t, "postgresql", system.AsString())
}

func TestNewSettings(t *testing.T) {
	defaults := NewSettings(nil)
	assert.True(t, defaults.SlowQueryEnabled())
	assert.Equal(t, DefaultSlowQueryThreshold, defaults.SlowQueryThreshold())
	assert.Equal(t, DefaultMaxQueryLength, defaults.MaxQueryLength())
	assert.False(t, defaults.LogQueryParameters())
	assert.True(t, defaults.allowSlowWarning())

	custom := NewSettings(&config.DatabaseConfig{Query: config.QueryConfig{
		Slow: config.SlowQueryConfig{Enabled: true, Threshold: time.Second},
		Log:  config.QueryLogConfig{Parameters: true, MaxLength: 50},
	}})
	assert.Equal(t, time.Second, custom.SlowQueryThreshold())
	assert.Equal(t, 50, custom.MaxQueryLength())
	assert.True(t, custom.LogQueryParameters())
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 0))
	assert.Equal(t, "abc", TruncateString("abc", 3))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
	assert.Equal(t, "a...", TruncateString("abcdef", 4))
	assert.Equal(t, "ü...", TruncateString("üüüüüü", 4))
}

func TestSanitizeArgs(t *testing.T) {
	assert.Nil(t, SanitizeArgs(nil, 10))

	got := SanitizeArgs([]any{
		"a long string value",
		[]byte{1, 2, 3},
		42,
		types.Raw("users.id"),
		types.Text("txt"),
		types.Bytes([]byte{1}),
	}, 8)

	assert.Equal(t, []any{"a lon...", "<bytes len=3>", "42", "users.id", `"txt"`, "<bytes len=1>"}, got)
}

func TestExtractDBOperationAndTable(t *testing.T) {
	tests := []struct {
		query     string
		operation string
		table     string
	}{
		{testQuerySelectUsers, "select", "users"},
		{testQueryCount, "select", "orders"},
		{`SELECT o.id FROM "shop"."orders" o INNER JOIN users ON o.user_id = users.id`, "select", "orders"},
		{"  select 1", "select", "unknown"},
		{"INSERT INTO users VALUES (1)", "insert", "unknown"},
		{"WITH t AS (SELECT 1) SELECT * FROM t", "with", "unknown"},
		{"", "query", "unknown"},
		{"VACUUM", "query", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.operation, extractDBOperation(tt.query))
			assert.Equal(t, tt.table, extractTableName(tt.query))
		})
	}
}

func TestNormalizeDBVendor(t *testing.T) {
	assert.Equal(t, "postgresql", normalizeDBVendor("Postgres"))
	assert.Equal(t, "sqlite", normalizeDBVendor("sqlite3"))
	assert.Equal(t, "oracle", normalizeDBVendor("oracle"))
}
