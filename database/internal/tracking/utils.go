package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sherpa-db/sherpa/database/types"
)

const (
	// Default operation type for unidentified statements
	defaultOperation = "query"

	// Tracer and meter scope for database operations
	dbTracerName = "sherpa/database"

	// Maximum length for the db.query.text attribute
	maxDBQueryAttrLen = 2000

	// attrQueryID correlates the log entry, span and caller of one execution.
	attrQueryID = "sherpa.query.id"
)

// TrackDBOperation records a completed statement execution: a span with the
// exact start time, duration and call metrics, and a log entry.
//
// Errors are logged at error level. Successful statements slower than the
// configured threshold are logged as warnings (subject to the warning rate cap);
// everything else is logged at debug level. TrackDBOperation is a no-op when tc
// or its Logger is nil.
func TrackDBOperation(ctx context.Context, tc *Context, query string, args []any, start time.Time, err error) {
	if tc == nil || tc.Logger == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	elapsed := time.Since(start)
	queryID := uuid.NewString()

	createDBSpan(ctx, tc, queryID, query, start, err)
	recordDBMetrics(ctx, tc, query, elapsed, err)

	truncatedQuery := query
	if tc.Settings.MaxQueryLength() > 0 && len(query) > tc.Settings.MaxQueryLength() {
		truncatedQuery = TruncateString(query, tc.Settings.MaxQueryLength())
	}

	fields := map[string]any{
		"vendor":      tc.Vendor,
		"query_id":    queryID,
		"duration_ms": elapsed.Milliseconds(),
		"query":       truncatedQuery,
	}
	if tc.Settings.LogQueryParameters() && len(args) > 0 {
		fields["args"] = SanitizeArgs(args, tc.Settings.MaxQueryLength())
	}
	log := tc.Logger.WithFields(fields)

	switch {
	case err != nil:
		log.Error().Err(err).Msg("Database operation error")
	case tc.Settings.SlowQueryEnabled() && elapsed > tc.Settings.SlowQueryThreshold():
		if tc.Settings.allowSlowWarning() {
			log.Warn().Msgf("Slow database operation detected (%s)", elapsed)
		} else {
			log.Debug().Msg("Slow database operation detected, warning suppressed")
		}
	default:
		log.Debug().Msg("Database operation executed")
	}
}

// TruncateString truncates value to at most maxLen runes, adding "..." when space allows.
//
// If maxLen <= 0 the original value is returned unchanged. When maxLen <= 3 the
// first maxLen runes are returned without an ellipsis.
func TruncateString(value string, maxLen int) string {
	if maxLen <= 0 {
		return value
	}
	r := []rune(value)
	if len(r) <= maxLen {
		return value
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SanitizeArgs returns a copy of args suitable for logging.
// Strings are truncated to maxLen runes, byte slices are replaced with
// "<bytes len=N>" and other values are formatted with %v and truncated.
// Raw expressions are logged as their SQL text.
func SanitizeArgs(args []any, maxLen int) []any {
	if len(args) == 0 {
		return nil
	}
	sanitized := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			sanitized[i] = TruncateString(v, maxLen)
		case []byte:
			sanitized[i] = fmt.Sprintf("<bytes len=%d>", len(v))
		case types.RawExpr:
			sanitized[i] = TruncateString(v.SQL(), maxLen)
		case types.Value:
			if b, ok := v.AsBytes(); ok {
				sanitized[i] = fmt.Sprintf("<bytes len=%d>", len(b))
			} else {
				sanitized[i] = TruncateString(v.String(), maxLen)
			}
		default:
			sanitized[i] = TruncateString(fmt.Sprintf("%v", v), maxLen)
		}
	}
	return sanitized
}

// createDBSpan creates a client span for a database operation using the
// exact start time, tagged with the db semantic attributes and the query id.
func createDBSpan(ctx context.Context, tc *Context, queryID, query string, start time.Time, err error) {
	tracer := otel.Tracer(dbTracerName)

	operation := extractDBOperation(query)

	_, span := tracer.Start(ctx, "db."+operation,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	attrs := []attribute.KeyValue{
		attribute.String("db.system", normalizeDBVendor(tc.Vendor)),
		semconv.DBQueryText(TruncateString(query, maxDBQueryAttrLen)),
		attribute.String(attrQueryID, queryID),
	}
	if operation != defaultOperation {
		attrs = append(attrs, semconv.DBOperationName(operation))
	}
	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

// extractDBOperation returns the lowercase SQL command of query
// (select, insert, ...) or "query" when it is not recognized.
func extractDBOperation(query string) string {
	parts := strings.Fields(query)
	if len(parts) == 0 {
		return defaultOperation
	}

	operation := strings.ToLower(parts[0])
	switch operation {
	case "select", "insert", "update", "delete", "create", "drop", "alter", "truncate", "with":
		return operation
	default:
		return defaultOperation
	}
}

// normalizeDBVendor normalizes the vendor name to OTel semantic convention values.
func normalizeDBVendor(vendor string) string {
	vendor = strings.ToLower(vendor)
	switch vendor {
	case "postgres", types.PostgreSQL:
		return types.PostgreSQL
	case types.SQLite, "sqlite3":
		return types.SQLite
	default:
		return vendor
	}
}
