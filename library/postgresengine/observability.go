package postgresengine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/caxton-systems/library-catalog-go/library"
	"github.com/caxton-systems/library-catalog-go/library/postgresengine/internal/adapters"
)

const (
	logMsgSQLExecuted     = "executed sql for: "
	logMsgOperation       = "store operation: "
	logMsgCloseRowsFailed = "failed to close database rows"

	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrDurationMS = "duration_ms"

	metricOperationDuration = "librarystore_operation_duration_seconds"
	metricDatabaseErrors    = "librarystore_database_errors_total"

	spanNamePrefix    = "librarystore."
	spanAttrOperation = "operation"
	spanAttrTable     = "table"

	statusSuccess = "success"
	statusError   = "error"
)

// executeQuery executes the SQL query with timing, debug logging and span duration metrics.
func (e *Engine) executeQuery(ctx context.Context, sqlQuery sqlQueryString, operation string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := e.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	e.logQueryWithDuration(ctx, sqlQuery, operation, duration)

	if queryErr != nil {
		e.recordErrorMetrics(ctx, operation)
		return nil, errors.Join(library.ErrStoreUnavailable, queryErr)
	}

	e.recordDurationMetrics(ctx, duration, operation, statusSuccess)

	return rows, nil
}

// executeExec executes the SQL statement and returns the affected row count.
func (e *Engine) executeExec(ctx context.Context, sqlQuery sqlQueryString, operation string) (int64, error) {
	start := time.Now()
	result, execErr := e.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	e.logQueryWithDuration(ctx, sqlQuery, operation, duration)

	if execErr != nil {
		e.recordErrorMetrics(ctx, operation)
		return 0, errors.Join(library.ErrStoreUnavailable, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		e.logError(ctx, library.ErrGettingRowsAffectedFailed.Error(), rowsAffectedErr)
		return 0, errors.Join(library.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	e.recordDurationMetrics(ctx, duration, operation, statusSuccess)

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (e *Engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if e.contextualLogger != nil {
			e.contextualLogger.WarnContext(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		} else if e.logger != nil {
			e.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// startSpan starts a tracing span for a store operation if a tracing collector is configured.
func (e *Engine) startSpan(ctx context.Context, operation string, table string) (context.Context, library.SpanContext) {
	if e.tracingCollector == nil {
		return ctx, nil
	}

	return e.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
		spanAttrOperation: operation,
		spanAttrTable:     table,
	})
}

// finishSpan finishes a tracing span with a status derived from err.
func (e *Engine) finishSpan(span library.SpanContext, err error) {
	if e.tracingCollector == nil || span == nil {
		return
	}

	status := statusSuccess
	if err != nil {
		status = statusError
	}

	e.tracingCollector.FinishSpan(span, status, nil)
}

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (e *Engine) logQueryWithDuration(ctx context.Context, sqlQuery sqlQueryString, operation string, duration time.Duration) {
	if e.contextualLogger != nil {
		e.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+operation, logAttrDurationMS, e.toMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if e.logger != nil {
		e.logger.Debug(logMsgSQLExecuted+operation, logAttrDurationMS, e.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (e *Engine) logOperation(ctx context.Context, operation string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, logMsgOperation+operation, args...)
		return
	}

	if e.logger != nil {
		e.logger.Info(logMsgOperation+operation, args...)
	}
}

// logError logs error information at error level if a logger is configured.
func (e *Engine) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, message, allArgs...)
		return
	}

	if e.logger != nil {
		e.logger.Error(message, allArgs...)
	}
}

// recordDurationMetrics records an operation duration if a metrics collector is configured.
func (e *Engine) recordDurationMetrics(ctx context.Context, duration time.Duration, operation, status string) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextualCollector, ok := e.metricsCollector.(library.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
	} else {
		e.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	}
}

// recordErrorMetrics counts a database error if a metrics collector is configured.
func (e *Engine) recordErrorMetrics(ctx context.Context, operation string) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusError,
	}

	if contextualCollector, ok := e.metricsCollector.(library.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
	} else {
		e.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (e *Engine) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
