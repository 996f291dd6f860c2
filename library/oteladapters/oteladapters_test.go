package oteladapters_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	lognoop "go.opentelemetry.io/otel/log/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/caxton-systems/library-catalog-go/library/oteladapters"
)

func Test_SlogBridgeLogger_LogsAllLevelsWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)
	ctx := t.Context()

	logger.DebugContext(ctx, "debug message", "operation", "find_by_isbn")
	logger.InfoContext(ctx, "info message")
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message")

	output := buf.String()

	assert.Contains(t, output, "debug message")
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
	assert.Contains(t, output, `"operation":"find_by_isbn"`)
}

func Test_OTelLogger_EmitsWithoutPanicking(t *testing.T) {
	logger := oteladapters.NewOTelLogger(lognoop.NewLoggerProvider().Logger("test"))
	ctx := t.Context()

	logger.DebugContext(ctx, "debug message", "key", "value")
	logger.InfoContext(ctx, "info message", "count", 3)
	logger.WarnContext(ctx, "warn message", "dangling key")
	logger.ErrorContext(ctx, "error message", 42, "non-string key is skipped")
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	collector := oteladapters.NewMetricsCollector(provider.Meter("test"))

	labels := map[string]string{
		"operation": "find_top_by_rating",
		"status":    "success",
	}

	collector.RecordDuration("librarystore_operation_duration_seconds", 150*time.Millisecond, labels)

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &resourceMetrics))

	histogram := findHistogramMetric(t, resourceMetrics, "librarystore_operation_duration_seconds")
	require.Len(t, histogram.DataPoints, 1)

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001)

	expectedAttrs := attribute.NewSet(
		attribute.String("operation", "find_top_by_rating"),
		attribute.String("status", "success"),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs))
}

func Test_MetricsCollector_IncrementCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	collector := oteladapters.NewMetricsCollector(provider.Meter("test"))

	labels := map[string]string{"operation": "mark_returned"}

	collector.IncrementCounter("librarystore_database_errors_total", labels)
	collector.IncrementCounter("librarystore_database_errors_total", labels)
	collector.IncrementCounter("librarystore_database_errors_total", labels)

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &resourceMetrics))

	sum := findCounterMetric(t, resourceMetrics, "librarystore_database_errors_total")
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	collector := oteladapters.NewMetricsCollector(provider.Meter("test"))

	collector.RecordValue("librarystore_open_connections", 7, nil)

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &resourceMetrics))

	gauge := findGaugeMetric(t, resourceMetrics, "librarystore_open_connections")
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 7.0, gauge.DataPoints[0].Value, 0.001)
}

func Test_TracingCollector_SpanLifecycle(t *testing.T) {
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	collector := oteladapters.NewTracingCollector(tracer)

	ctx, span := collector.StartSpan(t.Context(), "librarystore.find_by_isbn", map[string]string{
		"table": "books",
	})

	require.NotNil(t, ctx)
	require.NotNil(t, span)

	span.AddAttribute("isbn", "978-0-441-17271-9")
	span.SetStatus("success")

	collector.FinishSpan(span, "success", map[string]string{"result": "found"})
}

func Test_TracingCollector_FinishSpan_IgnoresForeignSpanContexts(t *testing.T) {
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	collector := oteladapters.NewTracingCollector(tracer)

	collector.FinishSpan(foreignSpanContext{}, "error", nil)
}

type foreignSpanContext struct{}

func (foreignSpanContext) SetStatus(string) {}

func (foreignSpanContext) AddAttribute(_, _ string) {}

/***** Metric lookup helpers *****/

func findHistogramMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Histogram[float64] {
	t.Helper()

	for _, scopeMetrics := range rm.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name != name {
				continue
			}

			histogram, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok, "metric %s is not a float64 histogram", name)

			return histogram
		}
	}

	t.Fatalf("histogram metric %s not found", name)

	return metricdata.Histogram[float64]{}
}

func findCounterMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()

	for _, scopeMetrics := range rm.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name != name {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)

			return sum
		}
	}

	t.Fatalf("counter metric %s not found", name)

	return metricdata.Sum[int64]{}
}

func findGaugeMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Gauge[float64] {
	t.Helper()

	for _, scopeMetrics := range rm.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name != name {
				continue
			}

			gauge, ok := m.Data.(metricdata.Gauge[float64])
			require.True(t, ok, "metric %s is not a float64 gauge", name)

			return gauge
		}
	}

	t.Fatalf("gauge metric %s not found", name)

	return metricdata.Gauge[float64]{}
}
