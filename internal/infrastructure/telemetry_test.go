package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"nhsdash/internal/config"
	"nhsdash/internal/shared/testutil"
)

func TestNewTelemetry(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.TelemetryConfig
		wantTracing bool
		wantMetrics bool
		wantErr     bool
	}{
		{
			name:        "metrics only",
			cfg:         config.TelemetryConfig{EnableMetrics: true},
			wantMetrics: true,
		},
		{
			name:        "tracing to stdout",
			cfg:         config.TelemetryConfig{EnableTracing: true, TraceExporter: "stdout", SampleRatio: 1},
			wantTracing: true,
		},
		{
			name: "everything disabled",
			cfg:  config.TelemetryConfig{},
		},
		{
			name: "tracing without exporter",
			cfg:  config.TelemetryConfig{EnableTracing: true, TraceExporter: "none"},
		},
		{
			name:    "unsupported exporter",
			cfg:     config.TelemetryConfig{EnableTracing: true, TraceExporter: "zipkin"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)

			tel, err := NewTelemetry(tt.cfg, logger)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unsupported trace exporter")
				return
			}
			require.NoError(t, err)

			assert.NotNil(t, tel.Tracer)
			assert.NotNil(t, tel.Meter)
			assert.NotNil(t, tel.Scrape)
			assert.Equal(t, tt.wantTracing, tel.Tracing)
			assert.Equal(t, tt.wantMetrics, tel.Metrics)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			assert.NoError(t, tel.Shutdown(ctx))
			assert.NoError(t, tel.Shutdown(ctx), "second shutdown is a no-op")
		})
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	tel, err := NewTelemetry(config.TelemetryConfig{EnableMetrics: true}, logger)
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(tel.Meter)
	require.NoError(t, err)
	metrics.ObserveRender(context.Background(), "tab-pie", false, 3*time.Millisecond, nil)

	server := httptest.NewServer(tel.Scrape)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, string(body), "dashboard_renders")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestPrometheusDisabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	tel, err := NewTelemetry(config.TelemetryConfig{}, logger)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	tel.Scrape.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestBusinessMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	metrics.ObserveRender(ctx, "tab-summary", false, time.Millisecond, nil)
	metrics.ObserveRender(ctx, "tab-summary", true, time.Microsecond, nil)
	metrics.ObserveRender(ctx, "tab-nope", false, time.Microsecond, errors.New("unknown view"))
	metrics.RecordHTTPRequest(ctx, http.MethodGet, "/api/dashboard/render", http.StatusOK, time.Millisecond)
	metrics.RecordActiveRequest(ctx, 1)
	metrics.RecordActiveRequest(ctx, -1)
	metrics.RecordWebSocketClient(ctx, 2)
	metrics.RecordExport(ctx, "csv")

	sums := collectSums(t, reader)
	assert.Equal(t, int64(3), sums["dashboard_renders"])
	assert.Equal(t, int64(1), sums["dashboard_render_cache_hits"])
	assert.Equal(t, int64(2), sums["dashboard_render_cache_misses"])
	assert.Equal(t, int64(1), sums["dashboard_render_errors"])
	assert.Equal(t, int64(1), sums["http_requests"])
	assert.Equal(t, int64(0), sums["http_active_requests"])
	assert.Equal(t, int64(2), sums["websocket_clients"])
	assert.Equal(t, int64(1), sums["dashboard_exports"])
}

func TestBusinessMetricsNilSafe(t *testing.T) {
	var metrics *BusinessMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		metrics.ObserveRender(ctx, "tab-pie", true, 0, nil)
		metrics.RecordHTTPRequest(ctx, http.MethodGet, "/", http.StatusOK, 0)
		metrics.RecordActiveRequest(ctx, 1)
		metrics.RecordWebSocketClient(ctx, 1)
		metrics.RecordExport(ctx, "xlsx")
	})
}

func TestRecordError(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError(context.Background(), errors.New("boom"))
		RecordError(context.Background(), nil)
	})

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := tp.Tracer("test").Start(context.Background(), "export")
	RecordError(ctx, errors.New("short write"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "short write", ended[0].Status().Description)
}

func TestCollectSystemStats(t *testing.T) {
	start := time.Now().Add(-2 * time.Second)
	stats := CollectSystemStats(start)

	assert.Positive(t, stats.GoRoutines)
	assert.Positive(t, stats.CPUCount)
	assert.GreaterOrEqual(t, stats.ProcessUptime, 2*time.Second)

	formatted := stats.FormatStats()
	assert.Contains(t, formatted, "goroutines")
	assert.Contains(t, formatted, "uptime_seconds")
}
