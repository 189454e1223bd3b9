package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// BusinessMetrics holds the dashboard's instruments.
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Render metrics
	RendersTotal      metric.Int64Counter
	RenderDuration    metric.Float64Histogram
	RenderCacheHits   metric.Int64Counter
	RenderCacheMisses metric.Int64Counter
	RenderErrors      metric.Int64Counter

	// Live updates and exports
	WebSocketClients metric.Int64UpDownCounter
	ExportsTotal     metric.Int64Counter
}

// CreateBusinessMetrics registers every dashboard instrument on meter.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m   BusinessMetrics
		err error
	)

	counter := func(name, desc string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}
	updown := func(name, desc string) metric.Int64UpDownCounter {
		if err != nil {
			return nil
		}
		var c metric.Int64UpDownCounter
		c, err = meter.Int64UpDownCounter(name, metric.WithDescription(desc))
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		return h
	}

	m.HTTPRequestsTotal = counter("http_requests", "Total number of HTTP requests")
	m.HTTPRequestDuration = seconds("http_request_duration", "HTTP request duration in seconds")
	m.HTTPActiveRequests = updown("http_active_requests", "Number of in-flight HTTP requests")

	m.RendersTotal = counter("dashboard_renders", "Total number of view renders")
	m.RenderDuration = seconds("dashboard_render_duration", "View render duration in seconds")
	m.RenderCacheHits = counter("dashboard_render_cache_hits", "Renders served from the artifact cache")
	m.RenderCacheMisses = counter("dashboard_render_cache_misses", "Renders that built a new artifact")
	m.RenderErrors = counter("dashboard_render_errors", "Renders that failed")

	m.WebSocketClients = updown("websocket_clients", "Number of connected websocket clients")
	m.ExportsTotal = counter("dashboard_exports", "Total number of table exports")

	if err != nil {
		return nil, fmt.Errorf("create business metrics: %w", err)
	}
	return &m, nil
}

// ObserveRender records one renderer call.
func (m *BusinessMetrics) ObserveRender(ctx context.Context, view string, cached bool, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("view", view))

	m.RendersTotal.Add(ctx, 1, attrs)
	m.RenderDuration.Record(ctx, duration.Seconds(), attrs)
	if cached {
		m.RenderCacheHits.Add(ctx, 1, attrs)
	} else {
		m.RenderCacheMisses.Add(ctx, 1, attrs)
	}
	if err != nil {
		m.RenderErrors.Add(ctx, 1, attrs)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("dashboard.render",
			trace.WithAttributes(
				attribute.String("view", view),
				attribute.Bool("cached", cached),
				attribute.Float64("duration_seconds", duration.Seconds()),
			))
	}
}

// RecordHTTPRequest records a finished request. route is the chi route
// pattern, never the raw path.
func (m *BusinessMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordActiveRequest moves the in-flight request gauge by delta.
func (m *BusinessMetrics) RecordActiveRequest(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.HTTPActiveRequests.Add(ctx, delta)
}

// RecordWebSocketClient moves the connected-clients gauge by delta.
func (m *BusinessMetrics) RecordWebSocketClient(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.WebSocketClients.Add(ctx, delta)
}

// RecordExport counts one export in format.
func (m *BusinessMetrics) RecordExport(ctx context.Context, format string) {
	if m == nil {
		return
	}
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
}
