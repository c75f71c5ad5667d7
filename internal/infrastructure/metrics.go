package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ReportMetrics holds the report pipeline instruments
type ReportMetrics struct {
	RowsLoaded       metric.Int64Counter
	RowsExcluded     metric.Int64Counter
	ReportsGenerated metric.Int64Counter
	ReportErrors     metric.Int64Counter
	CacheHits        metric.Int64Counter
	ReportDuration   metric.Float64Histogram
	ExportBytes      metric.Int64Counter
}

// CreateReportMetrics creates the report pipeline instruments on meter.
func CreateReportMetrics(meter metric.Meter) (*ReportMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(
		"remark_rows_loaded_total",
		metric.WithDescription("Total number of remark rows loaded from input files"),
	)
	if err != nil {
		return nil, err
	}

	rowsExcluded, err := meter.Int64Counter(
		"remark_rows_excluded_total",
		metric.WithDescription("Total number of remark rows dropped by exclusion rules"),
	)
	if err != nil {
		return nil, err
	}

	reportsGenerated, err := meter.Int64Counter(
		"remark_reports_generated_total",
		metric.WithDescription("Total number of reports generated"),
	)
	if err != nil {
		return nil, err
	}

	reportErrors, err := meter.Int64Counter(
		"remark_report_errors_total",
		metric.WithDescription("Total number of failed report runs"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"remark_cache_hits_total",
		metric.WithDescription("Total number of reports served from the result cache"),
	)
	if err != nil {
		return nil, err
	}

	reportDuration, err := meter.Float64Histogram(
		"remark_report_duration_seconds",
		metric.WithDescription("Report generation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	exportBytes, err := meter.Int64Counter(
		"remark_export_bytes_total",
		metric.WithDescription("Total bytes of exported workbooks"),
	)
	if err != nil {
		return nil, err
	}

	return &ReportMetrics{
		RowsLoaded:       rowsLoaded,
		RowsExcluded:     rowsExcluded,
		ReportsGenerated: reportsGenerated,
		ReportErrors:     reportErrors,
		CacheHits:        cacheHits,
		ReportDuration:   reportDuration,
		ExportBytes:      exportBytes,
	}, nil
}

// NoopReportMetrics returns instruments that record nothing.
func NoopReportMetrics() *ReportMetrics {
	m, _ := CreateReportMetrics(noop.NewMeterProvider().Meter(MeterName))
	return m
}

// RecordReport records one finished report run.
func (m *ReportMetrics) RecordReport(ctx context.Context, kind string, loaded, excluded int, duration time.Duration) {
	if m == nil {
		return
	}
	kindAttr := metric.WithAttributes(attribute.String("kind", kind))
	m.RowsLoaded.Add(ctx, int64(loaded))
	m.RowsExcluded.Add(ctx, int64(excluded))
	m.ReportsGenerated.Add(ctx, 1, kindAttr)
	m.ReportDuration.Record(ctx, duration.Seconds(), kindAttr)
}

// RecordError records a failed report run, errType being the error taxonomy type.
func (m *ReportMetrics) RecordError(ctx context.Context, kind, errType string) {
	if m == nil {
		return
	}
	m.ReportErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("type", errType),
	))
}

// RecordCacheHit records a report served from the cache.
func (m *ReportMetrics) RecordCacheHit(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.CacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordExport records the size of an exported workbook.
func (m *ReportMetrics) RecordExport(ctx context.Context, kind string, size int) {
	if m == nil {
		return
	}
	m.ExportBytes.Add(ctx, int64(size), metric.WithAttributes(attribute.String("kind", kind)))
}

// HTTPMetrics holds the HTTP server instruments
type HTTPMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ActiveRequests  metric.Int64UpDownCounter
}

// CreateHTTPMetrics creates the HTTP server instruments on meter.
func CreateHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requestsTotal, err := meter.Int64Counter(
		"remark_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"remark_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"remark_http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		RequestsTotal:   requestsTotal,
		RequestDuration: requestDuration,
		ActiveRequests:  activeRequests,
	}, nil
}
