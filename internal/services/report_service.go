package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"remarkcli/internal/cache"
	"remarkcli/internal/config"
	"remarkcli/internal/dataprocessing"
	apperrors "remarkcli/internal/errors"
	"remarkcli/internal/exporter"
	"remarkcli/internal/infrastructure"
	"remarkcli/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of report spans.
const TracerName = "remarkcli.report"

// InputFile is one source file handed to the service.
type InputFile struct {
	Name string
	Data []byte
}

// ExportResult is a serialized workbook ready to be written or streamed.
type ExportResult struct {
	FileName string   `json:"file_name"`
	Sheets   []string `json:"sheets"`
	Data     []byte   `json:"-"`
}

// ReportService orchestrates report runs: reading input files, the report
// pipeline, batch fan-out, the result cache and workbook export.
type ReportService struct {
	cfg      config.ReportConfig
	pipeline *dataprocessing.Pipeline
	writer   *exporter.WorkbookWriter
	cache    cache.ResultCache
	metrics  *infrastructure.ReportMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewReportService creates a report service. resultCache and providers may be nil.
func NewReportService(cfg config.ReportConfig, resultCache cache.ResultCache, providers *infrastructure.OTelProviders, logger *slog.Logger) (*ReportService, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	svcLogger := infrastructure.WithComponent(logger, "report_service")

	tracer := tracenoop.NewTracerProvider().Tracer(TracerName)
	metrics := infrastructure.NoopReportMetrics()
	if providers != nil {
		tracer = providers.Tracer
		m, err := infrastructure.CreateReportMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create report metrics: %w", err)
		}
		metrics = m
	}

	svcLogger.Info("ReportService initialized",
		slog.String("default_kind", cfg.DefaultKind),
		slog.Bool("cache_enabled", resultCache != nil),
		slog.Int("batch_parallelism", cfg.BatchParallelism))

	return &ReportService{
		cfg:      cfg,
		pipeline: dataprocessing.NewPipeline(logger),
		writer:   exporter.NewWorkbookWriter(logger),
		cache:    resultCache,
		metrics:  metrics,
		tracer:   tracer,
		logger:   svcLogger,
	}, nil
}

// Options returns the configured defaults for kind.
func (s *ReportService) Options(kind string) dataprocessing.ReportOptions {
	return dataprocessing.DefaultReportOptions(s.cfg, kind)
}

// Generate builds the report for a single file, consulting the cache first.
func (s *ReportService) Generate(ctx context.Context, file InputFile, opts dataprocessing.ReportOptions) (*domain.Report, error) {
	ctx, span := s.tracer.Start(ctx, "report.generate",
		trace.WithAttributes(
			attribute.String("report.kind", opts.Kind),
			attribute.String("report.file", file.Name),
			attribute.Int("report.file_bytes", len(file.Data)),
		))
	defer span.End()

	if _, err := opts.Validate(); err != nil {
		s.fail(ctx, span, opts.Kind, err)
		return nil, err
	}

	key := ""
	if s.cache != nil {
		key = cache.Key(file.Data, opts.Fingerprint())
		if cached, ok := s.cache.Get(ctx, key); ok {
			cached.Cached = true
			// The key covers content only; the scope follows the requesting file.
			cached.Scope = scopeOf(file.Name)
			s.metrics.RecordCacheHit(ctx, opts.Kind)
			span.SetAttributes(attribute.Bool("report.cached", true))
			s.logger.InfoContext(ctx, "report served from cache",
				slog.String("file", file.Name),
				slog.String("kind", opts.Kind))
			return cached, nil
		}
	}

	start := time.Now()
	loaded, err := s.load(ctx, file, opts)
	if err != nil {
		s.fail(ctx, span, opts.Kind, err)
		return nil, err
	}

	report, err := s.pipeline.Build(ctx, scopeOf(file.Name), opts, loaded)
	if err != nil {
		s.fail(ctx, span, opts.Kind, err)
		return nil, err
	}
	s.record(ctx, span, report, time.Since(start))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report); err != nil {
			s.logger.WarnContext(ctx, "failed to cache report",
				slog.String("file", file.Name),
				slog.String("error", err.Error()))
		}
	}

	return report, nil
}

// GenerateBatch builds one report per file and, when more than one file loaded,
// a Combined report over all of their records. A failing file never aborts its
// siblings; the error return is set only for invalid options or when every
// file failed.
func (s *ReportService) GenerateBatch(ctx context.Context, files []InputFile, opts dataprocessing.ReportOptions) (*domain.BatchResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if _, err := opts.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "report.batch",
		trace.WithAttributes(
			attribute.String("report.kind", opts.Kind),
			attribute.Int("report.files", len(files)),
		))
	defer span.End()

	result := &domain.BatchResult{
		Kind:  opts.Kind,
		Files: make([]domain.FileResult, len(files)),
	}
	errs := make([]error, len(files))

	if len(files) == 1 {
		report, err := s.Generate(ctx, files[0], opts)
		result.Files[0] = fileResult(files[0].Name, report, err)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return result, fmt.Errorf("%w: %w", ErrAllFilesFailed, err)
		}
		return result, nil
	}

	loaded := make([]*dataprocessing.LoadResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism())
	for i, file := range files {
		g.Go(func() error {
			start := time.Now()
			fileCtx, fileSpan := s.tracer.Start(gctx, "report.generate",
				trace.WithAttributes(
					attribute.String("report.kind", opts.Kind),
					attribute.String("report.file", file.Name),
				))
			defer fileSpan.End()

			lr, err := s.load(fileCtx, file, opts)
			if err == nil {
				var report *domain.Report
				report, err = s.pipeline.Build(fileCtx, scopeOf(file.Name), opts, lr)
				if err == nil {
					loaded[i] = lr
					s.record(fileCtx, fileSpan, report, time.Since(start))
					result.Files[i] = fileResult(file.Name, report, nil)
					return nil
				}
			}
			s.fail(fileCtx, fileSpan, opts.Kind, err)
			errs[i] = err
			result.Files[i] = fileResult(file.Name, nil, err)
			return nil
		})
	}
	// Workers report per-file failures through errs, never through the group.
	_ = g.Wait()

	var ok []*dataprocessing.LoadResult
	for _, lr := range loaded {
		if lr != nil {
			ok = append(ok, lr)
		}
	}

	span.SetAttributes(attribute.Int("report.files_succeeded", len(ok)))
	s.logger.InfoContext(ctx, "batch finished",
		slog.String("kind", opts.Kind),
		slog.Int("files", len(files)),
		slog.Int("succeeded", len(ok)))

	if len(ok) == 0 {
		err := errors.Join(errs...)
		span.SetStatus(codes.Error, "every file failed")
		return result, fmt.Errorf("%w: %w", ErrAllFilesFailed, err)
	}

	if len(ok) > 1 {
		start := time.Now()
		combined, err := s.pipeline.Build(ctx, domain.ReportScopeCombined, opts, ok...)
		if err != nil {
			s.fail(ctx, span, opts.Kind, err)
			return result, fmt.Errorf("combined report: %w", err)
		}
		// Rows were already counted per file.
		s.metrics.RecordReport(ctx, combined.Kind, 0, 0, time.Since(start))
		span.SetAttributes(attribute.Int("report.combined_rows", combined.RowsLoaded))
		result.Combined = combined
	}

	return result, nil
}

// Export serializes the tables of report into a workbook. Tables without data
// are skipped and sheet names are made unique.
func (s *ReportService) Export(ctx context.Context, report *domain.Report) (*ExportResult, error) {
	_, span := s.tracer.Start(ctx, "report.export",
		trace.WithAttributes(
			attribute.String("report.kind", report.Kind),
			attribute.String("report.scope", report.Scope),
		))
	defer span.End()

	kind, ok := dataprocessing.LookupKind(report.Kind)
	if !ok {
		err := apperrors.NewNotFoundError(fmt.Sprintf("report kind %q", report.Kind))
		s.fail(ctx, span, report.Kind, err)
		return nil, err
	}

	set := exportTables(report.Tables)
	if set.Len() == 0 {
		err := apperrors.NewEmptyResultError("no table has data to export")
		s.fail(ctx, span, report.Kind, err)
		return nil, err
	}

	data, err := s.writer.Write(set)
	if err != nil {
		s.fail(ctx, span, report.Kind, err)
		return nil, err
	}

	s.metrics.RecordExport(ctx, report.Kind, len(data))
	span.SetAttributes(
		attribute.Int("export.bytes", len(data)),
		attribute.Int("export.sheets", set.Len()),
	)

	return &ExportResult{
		FileName: exporter.FileName(kind.FileLabel, report.Scope, report.GeneratedAt),
		Sheets:   set.Names(),
		Data:     data,
	}, nil
}

func (s *ReportService) load(ctx context.Context, file InputFile, opts dataprocessing.ReportOptions) (*dataprocessing.LoadResult, error) {
	ctx, span := s.tracer.Start(ctx, "report.load",
		trace.WithAttributes(attribute.String("report.file", file.Name)))
	defer span.End()

	raw, err := dataprocessing.ReadTable(bytes.NewReader(file.Data), file.Name)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	loaded, err := s.pipeline.Load(ctx, raw, opts)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("report.rows", len(raw.Rows)),
		attribute.Int("report.records", len(loaded.Records)),
		attribute.Int("report.parse_failures", loaded.ParseFailures),
	)
	return loaded, nil
}

func (s *ReportService) record(ctx context.Context, span trace.Span, report *domain.Report, elapsed time.Duration) {
	excluded := report.RowsLoaded - report.RowsRetained
	s.metrics.RecordReport(ctx, report.Kind, report.RowsLoaded, excluded, elapsed)
	span.SetAttributes(
		attribute.String("report.scope", report.Scope),
		attribute.Int("report.rows_loaded", report.RowsLoaded),
		attribute.Int("report.rows_retained", report.RowsRetained),
		attribute.Int("report.tables", report.Tables.Len()),
	)
}

func (s *ReportService) fail(ctx context.Context, span trace.Span, kind string, err error) {
	errType := string(apperrors.TypeOf(err))
	if errType == "" {
		errType = "UNKNOWN"
	}
	s.metrics.RecordError(ctx, kind, errType)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.WarnContext(ctx, "report failed",
		slog.String("kind", kind),
		slog.String("error_type", errType),
		slog.String("error", err.Error()))
}

func (s *ReportService) parallelism() int {
	if s.cfg.BatchParallelism > 0 {
		return s.cfg.BatchParallelism
	}
	return 1
}

func fileResult(name string, report *domain.Report, err error) domain.FileResult {
	if err != nil {
		return domain.FileResult{File: name, Error: err.Error()}
	}
	return domain.FileResult{File: name, Report: report}
}

func scopeOf(name string) string {
	return (&dataprocessing.RawTable{Source: name}).Scope()
}

// exportTables drops tables without data and suffixes repeated sheet names
// with " (2)", " (3)" and so on.
func exportTables(tables domain.NamedTableSet) domain.NamedTableSet {
	var out domain.NamedTableSet
	taken := make(map[string]bool)
	for _, t := range tables.Tables {
		if t.NoData || len(t.Rows) == 0 {
			continue
		}
		base := exporter.SanitizeSheetName(t.Name)
		name := base
		for n := 2; taken[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncateRunes(base, exporter.MaxSheetNameLength-len(suffix)) + suffix
		}
		taken[strings.ToLower(name)] = true
		t.Name = name
		out.Add(t)
	}
	return out
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
