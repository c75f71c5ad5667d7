package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "remarkcli/internal/errors"
	"remarkcli/pkg/contracts/domain"
)

// Pipeline runs load, exclusion, aggregation and formatting for one scope.
// It holds no state between runs and is safe for concurrent use.
type Pipeline struct {
	logger     *slog.Logger
	aggregator *Aggregator
	now        func() time.Time
}

// NewPipeline creates a report pipeline
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger.With("component", "pipeline"),
		aggregator: NewAggregator(logger),
		now:        time.Now,
	}
}

// Load types the rows of raw for the report described by opts.
func (p *Pipeline) Load(ctx context.Context, raw *RawTable, opts ReportOptions) (*LoadResult, error) {
	kind, err := opts.Validate()
	if err != nil {
		return nil, err
	}

	result, err := LoadRecords(raw, LoadOptions{
		Required:        kind.Requirements(),
		ExcludedWeekday: opts.ExcludedWeekday,
	})
	if err != nil {
		p.logger.WarnContext(ctx, "failed to load records",
			slog.String("source", raw.Source),
			slog.String("error", err.Error()))
		return nil, err
	}

	p.logger.InfoContext(ctx, "loaded records",
		slog.String("source", raw.Source),
		slog.Int("rows", len(raw.Rows)),
		slog.Int("records", len(result.Records)),
		slog.Int("parse_failures", result.ParseFailures),
		slog.Int("weekday_drops", result.WeekdayDrops))

	for _, w := range result.Warnings {
		p.logger.DebugContext(ctx, "parse warning",
			slog.String("source", raw.Source),
			slog.Int("row", w.Row),
			slog.String("column", w.Column),
			slog.String("value", w.Value))
	}

	return result, nil
}

// Run is Load followed by Build for a single file.
func (p *Pipeline) Run(ctx context.Context, raw *RawTable, opts ReportOptions) (*domain.Report, error) {
	loaded, err := p.Load(ctx, raw, opts)
	if err != nil {
		return nil, err
	}
	return p.Build(ctx, raw.Scope(), opts, loaded)
}

// Build filters and aggregates loaded records into a formatted report.
// Several LoadResults may be passed to build a combined report.
func (p *Pipeline) Build(ctx context.Context, scope string, opts ReportOptions, loaded ...*LoadResult) (*domain.Report, error) {
	kind, err := opts.Validate()
	if err != nil {
		return nil, err
	}

	rules, err := NewExclusionRules(opts.Exclusions)
	if err != nil {
		return nil, err
	}

	buckets, err := BucketPreset(opts.BucketPreset)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}

	formatter, err := NewFormatter(opts.PercentPreset)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}

	var records []domain.RemarkRecord
	var warnings []domain.Warning
	for _, l := range loaded {
		records = append(records, l.Records...)
		warnings = append(warnings, l.Warnings...)
	}

	filtered := rules.Apply(records)

	attrs := []any{
		slog.String("scope", scope),
		slog.String("kind", kind.Name),
		slog.Int("records", len(records)),
		slog.Int("retained", len(filtered.Retained)),
	}
	for rule, n := range filtered.Excluded {
		attrs = append(attrs, slog.Int("excluded_"+string(rule), n))
	}
	p.logger.InfoContext(ctx, "applied exclusion rules", attrs...)

	summaries := p.aggregator.Aggregate(ctx, filtered.Retained, AggregateOptions{
		TableName:        kind.Title,
		RowKey:           kind.RowKey,
		SplitKey:         kind.SplitKey,
		AllowList:        kind.AllowList,
		ManualCorrection: opts.manualCorrection(kind),
		DedupePTP:        opts.DedupePTP,
		DropCallMarker:   opts.DropCallMarker,
		Buckets:          buckets,
		TotalRow:         kind.TotalRow,
	})

	report := &domain.Report{
		ID:           uuid.New().String(),
		Kind:         kind.Name,
		Scope:        scope,
		GeneratedAt:  p.now().UTC(),
		RowsLoaded:   len(records),
		RowsRetained: len(filtered.Retained),
		Warnings:     warnings,
	}

	formatOpts := FormatOptions{
		PercentPreset: opts.PercentPreset,
		RowKey:        kind.RowKey,
		CallTypeMix:   kind.CallTypeMix,
		Title:         kind.Title,
	}
	for _, s := range summaries {
		if s.Empty {
			report.Warnings = append(report.Warnings, domain.Warning{
				Type:    domain.WarningEmptyResult,
				Message: "no rows left after filtering for " + s.Name,
			})
		}
		report.Tables.Add(formatter.Table(s, formatOpts))
	}

	return report, nil
}
