package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"remarkcli/internal/cache"
	"remarkcli/internal/config"
	"remarkcli/internal/dataprocessing"
	apperrors "remarkcli/internal/errors"
	"remarkcli/internal/exporter"
	"remarkcli/internal/infrastructure"
	"remarkcli/internal/services"
	"remarkcli/pkg/contracts"
	"remarkcli/pkg/contracts/domain"
)

// Exit codes
const (
	exitOK        = 0
	exitAllFailed = 1
	exitUsage     = 2
)

// Output formats
const (
	formatXLSX = "xlsx"
	formatCSV  = "csv"
	formatNone = "none"
)

type cliFlags struct {
	kind             string
	out              string
	configFile       string
	percent          string
	buckets          string
	manualCorrection bool
	dedupePTP        bool
	excludeWeekday   string
	combined         bool
	format           string
	print            bool
	verbose          bool
	version          bool

	// set records which flags appeared on the command line
	set   map[string]bool
	files []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{set: make(map[string]bool)}

	fs := flag.NewFlagSet("remark-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.kind, "kind", "", "report kind (defaults to report.default_kind)")
	fs.StringVar(&f.out, "out", "", "output directory (defaults to report.output_dir)")
	fs.StringVar(&f.configFile, "config", "", "path to a YAML config file (defaults to REMARK_CONFIG_FILE or configs/config.yaml)")
	fs.StringVar(&f.percent, "percent", "", "percent preset: integer or two_decimal")
	fs.StringVar(&f.buckets, "buckets", "", "balance bucket preset: standard or fine")
	fs.BoolVar(&f.manualCorrection, "manual-correction", false, "override the kind's manual dialing correction")
	fs.BoolVar(&f.dedupePTP, "dedupe-ptp", false, "count one PTP per account and day")
	fs.StringVar(&f.excludeWeekday, "exclude-weekday", "", "drop rows dated on this weekday (name, or 0=Monday to 6=Sunday)")
	fs.BoolVar(&f.combined, "combined", true, "also write the Combined report when more than one file loads")
	fs.StringVar(&f.format, "format", formatXLSX, "output format: xlsx, csv or none")
	fs.BoolVar(&f.print, "print", false, "print every table to stdout")
	fs.BoolVar(&f.verbose, "v", false, "verbose logging")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: remark-report [flags] FILE...\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	f.files = fs.Args()

	switch f.format {
	case formatXLSX, formatCSV, formatNone:
	default:
		return nil, fmt.Errorf("invalid -format %q", f.format)
	}
	if !f.version && len(f.files) == 0 {
		fs.Usage()
		return nil, errors.New("no input files")
	}
	return f, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "remark-report: %v\n", err)
		}
		return exitUsage
	}
	if flags.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}

	load := config.Load
	if flags.configFile != "" {
		load = func() (*config.Config, error) { return config.LoadFrom(flags.configFile) }
	}
	cfg, err := load()
	if err != nil {
		fmt.Fprintf(stderr, "remark-report: %v\n", err)
		return exitUsage
	}

	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelInfo
	}
	logger := infrastructure.NewJSONLogger(stderr, &slog.HandlerOptions{Level: level})

	var resultCache cache.ResultCache
	if cfg.Cache.EnableRedis {
		if resultCache, err = cache.New(cfg.Cache, logger); err != nil {
			fmt.Fprintf(stderr, "remark-report: %v\n", err)
			return exitUsage
		}
		defer resultCache.(*cache.RedisCache).Close()
	}

	svc, err := services.NewReportService(cfg.Report, resultCache, nil, logger)
	if err != nil {
		fmt.Fprintf(stderr, "remark-report: %v\n", err)
		return exitUsage
	}

	opts, err := reportOptions(svc, cfg, flags)
	if err == nil {
		_, err = opts.Validate()
	}
	if err != nil {
		fmt.Fprintf(stderr, "remark-report: %v\n", err)
		return exitUsage
	}

	outDir := flags.out
	if outDir == "" {
		outDir = cfg.Report.OutputDir
	}
	writer := &outputWriter{
		svc:    svc,
		files:  exporter.NewFileWriter(outDir, logger),
		format: flags.format,
		print:  flags.print,
		stdout: stdout,
	}

	ctx := infrastructure.EnsureTraceID(context.Background())
	inputs, failed := readInputs(flags.files, stdout)
	if len(inputs) == 0 {
		return exitAllFailed
	}

	result, err := svc.GenerateBatch(ctx, inputs, opts)
	if err != nil && !errors.Is(err, services.ErrAllFilesFailed) {
		fmt.Fprintf(stderr, "remark-report: %v\n", err)
		return exitUsage
	}

	succeeded := 0
	for _, fr := range result.Files {
		if fr.Report == nil {
			status(stdout, "FAILED", fr.File, fr.Error)
			failed++
			continue
		}
		succeeded++
		writer.report(ctx, fr.File, fr.Report)
	}

	if flags.combined && result.Combined != nil {
		writer.report(ctx, domain.ReportScopeCombined, result.Combined)
	}

	if succeeded == 0 {
		return exitAllFailed
	}
	if failed > 0 {
		logger.Warn("some files failed", slog.Int("failed", failed), slog.Int("succeeded", succeeded))
	}
	return exitOK
}

// reportOptions applies command-line overrides on top of the kind's defaults.
func reportOptions(svc *services.ReportService, cfg *config.Config, flags *cliFlags) (dataprocessing.ReportOptions, error) {
	kind := flags.kind
	if kind == "" {
		kind = cfg.Report.DefaultKind
	}
	opts := svc.Options(kind)

	if flags.percent != "" {
		opts.PercentPreset = flags.percent
	}
	if flags.buckets != "" {
		opts.BucketPreset = flags.buckets
	}
	if flags.set["manual-correction"] {
		mc := flags.manualCorrection
		opts.ManualCorrection = &mc
	}
	if flags.set["dedupe-ptp"] {
		opts.DedupePTP = flags.dedupePTP
	}
	if flags.excludeWeekday != "" {
		day, err := dataprocessing.ParseWeekday(flags.excludeWeekday)
		if err != nil {
			return opts, err
		}
		opts.ExcludedWeekday = &day
	}
	return opts, nil
}

// readInputs reads every path. Unreadable files get a status line and are
// counted as failed.
func readInputs(paths []string, stdout io.Writer) ([]services.InputFile, int) {
	inputs := make([]services.InputFile, 0, len(paths))
	failed := 0
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			status(stdout, "FAILED", p, err.Error())
			failed++
			continue
		}
		inputs = append(inputs, services.InputFile{Name: filepath.Base(p), Data: data})
	}
	return inputs, failed
}

func status(w io.Writer, state, name, detail string) {
	fmt.Fprintf(w, "%-7s %s: %s\n", state, name, detail)
}

// outputWriter writes each report in the selected format and prints its status line
type outputWriter struct {
	svc    *services.ReportService
	files  *exporter.FileWriter
	format string
	print  bool
	stdout io.Writer
}

func (o *outputWriter) report(ctx context.Context, name string, report *domain.Report) {
	paths, err := o.write(ctx, report)
	switch {
	case apperrors.IsType(err, apperrors.ErrTypeEmptyResult):
		status(o.stdout, "OK", name, summary(report)+", no data to write")
	case err != nil:
		status(o.stdout, "ERROR", name, err.Error())
	case len(paths) == 0:
		status(o.stdout, "OK", name, summary(report))
	default:
		status(o.stdout, "OK", name, summary(report)+" -> "+strings.Join(paths, ", "))
	}

	if o.print {
		for _, t := range report.Tables.Tables {
			exporter.RenderText(o.stdout, t)
			fmt.Fprintln(o.stdout)
		}
	}
}

func (o *outputWriter) write(ctx context.Context, report *domain.Report) ([]string, error) {
	switch o.format {
	case formatXLSX:
		exported, err := o.svc.Export(ctx, report)
		if err != nil {
			return nil, err
		}
		path, err := o.files.Save(exported.FileName, exported.Data)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil

	case formatCSV:
		kind, ok := dataprocessing.LookupKind(report.Kind)
		if !ok {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("report kind %q", report.Kind))
		}
		var paths []string
		for _, t := range report.Tables.Tables {
			if t.NoData {
				continue
			}
			path, err := o.files.WriteCSV(exporter.CSVFileName(kind.FileLabel, report.Scope, t.Name, report.GeneratedAt), t)
			if err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
		if len(paths) == 0 {
			return nil, apperrors.NewEmptyResultError("no table has data")
		}
		return paths, nil
	}
	return nil, nil
}

func summary(report *domain.Report) string {
	s := fmt.Sprintf("%d rows, %d retained, %d tables", report.RowsLoaded, report.RowsRetained, report.Tables.Len())
	if n := len(report.Warnings); n > 0 {
		s += fmt.Sprintf(", %d warnings", n)
	}
	if report.Cached {
		s += ", cached"
	}
	return s
}
