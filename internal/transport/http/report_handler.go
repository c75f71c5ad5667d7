package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"remarkcli/internal/dataprocessing"
	apierrors "remarkcli/internal/errors"
	customMiddleware "remarkcli/internal/middleware"
	"remarkcli/internal/services"
	"remarkcli/pkg/contracts/domain"
)

const (
	// FileField is the multipart field carrying input files
	FileField = "file"

	// CacheHeader reports whether every report in the response came from the cache
	CacheHeader = "X-Cache"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	multipartMemory = 32 << 20
)

// reportQuery holds the query parameters accepted by the report endpoints
type reportQuery struct {
	Percent          string `query:"percent" validate:"omitempty,oneof=integer two_decimal"`
	Buckets          string `query:"buckets" validate:"omitempty,oneof=standard fine"`
	ManualCorrection string `query:"manual_correction" validate:"omitempty,oneof=true false 1 0"`
	DedupePTP        string `query:"dedupe_ptp" validate:"omitempty,oneof=true false 1 0"`
	ExcludeWeekday   string `query:"exclude_weekday"`
	Scope            string `query:"scope" validate:"omitempty,max=255"`
}

// ReportHandler serves report generation and export over HTTP
type ReportHandler struct {
	service      ReportServiceInterface
	validator    *customMiddleware.RequestValidator
	maxFiles     int
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, maxFiles int, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		validator:    customMiddleware.NewRequestValidator(logger),
		maxFiles:     maxFiles,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/kinds", h.ListKinds)

	r.Route("/{kind}", func(r chi.Router) {
		r.Use(h.KindCtx)
		r.Use(customMiddleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"))
		r.Post("/", h.Generate)
		r.Post("/export", h.Export)
	})

	return r
}

// KindCtx rejects unknown report kinds before the upload is read
func (h *ReportHandler) KindCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind := chi.URLParam(r, "kind")
		if _, ok := dataprocessing.LookupKind(kind); !ok {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				apierrors.ErrReportKindNotFound.ErrorCode,
				fmt.Sprintf("Unknown report kind %q", kind),
				map[string]interface{}{"kind": kind},
			))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListKinds handles GET /api/reports/kinds
func (h *ReportHandler) ListKinds(w http.ResponseWriter, r *http.Request) {
	kinds := dataprocessing.Kinds()
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   kinds,
		"count":  len(kinds),
	})
}

// Generate handles POST /api/reports/{kind}
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	result, _, ok := h.run(w, r)
	if !ok {
		return
	}

	w.Header().Set(CacheHeader, cacheStatus(result))
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// Export handles POST /api/reports/{kind}/export. A single upload exports its
// own report; several uploads export the Combined report unless scope names one.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	result, q, ok := h.run(w, r)
	if !ok {
		return
	}

	report, err := selectReport(result, q.Scope)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	exported, err := h.service.Export(r.Context(), report)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "report exported",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("file_name", exported.FileName),
		slog.Int("sheets", len(exported.Sheets)),
		slog.Int("bytes", len(exported.Data)),
	)

	cached := "MISS"
	if report.Cached {
		cached = "HIT"
	}
	w.Header().Set(CacheHeader, cached)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exported.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(exported.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(exported.Data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write export", slog.String("error", err.Error()))
	}
}

// run parses the request and builds the batch. It writes the error response
// itself and reports false when the handler should stop.
func (h *ReportHandler) run(w http.ResponseWriter, r *http.Request) (*domain.BatchResult, reportQuery, bool) {
	reqID := middleware.GetReqID(r.Context())
	kind := chi.URLParam(r, "kind")

	q := parseQuery(r)
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, q, false
	}

	opts, err := h.options(kind, q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, q, false
	}

	files, err := h.readFiles(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, q, false
	}

	h.logger.InfoContext(r.Context(), "generating report",
		slog.String("request_id", reqID),
		slog.String("kind", kind),
		slog.Int("files", len(files)),
	)

	result, err := h.service.GenerateBatch(r.Context(), files, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "report generation failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, batchError(err, result))
		return nil, q, false
	}

	return result, q, true
}

func parseQuery(r *http.Request) reportQuery {
	v := r.URL.Query()
	return reportQuery{
		Percent:          v.Get("percent"),
		Buckets:          v.Get("buckets"),
		ManualCorrection: strings.ToLower(v.Get("manual_correction")),
		DedupePTP:        strings.ToLower(v.Get("dedupe_ptp")),
		ExcludeWeekday:   v.Get("exclude_weekday"),
		Scope:            v.Get("scope"),
	}
}

// options applies the query overrides on top of the kind's defaults
func (h *ReportHandler) options(kind string, q reportQuery) (dataprocessing.ReportOptions, error) {
	opts := h.service.Options(kind)
	if q.Percent != "" {
		opts.PercentPreset = q.Percent
	}
	if q.Buckets != "" {
		opts.BucketPreset = q.Buckets
	}
	if q.ManualCorrection != "" {
		mc, _ := strconv.ParseBool(q.ManualCorrection)
		opts.ManualCorrection = &mc
	}
	if q.DedupePTP != "" {
		opts.DedupePTP, _ = strconv.ParseBool(q.DedupePTP)
	}
	if q.ExcludeWeekday != "" {
		day, err := dataprocessing.ParseWeekday(q.ExcludeWeekday)
		if err != nil {
			return opts, apierrors.ErrValidation("exclude_weekday", err.Error())
		}
		opts.ExcludedWeekday = &day
	}
	return opts, nil
}

func (h *ReportHandler) readFiles(r *http.Request) ([]services.InputFile, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return nil, apierrors.ErrPayloadTooLarge
		}
		return nil, apierrors.InvalidRequestWithError(err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[FileField]
	if len(headers) == 0 {
		return nil, apierrors.ErrMissingFile
	}
	if h.maxFiles > 0 && len(headers) > h.maxFiles {
		return nil, apierrors.ErrValidation(FileField, fmt.Sprintf("at most %d files may be uploaded", h.maxFiles))
	}

	files := make([]services.InputFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, apierrors.InvalidRequestWithError(err)
		}
		files = append(files, services.InputFile{Name: fh.Filename, Data: data})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// batchError surfaces the first file's failure with every file's outcome attached.
func batchError(err error, result *domain.BatchResult) error {
	if result == nil || !errors.Is(err, services.ErrAllFilesFailed) {
		return err
	}
	apiErr := apierrors.FromAppError(err)
	if apiErr == nil {
		apiErr = apierrors.ErrUnprocessableEntity
	}
	return apierrors.NewWithDetails(apiErr.StatusCode, apiErr.ErrorCode, apiErr.Message,
		map[string]interface{}{"files": result.Files})
}

// selectReport picks the report an export request refers to
func selectReport(result *domain.BatchResult, scope string) (*domain.Report, error) {
	if scope == "" {
		if result.Combined != nil {
			return result.Combined, nil
		}
		for _, f := range result.Files {
			if f.Report != nil {
				return f.Report, nil
			}
		}
		return nil, apierrors.ErrUnprocessableEntity
	}

	if strings.EqualFold(scope, domain.ReportScopeCombined) {
		if result.Combined == nil {
			return nil, apierrors.NotFoundError("combined report")
		}
		return result.Combined, nil
	}

	for _, f := range result.Files {
		if f.Report == nil || f.Report.Scope != scope {
			continue
		}
		return f.Report, nil
	}
	for _, f := range result.Files {
		if f.Error != "" && (&dataprocessing.RawTable{Source: f.File}).Scope() == scope {
			return nil, apierrors.NewWithDetails(http.StatusUnprocessableEntity,
				apierrors.ErrUnprocessableEntity.ErrorCode, "Report for this scope failed", f.Error)
		}
	}
	return nil, apierrors.NotFoundError(fmt.Sprintf("report scope %q", scope))
}

// cacheStatus is HIT only when every produced report came from the cache.
func cacheStatus(result *domain.BatchResult) string {
	hit := false
	for _, f := range result.Files {
		if f.Report == nil {
			continue
		}
		if !f.Report.Cached {
			return "MISS"
		}
		hit = true
	}
	if hit {
		return "HIT"
	}
	return "MISS"
}
