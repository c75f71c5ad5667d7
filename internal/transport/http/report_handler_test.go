package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"remarkcli/internal/config"
	"remarkcli/internal/dataprocessing"
	apierrors "remarkcli/internal/errors"
	"remarkcli/internal/services"
	"remarkcli/pkg/contracts/domain"
)

const goodCSV = `Date,Account No.,Remark By,Remark Type,Status,Call Status,PTP Amount,Balance,Talk Time Duration,Card No.
2024-01-15,A1,AGENT01,Predictive,PTP,CONNECTED,500,7000,60,7
2024-01-15,A2,AGENT02,Outgoing,NO ANSWER,,0,8000,0,9
`

const badCSV = `Date,Remark By
2024-01-15,AGENT01
`

// MockReportService is a mock implementation of ReportServiceInterface
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Options(kind string) dataprocessing.ReportOptions {
	return dataprocessing.DefaultReportOptions(config.Default().Report, kind)
}

func (m *MockReportService) GenerateBatch(ctx context.Context, files []services.InputFile, opts dataprocessing.ReportOptions) (*domain.BatchResult, error) {
	args := m.Called(files, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

func (m *MockReportService) Export(ctx context.Context, report *domain.Report) (*services.ExportResult, error) {
	args := m.Called(report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExportResult), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(t *testing.T, svc ReportServiceInterface, maxFiles int) http.Handler {
	t.Helper()
	h := NewReportHandler(svc, maxFiles, testLogger(), apierrors.NewErrorHandler(testLogger(), false))
	r := chi.NewRouter()
	r.Mount("/api/reports", h.Routes())
	return r
}

func realRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, err := services.NewReportService(config.Default().Report, nil, nil, testLogger())
	require.NoError(t, err)
	return newRouter(t, svc, config.DefaultMaxFiles)
}

type upload struct {
	name    string
	content string
}

func uploadRequest(t *testing.T, target string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile(FileField, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestReportHandler_ListKinds(t *testing.T) {
	rec := serve(realRouter(t), httptest.NewRequest(http.MethodGet, "/api/reports/kinds", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, len(dataprocessing.Kinds()), body["count"])

	kinds := body["data"].([]interface{})
	assert.Equal(t, "balance", kinds[0].(map[string]interface{})["name"])
}

func TestReportHandler_RequestErrors(t *testing.T) {
	router := realRouter(t)

	jsonReq := httptest.NewRequest(http.MethodPost, "/api/reports/daily", strings.NewReader("{}"))
	jsonReq.Header.Set("Content-Type", "application/json")

	tests := []struct {
		name      string
		req       *http.Request
		wantCode  int
		wantError string
	}{
		{
			name:      "unknown kind",
			req:       uploadRequest(t, "/api/reports/weekly", upload{"jan.csv", goodCSV}),
			wantCode:  http.StatusNotFound,
			wantError: "REPORT_KIND_NOT_FOUND",
		},
		{
			name:      "not multipart",
			req:       jsonReq,
			wantCode:  http.StatusUnsupportedMediaType,
			wantError: "UNSUPPORTED_MEDIA_TYPE",
		},
		{
			name:      "no files",
			req:       uploadRequest(t, "/api/reports/daily"),
			wantCode:  http.StatusBadRequest,
			wantError: "MISSING_FILE",
		},
		{
			name:      "bad percent preset",
			req:       uploadRequest(t, "/api/reports/daily?percent=half", upload{"jan.csv", goodCSV}),
			wantCode:  http.StatusBadRequest,
			wantError: "VALIDATION_FAILED",
		},
		{
			name:      "bad weekday",
			req:       uploadRequest(t, "/api/reports/daily?exclude_weekday=funday", upload{"jan.csv", goodCSV}),
			wantCode:  http.StatusBadRequest,
			wantError: "VALIDATION_FAILED",
		},
		{
			name:      "missing columns",
			req:       uploadRequest(t, "/api/reports/daily", upload{"bad.csv", badCSV}),
			wantCode:  http.StatusUnprocessableEntity,
			wantError: "SCHEMA_ERROR",
		},
		{
			name:      "unsupported file type",
			req:       uploadRequest(t, "/api/reports/daily", upload{"jan.txt", goodCSV}),
			wantCode:  http.StatusUnprocessableEntity,
			wantError: "PARSE_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantError, decodeJSON(t, rec)["error_code"])
		})
	}
}

func TestReportHandler_AllFilesFailedListsFiles(t *testing.T) {
	rec := serve(realRouter(t), uploadRequest(t, "/api/reports/daily",
		upload{"a.csv", badCSV}, upload{"b.csv", badCSV}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	details := decodeJSON(t, rec)["details"].(map[string]interface{})
	files := details["files"].([]interface{})
	require.Len(t, files, 2)
	assert.Equal(t, "a.csv", files[0].(map[string]interface{})["file"])
	assert.NotEmpty(t, files[1].(map[string]interface{})["error"])
}

func TestReportHandler_TooManyFiles(t *testing.T) {
	svc, err := services.NewReportService(config.Default().Report, nil, nil, testLogger())
	require.NoError(t, err)
	router := newRouter(t, svc, 1)

	rec := serve(router, uploadRequest(t, "/api/reports/daily",
		upload{"jan.csv", goodCSV}, upload{"feb.csv", goodCSV}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportHandler_Generate(t *testing.T) {
	rec := serve(realRouter(t), uploadRequest(t, "/api/reports/cycle",
		upload{"jan.csv", goodCSV}, upload{"feb.csv", goodCSV}, upload{"broken.csv", badCSV}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get(CacheHeader))

	var body struct {
		Status string             `json:"status"`
		Data   domain.BatchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "cycle", body.Data.Kind)
	require.Len(t, body.Data.Files, 3)
	assert.Equal(t, 2, body.Data.Succeeded())
	assert.NotEmpty(t, body.Data.Files[2].Error)

	require.NotNil(t, body.Data.Combined)
	assert.Equal(t, domain.ReportScopeCombined, body.Data.Combined.Scope)
	assert.Equal(t, []string{"Cycle 7", "Cycle 9"}, body.Data.Combined.Tables.Names())
}

func TestReportHandler_Export(t *testing.T) {
	router := realRouter(t)
	today := time.Now().Format("20060102")

	tests := []struct {
		name     string
		target   string
		files    []upload
		wantFile string
		wantCode int
	}{
		{
			name:     "single file",
			target:   "/api/reports/daily/export",
			files:    []upload{{"jan.csv", goodCSV}},
			wantFile: "DailySummary_jan_" + today + ".xlsx",
			wantCode: http.StatusOK,
		},
		{
			name:     "combined by default",
			target:   "/api/reports/daily/export",
			files:    []upload{{"jan.csv", goodCSV}, {"feb.csv", goodCSV}},
			wantFile: "DailySummary_Combined_" + today + ".xlsx",
			wantCode: http.StatusOK,
		},
		{
			name:     "named scope",
			target:   "/api/reports/daily/export?scope=feb",
			files:    []upload{{"jan.csv", goodCSV}, {"feb.csv", goodCSV}},
			wantFile: "DailySummary_feb_" + today + ".xlsx",
			wantCode: http.StatusOK,
		},
		{
			name:     "failed scope",
			target:   "/api/reports/daily/export?scope=broken",
			files:    []upload{{"jan.csv", goodCSV}, {"broken.csv", badCSV}},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "unknown scope",
			target:   "/api/reports/daily/export?scope=mar",
			files:    []upload{{"jan.csv", goodCSV}},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, uploadRequest(t, tt.target, tt.files...))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}

			assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="`+tt.wantFile+`"`, rec.Header().Get("Content-Disposition"))

			f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, []string{"Daily Remark Summary"}, f.GetSheetList())
		})
	}
}

func TestReportHandler_QueryOverrides(t *testing.T) {
	svc := new(MockReportService)
	router := newRouter(t, svc, 0)

	svc.On("GenerateBatch",
		mock.MatchedBy(func(files []services.InputFile) bool {
			return len(files) == 1 && files[0].Name == "jan.csv" && string(files[0].Data) == goodCSV
		}),
		mock.MatchedBy(func(opts dataprocessing.ReportOptions) bool {
			return opts.Kind == "collector" &&
				opts.PercentPreset == config.PercentPresetTwoDecimal &&
				opts.BucketPreset == config.BucketPresetFine &&
				opts.ManualCorrection != nil && !*opts.ManualCorrection &&
				opts.DedupePTP &&
				opts.ExcludedWeekday != nil && *opts.ExcludedWeekday == time.Sunday
		}),
	).Return(&domain.BatchResult{
		Kind:  "collector",
		Files: []domain.FileResult{{File: "jan.csv", Report: &domain.Report{Scope: "jan", Cached: true}}},
	}, nil).Once()

	rec := serve(router, uploadRequest(t,
		"/api/reports/collector?percent=two_decimal&buckets=fine&manual_correction=FALSE&dedupe_ptp=1&exclude_weekday=sun",
		upload{"jan.csv", goodCSV}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "HIT", rec.Header().Get(CacheHeader))
	svc.AssertExpectations(t)
}

func TestReportHandler_ExportFailure(t *testing.T) {
	svc := new(MockReportService)
	router := newRouter(t, svc, 0)

	report := &domain.Report{Kind: "daily", Scope: "jan"}
	svc.On("GenerateBatch", mock.Anything, mock.Anything).
		Return(&domain.BatchResult{Kind: "daily", Files: []domain.FileResult{{File: "jan.csv", Report: report}}}, nil)
	svc.On("Export", report).Return(nil, apierrors.NewEmptyResultError("no table has data"))

	rec := serve(router, uploadRequest(t, "/api/reports/daily/export", upload{"jan.csv", goodCSV}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "EMPTY_RESULT", decodeJSON(t, rec)["error_code"])
	assert.Equal(t, apierrors.TypeEmptyResult, decodeJSON(t, rec)["type"])
}

func TestSelectReport(t *testing.T) {
	jan := &domain.Report{Scope: "jan"}
	combined := &domain.Report{Scope: domain.ReportScopeCombined}

	single := &domain.BatchResult{Files: []domain.FileResult{
		{File: "bad.csv", Error: "boom"},
		{File: "jan.csv", Report: jan},
	}}
	batch := &domain.BatchResult{Files: single.Files, Combined: combined}

	got, err := selectReport(single, "")
	require.NoError(t, err)
	assert.Same(t, jan, got)

	got, err = selectReport(batch, "")
	require.NoError(t, err)
	assert.Same(t, combined, got)

	got, err = selectReport(batch, "combined")
	require.NoError(t, err)
	assert.Same(t, combined, got)

	_, err = selectReport(single, "Combined")
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	_, err = selectReport(single, "bad")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Details)
}

func TestCacheStatus(t *testing.T) {
	hit := &domain.Report{Cached: true}
	miss := &domain.Report{}

	tests := []struct {
		name  string
		files []domain.FileResult
		want  string
	}{
		{name: "all cached", files: []domain.FileResult{{Report: hit}, {Error: "x"}}, want: "HIT"},
		{name: "mixed", files: []domain.FileResult{{Report: hit}, {Report: miss}}, want: "MISS"},
		{name: "none produced", files: []domain.FileResult{{Error: "x"}}, want: "MISS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cacheStatus(&domain.BatchResult{Files: tt.files}))
		})
	}
}
