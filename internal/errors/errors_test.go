package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewAppValidationError("unknown percent preset"),
			wantMessage: "[VALIDATION] unknown percent preset",
		},
		{
			name:        "error with cause",
			appError:    NewParsingError("failed to read workbook", fmt.Errorf("zip: not a valid zip file")),
			wantMessage: "[PARSING] failed to read workbook: zip: not a valid zip file",
		},
		{
			name:        "schema error lists columns",
			appError:    NewSchemaError([]string{"ACCOUNT NO.", "BALANCE"}),
			wantMessage: "[SCHEMA] missing required column(s): ACCOUNT NO., BALANCE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("export batch: %w", NewExportError("failed to write workbook", cause))

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsType(err, ErrTypeExport))
	assert.Equal(t, ErrTypeExport, TypeOf(err))
	assert.Equal(t, ErrorType(""), TypeOf(cause))
}

func TestNewSchemaError_Context(t *testing.T) {
	err := NewSchemaError([]string{"DATE"})
	assert.Equal(t, []string{"DATE"}, err.Context["missing_columns"])
}

func TestFromAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"schema", NewSchemaError([]string{"DATE"}), http.StatusUnprocessableEntity, "SCHEMA_ERROR"},
		{"parse", NewParsingError("bad file", errors.New("eof")), http.StatusUnprocessableEntity, "PARSE_ERROR"},
		{"empty", NewEmptyResultError("no rows"), http.StatusUnprocessableEntity, "EMPTY_RESULT"},
		{"validation", NewAppValidationError("bad"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"not found", NewNotFoundError("report kind"), http.StatusNotFound, "NOT_FOUND"},
		{"export", NewExportError("write", nil), http.StatusInternalServerError, "EXPORT_FAILED"},
		{"config", NewConfigError("bad", nil), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromAppError(fmt.Errorf("wrapped: %w", tt.err))
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}

	assert.Nil(t, FromAppError(errors.New("plain")))
}

func TestHelpers_CopyPredefinedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		base     *APIError
		wantMsg  string
		wantType string
	}{
		{"not found", NotFoundError("report scope \"feb\""), ErrNotFound, "report scope \"feb\" not found", TypeNotFound},
		{"invalid request", InvalidRequestWithError(errors.New("no boundary")), ErrInvalidRequest, ErrInvalidRequest.Message, TypeValidation},
		{"field", ErrValidation("exclude_weekday", "invalid weekday"), ErrValidationFailed, ErrValidationFailed.Message, TypeValidation},
		{"fields", NewValidationErrors([]ValidationError{{Field: "kind"}}), ErrValidationFailed, ErrValidationFailed.Message, TypeValidation},
	}

	handler := NewErrorHandler(slog.Default(), false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.base.StatusCode, tt.err.StatusCode)
			assert.Equal(t, tt.base.ErrorCode, tt.err.ErrorCode)
			assert.Equal(t, tt.wantMsg, tt.err.Message)
			assert.NotNil(t, tt.err.Details)
			assert.Nil(t, tt.base.Details, "predefined error must stay untouched")

			req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
			problem := handler.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantType, problem.Type)
		})
	}

	assert.Equal(t, "Resource not found", ErrNotFound.Message)
}

func TestErrorHandler_HandleError(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"api error", ErrReportKindNotFound, http.StatusNotFound, TypeNotFound},
		{"schema app error", NewSchemaError([]string{"BALANCE"}), http.StatusUnprocessableEntity, TypeSchema},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/reports/daily", nil)
			rec := httptest.NewRecorder()

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/reports/daily", body["instance"])
		})
	}
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "/x").
		WithExtension("error_code", "VALIDATION_FAILED")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "VALIDATION_FAILED", got["error_code"])
	assert.NotContains(t, got, "detail")
	assert.EqualValues(t, http.StatusBadRequest, got["status"])
}
