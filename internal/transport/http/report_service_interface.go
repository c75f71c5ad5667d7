package http

import (
	"context"

	"remarkcli/internal/dataprocessing"
	"remarkcli/internal/services"
	"remarkcli/pkg/contracts/domain"
)

// ReportServiceInterface defines the report operations the handlers need
type ReportServiceInterface interface {
	Options(kind string) dataprocessing.ReportOptions
	GenerateBatch(ctx context.Context, files []services.InputFile, opts dataprocessing.ReportOptions) (*domain.BatchResult, error)
	Export(ctx context.Context, report *domain.Report) (*services.ExportResult, error)
}
