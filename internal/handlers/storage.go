package handlers

import (
	"context"

	"interventoria/internal/report"
	"interventoria/models"
)

// StorageInterface — чтение сохраненных отчетов и оформления
type StorageInterface interface {
	GetProject(ctx context.Context, projectID string) (*models.Project, error)
	GetReport(ctx context.Context, reportID string) (*models.Report, error)
	ListProjectReports(ctx context.Context, projectID string, limit, offset int) ([]models.Report, error)
	GetStyleConfig(ctx context.Context) (models.StyleConfig, error)
}

// ReportService — генерация отчетов и сбор данных за период
type ReportService interface {
	Generate(ctx context.Context, req report.GenerateRequest) (*models.Report, error)
	Preview(ctx context.Context, req report.PreviewRequest) (string, error)
	Collect(ctx context.Context, projectID string, from, to models.Date) (*models.CollectedData, error)
}
