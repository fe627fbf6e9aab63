package report

import (
	"context"
	"errors"
	"fmt"

	"interventoria/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSourceUnavailable — ни один из запросов сборщика не выполнился
var ErrSourceUnavailable = errors.New("report data source unavailable")

// ErrProjectNotFound возвращается источником, если проекта нет
var ErrProjectNotFound = errors.New("project not found")

// Source — чтение данных проекта за период (postgres или PostgREST)
type Source interface {
	GetProject(ctx context.Context, projectID string) (*models.Project, error)
	ListDailyLogs(ctx context.Context, projectID string, from, to models.Date) ([]models.DailyLog, error)
	ListQualitySamples(ctx context.Context, projectID string, from, to models.Date) ([]models.QualitySample, error)
	ListPhotos(ctx context.Context, projectID string, from, to models.Date) ([]models.ProjectDocument, error)
}

// Collector собирает данные проекта за период в CollectedData
type Collector struct {
	source Source
	logger *zap.Logger
}

func NewCollector(source Source, logger *zap.Logger) *Collector {
	return &Collector{source: source, logger: logger}
}

// Collect выполняет четыре независимых запроса параллельно и считает сводку.
// Ошибка отдельного запроса дает пустой список; ошибка возвращается
// только если не удалось ни одно чтение.
func (c *Collector) Collect(ctx context.Context, projectID string, from, to models.Date) (*models.CollectedData, error) {
	var (
		project    *models.Project
		logs       []models.DailyLog
		samples    []models.QualitySample
		photos     []models.ProjectDocument
		projectErr error
		logsErr    error
		samplesErr error
		photosErr  error
	)

	var g errgroup.Group
	g.Go(func() error {
		project, projectErr = c.source.GetProject(ctx, projectID)
		return nil
	})
	g.Go(func() error {
		logs, logsErr = c.source.ListDailyLogs(ctx, projectID, from, to)
		return nil
	})
	g.Go(func() error {
		samples, samplesErr = c.source.ListQualitySamples(ctx, projectID, from, to)
		return nil
	})
	g.Go(func() error {
		photos, photosErr = c.source.ListPhotos(ctx, projectID, from, to)
		return nil
	})
	_ = g.Wait()

	if projectErr != nil && !errors.Is(projectErr, ErrProjectNotFound) &&
		logsErr != nil && samplesErr != nil && photosErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, errors.Join(projectErr, logsErr, samplesErr, photosErr))
	}

	log := c.logger.With(zap.String("project_id", projectID))
	data := &models.CollectedData{Project: models.Project{ID: projectID}}

	switch {
	case projectErr == nil && project != nil:
		data.Project = *project
	case errors.Is(projectErr, ErrProjectNotFound):
		log.Info("project not found, using empty project record")
	case projectErr != nil:
		log.Warn("failed to load project", zap.Error(projectErr))
	}

	data.DailyLogs = orEmpty(log, "daily_logs", logs, logsErr)
	data.QualityControl = orEmpty(log, "quality_control", samples, samplesErr)
	data.Photos = orEmpty(log, "photos", photos, photosErr)
	data.Summary = Summarize(data.DailyLogs, data.QualityControl)

	log.Debug("report data collected",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int("daily_logs", len(data.DailyLogs)),
		zap.Int("samples", len(data.QualityControl)),
		zap.Int("photos", len(data.Photos)),
	)
	return data, nil
}

func orEmpty[T any](log *zap.Logger, what string, items []T, err error) []T {
	if err != nil {
		log.Warn("partial report data: query failed", zap.String("dataset", what), zap.Error(err))
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

// Summarize считает сводку за один проход
func Summarize(logs []models.DailyLog, samples []models.QualitySample) models.Summary {
	s := models.Summary{TotalDays: len(logs), TotalTests: len(samples)}
	for _, l := range logs {
		if l.Weather.IsRain() {
			s.RainDays++
		} else {
			s.WorkDays++
		}
		s.TotalWorkers += l.PersonnelCount
	}
	for _, q := range samples {
		switch q.OverallResult.Normalize() {
		case models.QCApproved:
			s.PassedTests++
		case models.QCRejected:
			s.FailedTests++
		}
	}
	return s
}
