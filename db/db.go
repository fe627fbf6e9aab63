package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"interventoria/internal/report"
	"interventoria/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrNotFound — запрошенная запись отсутствует
var ErrNotFound = errors.New("not found")

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Project (Проект)

func (s *Storage) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	p := &models.Project{}
	query := `
        SELECT id, name,
               COALESCE(code, '') AS code,
               COALESCE(location, '') AS location,
               COALESCE(address, '') AS address,
               COALESCE(client, '') AS client
        FROM projects
        WHERE id = $1`
	err := s.db.GetContext(ctx, p, query, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DailyLog (Битакора)

func (s *Storage) ListDailyLogs(ctx context.Context, projectID string, from, to models.Date) ([]models.DailyLog, error) {
	var logs []models.DailyLog
	query := `
        SELECT id, project_id, log_date,
               COALESCE(activities, '') AS activities,
               COALESCE(weather, '') AS weather,
               COALESCE(personnel_count, 0) AS personnel_count,
               COALESCE(created_by::text, '') AS created_by
        FROM daily_logs
        WHERE project_id = $1 AND log_date >= $2 AND log_date <= $3
        ORDER BY log_date`
	err := s.db.SelectContext(ctx, &logs, query, projectID, from, to)
	return logs, err
}

// QualitySample (Контроль качества)

func (s *Storage) ListQualitySamples(ctx context.Context, projectID string, from, to models.Date) ([]models.QualitySample, error) {
	var samples []models.QualitySample
	query := `
        SELECT q.id, q.project_id,
               COALESCE(q.sample_code, '') AS sample_code,
               q.sample_date,
               COALESCE(q.location, '') AS location,
               COALESCE(q.template_id::text, '') AS template_id,
               COALESCE(t.name, '') AS "template.name",
               COALESCE(t.test_type, '') AS "template.test_type",
               COALESCE(q.overall_result, '') AS overall_result
        FROM quality_control_samples q
        LEFT JOIN quality_control_templates t ON t.id = q.template_id
        WHERE q.project_id = $1 AND q.sample_date >= $2 AND q.sample_date <= $3
        ORDER BY q.sample_date, q.sample_code`
	if err := s.db.SelectContext(ctx, &samples, query, projectID, from, to); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return samples, nil
	}

	ids := make([]string, len(samples))
	index := make(map[string]int, len(samples))
	for i, q := range samples {
		ids[i] = q.ID
		index[q.ID] = i
	}

	var results []models.QualityTestResult
	resultsQuery := `
        SELECT id, sample_id,
               COALESCE(parameter, '') AS parameter,
               COALESCE(value, '') AS value,
               COALESCE(unit, '') AS unit,
               COALESCE(specification, '') AS specification,
               passed
        FROM quality_control_results
        WHERE sample_id = ANY($1)
        ORDER BY sample_id, id`
	if err := s.db.SelectContext(ctx, &results, resultsQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to load test results: %w", err)
	}
	for _, r := range results {
		if i, ok := index[r.SampleID]; ok {
			samples[i].Results = append(samples[i].Results, r)
		}
	}
	return samples, nil
}

// ProjectDocument (Фотографии)

// ListPhotos — фото, загруженные в период; конечный день включается целиком
func (s *Storage) ListPhotos(ctx context.Context, projectID string, from, to models.Date) ([]models.ProjectDocument, error) {
	var docs []models.ProjectDocument
	query := `
        SELECT id, project_id, file_type, file_url,
               COALESCE(file_name, '') AS file_name,
               COALESCE(description, '') AS description,
               uploaded_at
        FROM project_documents
        WHERE project_id = $1 AND file_type = 'photo'
          AND uploaded_at >= $2::date AND uploaded_at < ($3::date + 1)
        ORDER BY uploaded_at`
	err := s.db.SelectContext(ctx, &docs, query, projectID, from, to)
	return docs, err
}

// ReportTemplate (Шаблон отчета)

func (s *Storage) GetReportTemplate(ctx context.Context, templateID string) (*models.ReportTemplate, error) {
	t := &models.ReportTemplate{}
	query := `SELECT id, project_id, name, created_at FROM report_templates WHERE id = $1`
	err := s.db.GetContext(ctx, t, query, templateID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, s.loadTemplateSections(ctx, t)
}

// GetProjectReportTemplate — шаблон проекта, иначе последний глобальный
func (s *Storage) GetProjectReportTemplate(ctx context.Context, projectID string) (*models.ReportTemplate, error) {
	t := &models.ReportTemplate{}
	query := `
        SELECT id, project_id, name, created_at
        FROM report_templates
        WHERE project_id = $1 OR project_id IS NULL
        ORDER BY project_id NULLS LAST, created_at DESC
        LIMIT 1`
	err := s.db.GetContext(ctx, t, query, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, s.loadTemplateSections(ctx, t)
}

func (s *Storage) loadTemplateSections(ctx context.Context, t *models.ReportTemplate) error {
	query := `
        SELECT name, COALESCE(title, '') AS title, position, COALESCE(content, '') AS content
        FROM report_template_sections
        WHERE template_id = $1
        ORDER BY position`
	if err := s.db.SelectContext(ctx, &t.Sections, query, t.ID); err != nil {
		return fmt.Errorf("failed to load template sections: %w", err)
	}
	return nil
}

// Report (Отчет)

// SaveReport сохраняет отчет и его секции в одной транзакции
func (s *Storage) SaveReport(ctx context.Context, r *models.Report) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO reports (id, project_id, template_id, period_start, period_end, status, created_by, generated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`
	if _, err := tx.ExecContext(ctx, query,
		r.ID, r.ProjectID, r.TemplateID, r.PeriodStart, r.PeriodEnd, r.Status, r.CreatedBy, r.GeneratedAt,
	); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	sectionQuery := `
        INSERT INTO report_sections (report_id, name, title, position, content)
        VALUES ($1, $2, $3, $4, $5)`
	for _, sec := range r.Sections {
		if _, err := tx.ExecContext(ctx, sectionQuery, r.ID, sec.Name, sec.Title, sec.Position, sec.Content); err != nil {
			return fmt.Errorf("failed to insert section %s: %w", sec.Name, err)
		}
	}
	return tx.Commit()
}

const reportColumns = `id, project_id, template_id, period_start, period_end, status,
               COALESCE(created_by::text, '') AS created_by, generated_at`

func (s *Storage) GetReport(ctx context.Context, reportID string) (*models.Report, error) {
	r := &models.Report{}
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	err := s.db.GetContext(ctx, r, query, reportID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sectionQuery := `
        SELECT name, title, position, content
        FROM report_sections
        WHERE report_id = $1
        ORDER BY position`
	if err := s.db.SelectContext(ctx, &r.Sections, sectionQuery, reportID); err != nil {
		return nil, fmt.Errorf("failed to load report sections: %w", err)
	}
	return r, nil
}

// ListProjectReports — отчеты проекта без секций, новые первыми
func (s *Storage) ListProjectReports(ctx context.Context, projectID string, limit, offset int) ([]models.Report, error) {
	reports := []models.Report{}
	query := `SELECT ` + reportColumns + `
        FROM reports
        WHERE project_id = $1
        ORDER BY generated_at DESC
        LIMIT $2 OFFSET $3`
	err := s.db.SelectContext(ctx, &reports, query, projectID, limit, offset)
	return reports, err
}

// StyleConfig (Оформление)

// GetStyleConfig читает настройки оформления из таблицы ключ-значение
func (s *Storage) GetStyleConfig(ctx context.Context) (models.StyleConfig, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	var style models.StyleConfig
	query := `SELECT key, COALESCE(value, '') AS value FROM style_configuration`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return style, err
	}
	for _, row := range rows {
		switch row.Key {
		case "company_name":
			style.CompanyName = row.Value
		case "logo_url":
			style.LogoURL = row.Value
		case "primary_color":
			style.PrimaryColor = row.Value
		case "footer_text":
			style.FooterText = row.Value
		}
	}
	return style, nil
}
