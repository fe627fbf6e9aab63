package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"interventoria/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrTemplateNotFound — для проекта нет ни собственного, ни глобального шаблона
var ErrTemplateNotFound = errors.New("report template not found")

// Store — шаблоны и сохранение сгенерированных отчетов
type Store interface {
	// GetReportTemplate возвращает шаблон по id (ErrTemplateNotFound если нет)
	GetReportTemplate(ctx context.Context, templateID string) (*models.ReportTemplate, error)
	// GetProjectReportTemplate — шаблон проекта, иначе глобальный
	GetProjectReportTemplate(ctx context.Context, projectID string) (*models.ReportTemplate, error)
	SaveReport(ctx context.Context, report *models.Report) error
}

// GenerateRequest параметры генерации отчета
type GenerateRequest struct {
	ProjectID   string
	TemplateID  string
	PeriodStart models.Date
	PeriodEnd   models.Date
	CreatedBy   string
}

// PreviewRequest — рендер произвольного текста шаблона без сохранения
type PreviewRequest struct {
	ProjectID   string
	PeriodStart models.Date
	PeriodEnd   models.Date
	Template    string
}

// Assembler связывает сборщик, подстановку и хранилище
type Assembler struct {
	collector *Collector
	renderer  *Renderer
	store     Store
	logger    *zap.Logger
	now       func() time.Time
}

func NewAssembler(collector *Collector, renderer *Renderer, store Store, logger *zap.Logger) *Assembler {
	return &Assembler{
		collector: collector,
		renderer:  renderer,
		store:     store,
		logger:    logger,
		now:       renderer.now,
	}
}

// Generate собирает данные один раз и рендерит каждую секцию шаблона по порядку
func (a *Assembler) Generate(ctx context.Context, req GenerateRequest) (*models.Report, error) {
	tpl, err := a.resolveTemplate(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := a.collector.Collect(ctx, req.ProjectID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("collect report data: %w", err)
	}

	sections := append([]models.TemplateSection(nil), tpl.Sections...)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Position < sections[j].Position })

	rc := RenderContext{PeriodStart: req.PeriodStart, PeriodEnd: req.PeriodEnd, Data: data}
	report := &models.Report{
		ID:          uuid.NewString(),
		ProjectID:   req.ProjectID,
		TemplateID:  tpl.ID,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Status:      models.ReportDraft,
		CreatedBy:   req.CreatedBy,
		GeneratedAt: a.now().UTC(),
		Sections:    make([]models.ReportSection, 0, len(sections)),
	}
	for i, s := range sections {
		report.Sections = append(report.Sections, models.ReportSection{
			Name:     s.Name,
			Title:    s.Title,
			Position: i + 1,
			Content:  a.renderer.Render(s.Content, rc),
		})
	}

	if err := a.store.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	a.logger.Info("report generated",
		zap.String("report_id", report.ID),
		zap.String("project_id", report.ProjectID),
		zap.String("template_id", report.TemplateID),
		zap.Int("sections", len(report.Sections)),
	)
	return report, nil
}

// Preview рендерит один текст шаблона на свежих данных, ничего не сохраняя
func (a *Assembler) Preview(ctx context.Context, req PreviewRequest) (string, error) {
	data, err := a.collector.Collect(ctx, req.ProjectID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return "", fmt.Errorf("collect report data: %w", err)
	}
	return a.renderer.Render(req.Template, RenderContext{
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Data:        data,
	}), nil
}

// Collect — данные периода для панели статистики и выгрузки
func (a *Assembler) Collect(ctx context.Context, projectID string, from, to models.Date) (*models.CollectedData, error) {
	return a.collector.Collect(ctx, projectID, from, to)
}

func (a *Assembler) resolveTemplate(ctx context.Context, req GenerateRequest) (*models.ReportTemplate, error) {
	var (
		tpl *models.ReportTemplate
		err error
	)
	if req.TemplateID != "" {
		tpl, err = a.store.GetReportTemplate(ctx, req.TemplateID)
	} else {
		tpl, err = a.store.GetProjectReportTemplate(ctx, req.ProjectID)
	}
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load report template: %w", err)
	}
	if tpl.ProjectID != nil && *tpl.ProjectID != req.ProjectID {
		return nil, fmt.Errorf("%w: template %s belongs to another project", ErrTemplateNotFound, tpl.ID)
	}
	return tpl, nil
}
