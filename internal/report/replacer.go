package report

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"interventoria/models"
)

// tokenPattern находит {{token}} целиком; частичные совпадения невозможны
var tokenPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_.]+)\}\}`)

// RenderContext — данные, доступные шаблону
type RenderContext struct {
	PeriodStart models.Date
	PeriodEnd   models.Date
	Data        *models.CollectedData
}

// RendererOptions настройки подстановки
type RendererOptions struct {
	// EscapeHTML экранирует свободный текст (активности, подписи, поля проекта).
	// По умолчанию текст вставляется как есть.
	EscapeHTML bool
	// PhotoLimit — максимум фотографий в галерее, по умолчанию DefaultPhotoLimit
	PhotoLimit int
	// Now — источник текущего времени для {{fecha_actual}}
	Now func() time.Time
}

// Renderer заменяет токены шаблона вычисленными значениями
type Renderer struct {
	format formatter
	now    func() time.Time
}

func NewRenderer(opts RendererOptions) *Renderer {
	r := &Renderer{
		format: newFormatter(opts.EscapeHTML, opts.PhotoLimit),
		now:    opts.Now,
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

type tokenFunc func(r *Renderer, rc RenderContext) string

func projectField(get func(p models.Project) string) tokenFunc {
	return func(r *Renderer, rc RenderContext) string {
		return r.format.orNA(get(rc.Data.Project))
	}
}

func counter(get func(s models.Summary) int) tokenFunc {
	return func(_ *Renderer, rc RenderContext) string {
		return strconv.Itoa(get(rc.Data.Summary))
	}
}

var (
	totalDays    = counter(func(s models.Summary) int { return s.TotalDays })
	workDays     = counter(func(s models.Summary) int { return s.WorkDays })
	rainDays     = counter(func(s models.Summary) int { return s.RainDays })
	totalWorkers = counter(func(s models.Summary) int { return s.TotalWorkers })
	totalTests   = counter(func(s models.Summary) int { return s.TotalTests })
	passedTests  = counter(func(s models.Summary) int { return s.PassedTests })
	failedTests  = counter(func(s models.Summary) int { return s.FailedTests })

	dailyLogTable = func(r *Renderer, rc RenderContext) string { return r.format.dailyLogTable(rc.Data.DailyLogs) }
	qualityTable  = func(r *Renderer, rc RenderContext) string { return r.format.qualityTable(rc.Data.QualityControl) }
	photoGallery  = func(r *Renderer, rc RenderContext) string { return r.format.photoGallery(rc.Data.Photos) }
)

var tokens = map[string]tokenFunc{
	"project_name":     projectField(func(p models.Project) string { return p.Name }),
	"project_code":     projectField(func(p models.Project) string { return p.Code }),
	"project_location": projectField(func(p models.Project) string { return p.Location }),
	"project_address":  projectField(func(p models.Project) string { return p.Address }),
	"project_client":   projectField(func(p models.Project) string { return p.Client }),

	"period_start":       func(_ *Renderer, rc RenderContext) string { return FormatLongDate(rc.PeriodStart) },
	"period_end":         func(_ *Renderer, rc RenderContext) string { return FormatLongDate(rc.PeriodEnd) },
	"period_start_short": func(_ *Renderer, rc RenderContext) string { return FormatShortDate(rc.PeriodStart) },
	"period_end_short":   func(_ *Renderer, rc RenderContext) string { return FormatShortDate(rc.PeriodEnd) },

	"total_days":    totalDays,
	"work_days":     workDays,
	"rain_days":     rainDays,
	"total_workers": totalWorkers,
	"total_tests":   totalTests,
	"passed_tests":  passedTests,
	"failed_tests":  failedTests,

	"summary.total_days":    totalDays,
	"summary.work_days":     workDays,
	"summary.rain_days":     rainDays,
	"summary.total_workers": totalWorkers,
	"summary.total_tests":   totalTests,
	"summary.passed_tests":  passedTests,
	"summary.failed_tests":  failedTests,

	"bitacora.actividades": dailyLogTable,
	"bitacora.tabla":       dailyLogTable,
	"bitacora.resumen": func(r *Renderer, rc RenderContext) string {
		return r.format.activitySummary(rc.Data.DailyLogs)
	},
	"bitacora.personal": func(_ *Renderer, rc RenderContext) string {
		return strconv.Itoa(averageWorkers(rc.Data.Summary))
	},

	"qc.ensayos": qualityTable,
	"qc.tabla":   qualityTable,
	"qc.resultados": func(r *Renderer, rc RenderContext) string {
		return r.format.qualityResults(rc.Data.Summary)
	},
	"qc.porcentaje_aprobados": func(_ *Renderer, rc RenderContext) string {
		return strconv.Itoa(approvalPercentage(rc.Data.Summary))
	},

	"fotos":         photoGallery,
	"fotos.galeria": photoGallery,
	"total_fotos": func(_ *Renderer, rc RenderContext) string {
		return strconv.Itoa(len(rc.Data.Photos))
	},

	"fecha_actual": func(r *Renderer, _ RenderContext) string {
		return FormatLongDate(dateInBogota(r.now()))
	},
}

// Tokens возвращает отсортированный список поддерживаемых токенов (для редактора шаблонов)
func Tokens() []string {
	names := make([]string, 0, len(tokens))
	for name := range tokens {
		names = append(names, "{{"+name+"}}")
	}
	sort.Strings(names)
	return names
}

// Render подставляет значения во все известные токены.
// Неизвестные токены остаются в тексте без изменений; подставленный текст
// повторно не сканируется.
func (r *Renderer) Render(templateText string, rc RenderContext) string {
	if rc.Data == nil {
		rc.Data = &models.CollectedData{}
	}
	computed := make(map[string]string)
	return tokenPattern.ReplaceAllStringFunc(templateText, func(match string) string {
		name := match[2 : len(match)-2]
		if v, ok := computed[name]; ok {
			return v
		}
		fn, ok := tokens[name]
		if !ok {
			return match
		}
		v := fn(r, rc)
		computed[name] = v
		return v
	})
}
