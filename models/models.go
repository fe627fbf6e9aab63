package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Date — календарная дата без времени и часового пояса (колонки DATE).
type Date struct {
	time.Time
}

const DateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate разбирает "YYYY-MM-DD"; также принимает RFC3339, отбрасывая время.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays возвращает дату, сдвинутую на n дней.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan читает DATE из Postgres (lib/pq отдает time.Time) или строку.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Project — проект (только чтение, владеет CRUD-часть системы)
type Project struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Code     string `db:"code" json:"code"`
	Location string `db:"location" json:"location"`
	Address  string `db:"address" json:"address"`
	Client   string `db:"client" json:"client"`
}

// Weather — категория погоды в записи битакоры.
type Weather string

const (
	WeatherSunny      Weather = "soleado"
	WeatherCloudy     Weather = "nublado"
	WeatherPartly     Weather = "parcialmente_nublado"
	WeatherRainy      Weather = "lluvioso"
	WeatherHeavyRain  Weather = "lluvia_intensa"
	WeatherUnreported Weather = ""
)

// IsRain — день считается дождливым только для lluvioso и lluvia_intensa,
// любое другое значение (включая пустое) — рабочий день.
func (w Weather) IsRain() bool {
	switch w {
	case WeatherRainy, WeatherHeavyRain:
		return true
	}
	return false
}

// Label возвращает подпись для отчета; неизвестные значения выводятся как есть.
func (w Weather) Label() string {
	switch w {
	case WeatherSunny:
		return "Soleado"
	case WeatherCloudy:
		return "Nublado"
	case WeatherPartly:
		return "Parcialmente nublado"
	case WeatherRainy:
		return "Lluvioso"
	case WeatherHeavyRain:
		return "Lluvia intensa"
	case WeatherUnreported:
		return ""
	}
	return string(w)
}

// DailyLog — запись битакоры (один рабочий день проекта)
type DailyLog struct {
	ID             string  `db:"id" json:"id"`
	ProjectID      string  `db:"project_id" json:"project_id"`
	LogDate        Date    `db:"log_date" json:"log_date"`
	Activities     string  `db:"activities" json:"activities"`
	Weather        Weather `db:"weather" json:"weather"`
	PersonnelCount int     `db:"personnel_count" json:"personnel_count"`
	CreatedBy      string  `db:"created_by" json:"created_by"`
}

// QCResult — итоговый результат пробы.
type QCResult string

const (
	QCApproved QCResult = "aprobado"
	QCRejected QCResult = "rechazado"
	QCPending  QCResult = "pendiente"
)

// Normalize сводит произвольное значение к закрытому набору: все, что не
// aprobado/rechazado (строгое сравнение), считается pendiente.
func (r QCResult) Normalize() QCResult {
	switch r {
	case QCApproved, QCRejected:
		return r
	}
	return QCPending
}

func (r QCResult) Label() string {
	switch r.Normalize() {
	case QCApproved:
		return "Aprobado"
	case QCRejected:
		return "Rechazado"
	}
	return "Pendiente"
}

// QualityTemplate определяет название и тип испытания
type QualityTemplate struct {
	Name     string `db:"name" json:"name"`
	TestType string `db:"test_type" json:"test_type"`
}

// QualityTestResult — отдельный показатель испытания внутри пробы
type QualityTestResult struct {
	ID            string `db:"id" json:"id"`
	SampleID      string `db:"sample_id" json:"sample_id"`
	Parameter     string `db:"parameter" json:"parameter"`
	Value         string `db:"value" json:"value"`
	Unit          string `db:"unit" json:"unit"`
	Specification string `db:"specification" json:"specification"`
	Passed        *bool  `db:"passed" json:"passed"`
}

// QualitySample — проба контроля качества
type QualitySample struct {
	ID            string              `db:"id" json:"id"`
	ProjectID     string              `db:"project_id" json:"project_id"`
	SampleCode    string              `db:"sample_code" json:"sample_code"`
	SampleDate    Date                `db:"sample_date" json:"sample_date"`
	Location      string              `db:"location" json:"location"`
	TemplateID    string              `db:"template_id" json:"template_id"`
	Template      QualityTemplate     `db:"template" json:"template"`
	OverallResult QCResult            `db:"overall_result" json:"overall_result"`
	Results       []QualityTestResult `db:"-" json:"results"`
}

// FileType — тип документа проекта.
type FileType string

const (
	FileTypePhoto    FileType = "photo"
	FileTypeDocument FileType = "document"
	FileTypePlan     FileType = "plan"
	FileTypeOther    FileType = "other"
)

// ProjectDocument — метаданные загруженного файла
type ProjectDocument struct {
	ID          string    `db:"id" json:"id"`
	ProjectID   string    `db:"project_id" json:"project_id"`
	FileType    FileType  `db:"file_type" json:"file_type"`
	FileURL     string    `db:"file_url" json:"file_url"`
	FileName    string    `db:"file_name" json:"file_name"`
	Description string    `db:"description" json:"description"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// Summary — производные счетчики за период
type Summary struct {
	TotalDays    int `json:"totalDays"`
	WorkDays     int `json:"workDays"`
	RainDays     int `json:"rainDays"`
	TotalWorkers int `json:"totalWorkers"`
	TotalTests   int `json:"totalTests"`
	PassedTests  int `json:"passedTests"`
	FailedTests  int `json:"failedTests"`
}

// PendingTests — пробы без окончательного результата.
func (s Summary) PendingTests() int {
	return s.TotalTests - s.PassedTests - s.FailedTests
}

// CollectedData — сводка данных проекта за период (не сохраняется)
type CollectedData struct {
	Project        Project           `json:"project"`
	DailyLogs      []DailyLog        `json:"dailyLogs"`
	QualityControl []QualitySample   `json:"qualityControl"`
	Photos         []ProjectDocument `json:"photos"`
	Summary        Summary           `json:"summary"`
}

// TemplateSection — секция шаблона отчета
type TemplateSection struct {
	Name     string `db:"name" json:"name"`
	Title    string `db:"title" json:"title"`
	Position int    `db:"position" json:"position"`
	Content  string `db:"content" json:"content"`
}

// ReportTemplate — шаблон двухнедельного отчета; ProjectID == nil для глобального
type ReportTemplate struct {
	ID        string            `db:"id" json:"id"`
	ProjectID *string           `db:"project_id" json:"projectId"`
	Name      string            `db:"name" json:"name"`
	Sections  []TemplateSection `db:"-" json:"sections"`
	CreatedAt time.Time         `db:"created_at" json:"createdAt"`
}

type ReportStatus string

const (
	ReportDraft     ReportStatus = "borrador"
	ReportFinal     ReportStatus = "final"
	ReportDelivered ReportStatus = "entregado"
)

// ReportSection — сгенерированный HTML одной секции
type ReportSection struct {
	Name     string `db:"name" json:"name"`
	Title    string `db:"title" json:"title"`
	Position int    `db:"position" json:"position"`
	Content  string `db:"content" json:"content"`
}

// Report — экземпляр сгенерированного отчета
type Report struct {
	ID          string          `db:"id" json:"id"`
	ProjectID   string          `db:"project_id" json:"projectId"`
	TemplateID  string          `db:"template_id" json:"templateId"`
	PeriodStart Date            `db:"period_start" json:"periodStart"`
	PeriodEnd   Date            `db:"period_end" json:"periodEnd"`
	Status      ReportStatus    `db:"status" json:"status"`
	CreatedBy   string          `db:"created_by" json:"createdBy"`
	GeneratedAt time.Time       `db:"generated_at" json:"generatedAt"`
	Sections    []ReportSection `db:"-" json:"sections"`
}

// Section возвращает секцию по имени.
func (r *Report) Section(name string) (ReportSection, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return ReportSection{}, false
}

// StyleConfig — настройки оформления (ключ-значение в БД)
type StyleConfig struct {
	CompanyName  string `json:"companyName"`
	LogoURL      string `json:"logoUrl"`
	PrimaryColor string `json:"primaryColor"`
	FooterText   string `json:"footerText"`
}

// Role — роль пользователя в системе
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleResident   Role = "residente"
	RoleClient     Role = "cliente"
)
