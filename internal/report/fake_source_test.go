package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"interventoria/models"
)

var errBoom = errors.New("connection refused")

// fakeSource — источник данных в памяти с управляемыми ошибками
type fakeSource struct {
	mu sync.Mutex

	project *models.Project
	logs    []models.DailyLog
	samples []models.QualitySample
	photos  []models.ProjectDocument

	projectErr error
	logsErr    error
	samplesErr error
	photosErr  error

	calls int
}

func (f *fakeSource) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeSource) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	f.count()
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	if f.project == nil {
		return nil, ErrProjectNotFound
	}
	return f.project, nil
}

func (f *fakeSource) ListDailyLogs(ctx context.Context, projectID string, from, to models.Date) ([]models.DailyLog, error) {
	f.count()
	if f.logsErr != nil {
		return nil, f.logsErr
	}
	var out []models.DailyLog
	for _, l := range f.logs {
		if !l.LogDate.Before(from.Time) && !l.LogDate.After(to.Time) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeSource) ListQualitySamples(ctx context.Context, projectID string, from, to models.Date) ([]models.QualitySample, error) {
	f.count()
	if f.samplesErr != nil {
		return nil, f.samplesErr
	}
	var out []models.QualitySample
	for _, s := range f.samples {
		if !s.SampleDate.Before(from.Time) && !s.SampleDate.After(to.Time) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSource) ListPhotos(ctx context.Context, projectID string, from, to models.Date) ([]models.ProjectDocument, error) {
	f.count()
	if f.photosErr != nil {
		return nil, f.photosErr
	}
	var out []models.ProjectDocument
	end := to.AddDays(1).Time
	for _, p := range f.photos {
		if !p.UploadedAt.Before(from.Time) && p.UploadedAt.Before(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

var (
	periodStart = models.NewDate(2024, time.March, 1)
	periodEnd   = models.NewDate(2024, time.March, 15)
)

func testProject() *models.Project {
	return &models.Project{
		ID:       "3f2a9c1e-0000-4000-8000-000000000001",
		Name:     "Puente Río Magdalena",
		Code:     "PRM-001",
		Location: "Honda, Tolima",
		Address:  "Km 3 vía Honda - Mariquita",
		Client:   "INVÍAS",
	}
}

// tenLogs — 8 солнечных и 2 дождливых дня, 150 человеко-дней
func tenLogs() []models.DailyLog {
	personnel := []int{12, 14, 15, 16, 18, 15, 13, 17, 14, 16}
	logs := make([]models.DailyLog, 0, len(personnel))
	for i, p := range personnel {
		w := models.WeatherSunny
		if i == 3 || i == 7 {
			w = models.WeatherRainy
		}
		logs = append(logs, models.DailyLog{
			ID:             fmt.Sprintf("log-%d", i+1),
			LogDate:        periodStart.AddDays(i),
			Activities:     fmt.Sprintf("Actividad %d", i+1),
			Weather:        w,
			PersonnelCount: p,
		})
	}
	return logs
}

// fiveSamples — 3 aprobado, 1 rechazado, 1 pendiente
func fiveSamples() []models.QualitySample {
	results := []models.QCResult{models.QCApproved, models.QCApproved, models.QCRejected, models.QCApproved, models.QCPending}
	samples := make([]models.QualitySample, 0, len(results))
	for i, r := range results {
		samples = append(samples, models.QualitySample{
			ID:            fmt.Sprintf("qc-%d", i+1),
			SampleCode:    fmt.Sprintf("M-%03d", i+1),
			SampleDate:    periodStart.AddDays(i * 2),
			Location:      "Pila 2",
			Template:      models.QualityTemplate{Name: "Resistencia a compresión", TestType: "concreto"},
			OverallResult: r,
		})
	}
	return samples
}

func photos(n int) []models.ProjectDocument {
	out := make([]models.ProjectDocument, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.ProjectDocument{
			ID:          fmt.Sprintf("doc-%d", i+1),
			FileType:    models.FileTypePhoto,
			FileURL:     fmt.Sprintf("https://storage.example.co/obra/foto-%d.jpg", i+1),
			FileName:    fmt.Sprintf("foto-%d.jpg", i+1),
			Description: fmt.Sprintf("Avance %d", i+1),
			UploadedAt:  periodStart.Time.Add(time.Duration(i) * 12 * time.Hour),
		})
	}
	return out
}
