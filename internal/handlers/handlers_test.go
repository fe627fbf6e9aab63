package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"interventoria/db"
	"interventoria/internal/auth"
	"interventoria/internal/handlers"
	"interventoria/internal/handlers/testutils"
	"interventoria/internal/report"
	"interventoria/models"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	projectID = "3f2a9c1e-0000-4000-8000-000000000001"
	reportID  = "7b1e4d2c-0000-4000-8000-000000000002"
	userID    = "8d2f0c1a-1111-4000-8000-000000000001"
)

// MockStorage реализует StorageInterface
type MockStorage struct {
	GetReportFunc          func(ctx context.Context, reportID string) (*models.Report, error)
	ListProjectReportsFunc func(ctx context.Context, projectID string, limit, offset int) ([]models.Report, error)
	styleErr               error
}

func (m *MockStorage) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return &models.Project{ID: id, Name: "Puente Río Magdalena", Code: "PRM-001"}, nil
}

func (m *MockStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	if m.GetReportFunc != nil {
		return m.GetReportFunc(ctx, id)
	}
	return &models.Report{
		ID:          id,
		ProjectID:   projectID,
		PeriodStart: models.NewDate(2024, time.March, 1),
		PeriodEnd:   models.NewDate(2024, time.March, 15),
		Status:      models.ReportDraft,
		GeneratedAt: time.Date(2024, 3, 16, 15, 0, 0, 0, time.UTC),
		Sections:    []models.ReportSection{{Name: "portada", Title: "Portada", Position: 1, Content: "<p>Resumen</p>"}},
	}, nil
}

func (m *MockStorage) ListProjectReports(ctx context.Context, id string, limit, offset int) ([]models.Report, error) {
	if m.ListProjectReportsFunc != nil {
		return m.ListProjectReportsFunc(ctx, id, limit, offset)
	}
	return []models.Report{{ID: reportID, ProjectID: id}}, nil
}

func (m *MockStorage) GetStyleConfig(ctx context.Context) (models.StyleConfig, error) {
	if m.styleErr != nil {
		return models.StyleConfig{}, m.styleErr
	}
	return models.StyleConfig{CompanyName: "Interventoría Andina"}, nil
}

// MockReports реализует ReportService
type MockReports struct {
	GenerateFunc func(ctx context.Context, req report.GenerateRequest) (*models.Report, error)
	PreviewFunc  func(ctx context.Context, req report.PreviewRequest) (string, error)
	collectErr   error
}

func (m *MockReports) Generate(ctx context.Context, req report.GenerateRequest) (*models.Report, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &models.Report{ID: reportID, ProjectID: req.ProjectID, Status: models.ReportDraft, CreatedBy: req.CreatedBy}, nil
}

func (m *MockReports) Preview(ctx context.Context, req report.PreviewRequest) (string, error) {
	if m.PreviewFunc != nil {
		return m.PreviewFunc(ctx, req)
	}
	return "<p>" + req.Template + "</p>", nil
}

func (m *MockReports) Collect(ctx context.Context, id string, from, to models.Date) (*models.CollectedData, error) {
	if m.collectErr != nil {
		return nil, m.collectErr
	}
	return &models.CollectedData{
		Project:   models.Project{ID: id, Name: "Puente Río Magdalena", Code: "PRM-001"},
		DailyLogs: []models.DailyLog{{LogDate: from, Weather: models.WeatherRainy, PersonnelCount: 10}},
		Photos:    []models.ProjectDocument{{FileName: "1.jpg"}},
		Summary:   models.Summary{TotalDays: 1, RainDays: 1, TotalWorkers: 10, TotalTests: 3, PassedTests: 1, FailedTests: 1},
	}, nil
}

func newHandler(store *MockStorage, reports *MockReports) *handlers.Handler {
	return handlers.NewHandler(store, reports, nil, zap.NewNop())
}

func TestPingHandler(t *testing.T) {
	handler := newHandler(&MockStorage{}, &MockReports{})

	w := httptest.NewRecorder()
	handler.PingHandler(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}

func TestGenerateReportHandler(t *testing.T) {
	var got report.GenerateRequest
	reports := &MockReports{GenerateFunc: func(ctx context.Context, req report.GenerateRequest) (*models.Report, error) {
		got = req
		return &models.Report{ID: reportID, ProjectID: req.ProjectID, Status: models.ReportDraft}, nil
	}}
	handler := newHandler(&MockStorage{}, reports)

	reqBody := `{"periodStart":"2024-03-01","periodEnd":"2024-03-15"}`
	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/reports", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": projectID})
	req = testutils.AsUser(req, userID, models.RoleResident)
	w := httptest.NewRecorder()

	handler.GenerateReportHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Contains(t, string(body), reportID)
	require.Equal(t, projectID, got.ProjectID)
	require.Equal(t, userID, got.CreatedBy)
	require.Equal(t, "2024-03-15", got.PeriodEnd.String())
	require.Empty(t, got.TemplateID)
}

func TestGenerateReportHandler_Validation(t *testing.T) {
	cases := []struct {
		name      string
		projectID string
		body      string
	}{
		{"bad project id", "42", `{"periodStart":"2024-03-01","periodEnd":"2024-03-15"}`},
		{"bad json", projectID, `{"periodStart":`},
		{"missing end", projectID, `{"periodStart":"2024-03-01"}`},
		{"bad date", projectID, `{"periodStart":"01/03/2024","periodEnd":"2024-03-15"}`},
		{"inverted period", projectID, `{"periodStart":"2024-03-15","periodEnd":"2024-03-01"}`},
		{"bad template id", projectID, `{"periodStart":"2024-03-01","periodEnd":"2024-03-15","templateId":"x"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newHandler(&MockStorage{}, &MockReports{})
			req := httptest.NewRequest(http.MethodPost, "/api/projects/x/reports", strings.NewReader(tc.body))
			req = testutils.WithChiURLParams(req, map[string]string{"projectId": tc.projectID})
			req = testutils.AsUser(req, userID, models.RoleAdmin)
			w := httptest.NewRecorder()

			handler.GenerateReportHandler(w, req)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGenerateReportHandler_Permissions(t *testing.T) {
	handler := newHandler(&MockStorage{}, &MockReports{})

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/reports", nil)
	w := httptest.NewRecorder()
	handler.GenerateReportHandler(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = testutils.AsUser(httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/reports", nil), userID, models.RoleClient)
	w = httptest.NewRecorder()
	handler.GenerateReportHandler(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestGenerateReportHandler_InjectedPermissions(t *testing.T) {
	denyAll := func(models.Role, auth.Permission) bool { return false }
	handler := handlers.NewHandler(&MockStorage{}, &MockReports{}, denyAll, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/reports", nil)
	req = testutils.AsUser(req, userID, models.RoleAdmin)
	w := httptest.NewRecorder()
	handler.GenerateReportHandler(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestGenerateReportHandler_Errors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"template not found": {report.ErrTemplateNotFound, http.StatusNotFound},
		"source down":        {report.ErrSourceUnavailable, http.StatusInternalServerError},
		"save failed":        {errors.New("save report: deadlock"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			reports := &MockReports{GenerateFunc: func(ctx context.Context, req report.GenerateRequest) (*models.Report, error) {
				return nil, tc.err
			}}
			handler := newHandler(&MockStorage{}, reports)

			req := httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/reports",
				strings.NewReader(`{"periodStart":"2024-03-01","periodEnd":"2024-03-15"}`))
			req = testutils.WithChiURLParams(req, map[string]string{"projectId": projectID})
			req = testutils.AsUser(req, userID, models.RoleSupervisor)
			w := httptest.NewRecorder()

			handler.GenerateReportHandler(w, req)
			require.Equal(t, tc.status, w.Code)
		})
	}
}

func TestListReportsHandler_Pagination(t *testing.T) {
	var gotLimit, gotOffset int
	store := &MockStorage{ListProjectReportsFunc: func(ctx context.Context, id string, limit, offset int) ([]models.Report, error) {
		gotLimit, gotOffset = limit, offset
		return []models.Report{{ID: reportID}}, nil
	}}
	handler := newHandler(store, &MockReports{})

	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+projectID+"/reports?limit=500&offset=10", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": projectID})
	req = testutils.AsUser(req, userID, models.RoleClient)
	w := httptest.NewRecorder()

	handler.ListReportsHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 5, gotLimit)
	require.Equal(t, 10, gotOffset)
	require.Contains(t, w.Body.String(), reportID)
}

func TestSummaryHandler(t *testing.T) {
	handler := newHandler(&MockStorage{}, &MockReports{})

	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+projectID+"/summary?from=2024-03-01&to=2024-03-15", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": projectID})
	req = testutils.AsUser(req, userID, models.RoleClient)
	w := httptest.NewRecorder()

	handler.SummaryHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, 1, got["rainDays"])
	require.Equal(t, 1, got["pendingTests"])
	require.Equal(t, 1, got["photos"])
}

func TestSummaryHandler_Errors(t *testing.T) {
	handler := newHandler(&MockStorage{}, &MockReports{collectErr: report.ErrSourceUnavailable})

	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+projectID+"/summary?from=2024-03-01", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": projectID})
	req = testutils.AsUser(req, userID, models.RoleAdmin)
	w := httptest.NewRecorder()
	handler.SummaryHandler(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/projects/"+projectID+"/summary?from=2024-03-01&to=2024-03-15", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": projectID})
	req = testutils.AsUser(req, userID, models.RoleAdmin)
	w = httptest.NewRecorder()
	handler.SummaryHandler(w, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestExportHandler(t *testing.T) {
	handler := newHandler(&MockStorage{}, &MockReports{})

	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+projectID+"/export?from=2024-03-01&to=2024-03-15", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": projectID})
	req = testutils.AsUser(req, userID, models.RoleSupervisor)
	w := httptest.NewRecorder()

	handler.ExportHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "interventoria_PRM-001_2024-03-01_2024-03-15.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Resumen", "B2")
	require.NoError(t, err)
	require.Equal(t, "Puente Río Magdalena", v)
}

func TestExportHandler_ResidentForbidden(t *testing.T) {
	handler := newHandler(&MockStorage{}, &MockReports{})

	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+projectID+"/export?from=2024-03-01&to=2024-03-15", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": projectID})
	req = testutils.AsUser(req, userID, models.RoleResident)
	w := httptest.NewRecorder()

	handler.ExportHandler(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPreviewHandler(t *testing.T) {
	var got report.PreviewRequest
	reports := &MockReports{PreviewFunc: func(ctx context.Context, req report.PreviewRequest) (string, error) {
		got = req
		return "Puente Río Magdalena", nil
	}}
	handler := newHandler(&MockStorage{}, reports)

	reqBody := `{"projectId":"` + projectID + `","periodStart":"2024-03-01","periodEnd":"2024-03-15","template":"{{project_name}}"}`
	req := httptest.NewRequest(http.MethodPost, "/api/reports/preview", strings.NewReader(reqBody))
	req = testutils.AsUser(req, userID, models.RoleResident)
	w := httptest.NewRecorder()

	handler.PreviewHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"html":"Puente Río Magdalena"}`, w.Body.String())
	require.Equal(t, "{{project_name}}", got.Template)
}

func TestTokensHandler(t *testing.T) {
	handler := newHandler(&MockStorage{}, &MockReports{})

	req := testutils.AsUser(httptest.NewRequest(http.MethodGet, "/api/reports/tokens", nil), userID, models.RoleAdmin)
	w := httptest.NewRecorder()
	handler.TokensHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var tokens []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	require.Contains(t, tokens, "{{qc.tabla}}")
}

func TestGetReportHandler(t *testing.T) {
	handler := newHandler(&MockStorage{}, &MockReports{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/"+reportID, nil)
	req = testutils.WithChiURLParams(req, map[string]string{"reportId": reportID})
	req = testutils.AsUser(req, userID, models.RoleClient)
	w := httptest.NewRecorder()

	handler.GetReportHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, reportID, got.ID)
	require.Equal(t, "2024-03-01", got.PeriodStart.String())
	require.Len(t, got.Sections, 1)
}

func TestGetReportHandler_NotFound(t *testing.T) {
	store := &MockStorage{GetReportFunc: func(ctx context.Context, id string) (*models.Report, error) {
		return nil, db.ErrNotFound
	}}
	handler := newHandler(store, &MockReports{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/"+reportID, nil)
	req = testutils.WithChiURLParams(req, map[string]string{"reportId": reportID})
	req = testutils.AsUser(req, userID, models.RoleClient)
	w := httptest.NewRecorder()

	handler.GetReportHandler(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReportHandler_InvalidID(t *testing.T) {
	handler := newHandler(&MockStorage{}, &MockReports{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/abc", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"reportId": "abc"})
	req = testutils.AsUser(req, userID, models.RoleClient)
	w := httptest.NewRecorder()

	handler.GetReportHandler(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrintReportHandler(t *testing.T) {
	handler := newHandler(&MockStorage{}, &MockReports{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/"+reportID+"/print", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"reportId": reportID})
	req = testutils.AsUser(req, userID, models.RoleClient)
	w := httptest.NewRecorder()

	handler.PrintReportHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	require.Contains(t, body, "Interventoría Andina")
	require.Contains(t, body, "Puente Río Magdalena (PRM-001)")
	require.Contains(t, body, "<p>Resumen</p>")
}

func TestPrintReportHandler_StyleUnavailable(t *testing.T) {
	handler := newHandler(&MockStorage{styleErr: errors.New("relation does not exist")}, &MockReports{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/"+reportID+"/print", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"reportId": reportID})
	req = testutils.AsUser(req, userID, models.RoleAdmin)
	w := httptest.NewRecorder()

	handler.PrintReportHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "Interventoría Andina")
}

func TestRequestLogger(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	w := httptest.NewRecorder()
	handlers.RequestLogger(zap.NewNop())(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.Equal(t, http.StatusTeapot, w.Code)
}
