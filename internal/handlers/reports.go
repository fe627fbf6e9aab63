package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"interventoria/db"
	"interventoria/internal/auth"
	"interventoria/internal/report"
	"interventoria/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	params.Limit = 5 // дефолт
	params.Offset = 0

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

// parsePeriod разбирает границы периода; обе даты обязательны
func parsePeriod(fromStr, toStr string) (models.Date, models.Date, error) {
	if fromStr == "" || toStr == "" {
		return models.Date{}, models.Date{}, errors.New("period start and end are required")
	}
	from, err := models.ParseDate(fromStr)
	if err != nil {
		return models.Date{}, models.Date{}, err
	}
	to, err := models.ParseDate(toStr)
	if err != nil {
		return models.Date{}, models.Date{}, err
	}
	if from.After(to.Time) {
		return models.Date{}, models.Date{}, errors.New("period start must not be after period end")
	}
	return from, to, nil
}

// projectIDParam достает projectId из пути и проверяет, что это UUID
func projectIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "projectId")
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, "Invalid projectId", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	// Ограничение размера тела, чтобы избежать DoS
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return false
	}
	return true
}

type generateReportRequest struct {
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
	TemplateID  string `json:"templateId"`
}

// GenerateReportHandler обрабатывает POST /api/projects/{projectId}/reports
func (h *Handler) GenerateReportHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authorize(w, r, auth.PermGenerateReports)
	if !ok {
		return
	}
	projectID, ok := projectIDParam(w, r)
	if !ok {
		return
	}

	var req generateReportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	from, to, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.TemplateID != "" {
		if _, err := uuid.Parse(req.TemplateID); err != nil {
			http.Error(w, "Invalid templateId", http.StatusBadRequest)
			return
		}
	}

	rep, err := h.Reports.Generate(r.Context(), report.GenerateRequest{
		ProjectID:   projectID,
		TemplateID:  req.TemplateID,
		PeriodStart: from,
		PeriodEnd:   to,
		CreatedBy:   claims.UserID,
	})
	if errors.Is(err, report.ErrTemplateNotFound) {
		http.Error(w, "Report template not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("failed to generate report", zap.String("project_id", projectID), zap.Error(err))
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, rep)
}

// ListReportsHandler возвращает отчеты проекта, новые первыми
func (h *Handler) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.PermViewReports); !ok {
		return
	}
	projectID, ok := projectIDParam(w, r)
	if !ok {
		return
	}
	params := parsePaginationParams(r)

	reports, err := h.Store.ListProjectReports(r.Context(), projectID, params.Limit, params.Offset)
	if err != nil {
		h.Log.Error("failed to list reports", zap.String("project_id", projectID), zap.Error(err))
		http.Error(w, "Failed to get reports", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

type summaryResponse struct {
	models.Summary
	PendingTests int `json:"pendingTests"`
	Photos       int `json:"photos"`
}

// SummaryHandler отдает сводку за период для панели статистики
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.PermViewDashboard); !ok {
		return
	}
	data, ok := h.collect(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:      data.Summary,
		PendingTests: data.Summary.PendingTests(),
		Photos:       len(data.Photos),
	})
}

// ExportHandler выгружает данные периода в XLSX
func (h *Handler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.PermExportReports); !ok {
		return
	}
	data, ok := h.collect(w, r)
	if !ok {
		return
	}
	from, to, _ := parsePeriod(r.URL.Query().Get("from"), r.URL.Query().Get("to"))

	raw, err := report.ExportWorkbook(data, from, to)
	if err != nil {
		h.Log.Error("failed to build workbook", zap.String("project_id", data.Project.ID), zap.Error(err))
		http.Error(w, "Failed to export", http.StatusInternalServerError)
		return
	}

	name := data.Project.Code
	if name == "" {
		name = data.Project.ID
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="interventoria_%s_%s_%s.xlsx"`, name, from, to))
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// collect читает projectId и период из запроса и собирает данные
func (h *Handler) collect(w http.ResponseWriter, r *http.Request) (*models.CollectedData, bool) {
	projectID, ok := projectIDParam(w, r)
	if !ok {
		return nil, false
	}
	from, to, err := parsePeriod(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	data, err := h.Reports.Collect(r.Context(), projectID, from, to)
	if err != nil {
		h.Log.Error("failed to collect project data", zap.String("project_id", projectID), zap.Error(err))
		http.Error(w, "Failed to collect project data", http.StatusInternalServerError)
		return nil, false
	}
	return data, true
}

type previewRequest struct {
	ProjectID   string `json:"projectId"`
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
	Template    string `json:"template"`
}

// PreviewHandler рендерит произвольный текст шаблона без сохранения
func (h *Handler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.PermGenerateReports); !ok {
		return
	}

	var req previewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := uuid.Parse(req.ProjectID); err != nil {
		http.Error(w, "Invalid projectId", http.StatusBadRequest)
		return
	}
	from, to, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := h.Reports.Preview(r.Context(), report.PreviewRequest{
		ProjectID:   req.ProjectID,
		PeriodStart: from,
		PeriodEnd:   to,
		Template:    req.Template,
	})
	if err != nil {
		h.Log.Error("failed to render preview", zap.String("project_id", req.ProjectID), zap.Error(err))
		http.Error(w, "Failed to render preview", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": out})
}

// TokensHandler возвращает список поддерживаемых токенов для редактора шаблонов
func (h *Handler) TokensHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.PermGenerateReports); !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Tokens())
}

// loadReport достает reportId из пути и читает отчет с секциями
func (h *Handler) loadReport(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	reportID := chi.URLParam(r, "reportId")
	if _, err := uuid.Parse(reportID); err != nil {
		http.Error(w, "Invalid reportId", http.StatusBadRequest)
		return nil, false
	}

	rep, err := h.Store.GetReport(r.Context(), reportID)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Report not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.Log.Error("failed to get report", zap.String("report_id", reportID), zap.Error(err))
		http.Error(w, "Failed to get report", http.StatusInternalServerError)
		return nil, false
	}
	return rep, true
}

// GetReportHandler возвращает отчет с секциями
func (h *Handler) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.PermViewReports); !ok {
		return
	}
	rep, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// PrintReportHandler отдает отчет как HTML-документ для печати
func (h *Handler) PrintReportHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.PermViewReports); !ok {
		return
	}
	rep, ok := h.loadReport(w, r)
	if !ok {
		return
	}

	project := models.Project{ID: rep.ProjectID}
	if p, err := h.Store.GetProject(r.Context(), rep.ProjectID); err == nil {
		project = *p
	} else if !errors.Is(err, report.ErrProjectNotFound) {
		h.Log.Warn("project unavailable for print view", zap.String("report_id", rep.ID), zap.Error(err))
	}

	// без настроек оформления печатаем со значениями по умолчанию
	style, err := h.Store.GetStyleConfig(r.Context())
	if err != nil {
		h.Log.Warn("style configuration unavailable", zap.Error(err))
		style = models.StyleConfig{}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, report.PrintView(rep, project, style))
}
