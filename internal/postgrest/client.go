package postgrest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"interventoria/internal/report"
	"interventoria/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// apiError — тело ошибки PostgREST
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Client читает данные проекта через REST API Supabase (PostgREST).
// Реализует report.Source.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient создает клиент; baseURL — адрес проекта Supabase без /rest/v1
func NewClient(baseURL, anonKey string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/rest/v1").
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(300*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("apikey", anonKey).
		SetAuthToken(anonKey).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, logger: logger}
}

func (c *Client) get(ctx context.Context, table string, query url.Values, result any) error {
	var apiErr apiError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		SetResult(result).
		SetError(&apiErr).
		Get("/" + table)
	if err != nil {
		c.logger.Error("PostgREST call failed", zap.String("table", table), zap.Error(err))
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	if resp.IsError() {
		c.logger.Error("PostgREST returned error",
			zap.String("table", table),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("code", apiErr.Code),
			zap.String("message", apiErr.Message),
		)
		return fmt.Errorf("query %s: status %d: %s", table, resp.StatusCode(), apiErr.Message)
	}
	return nil
}

func (c *Client) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	var projects []models.Project
	q := url.Values{}
	q.Set("select", "id,name,code,location,address,client")
	q.Set("id", "eq."+projectID)
	q.Set("limit", "1")
	if err := c.get(ctx, "projects", q, &projects); err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, report.ErrProjectNotFound
	}
	return &projects[0], nil
}

func (c *Client) ListDailyLogs(ctx context.Context, projectID string, from, to models.Date) ([]models.DailyLog, error) {
	var logs []models.DailyLog
	q := url.Values{}
	q.Set("select", "id,project_id,log_date,activities,weather,personnel_count,created_by")
	q.Set("project_id", "eq."+projectID)
	q.Add("log_date", "gte."+from.String())
	q.Add("log_date", "lte."+to.String())
	q.Set("order", "log_date.asc")
	if err := c.get(ctx, "daily_logs", q, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListQualitySamples загружает пробы вместе с шаблоном и показателями одним запросом
func (c *Client) ListQualitySamples(ctx context.Context, projectID string, from, to models.Date) ([]models.QualitySample, error) {
	var samples []models.QualitySample
	q := url.Values{}
	q.Set("select", "*,template:quality_control_templates(name,test_type),results:quality_control_results(*)")
	q.Set("project_id", "eq."+projectID)
	q.Add("sample_date", "gte."+from.String())
	q.Add("sample_date", "lte."+to.String())
	q.Set("order", "sample_date.asc,sample_code.asc")
	if err := c.get(ctx, "quality_control_samples", q, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// ListPhotos — фото за период; конечный день включается целиком
func (c *Client) ListPhotos(ctx context.Context, projectID string, from, to models.Date) ([]models.ProjectDocument, error) {
	var docs []models.ProjectDocument
	q := url.Values{}
	q.Set("select", "id,project_id,file_type,file_url,file_name,description,uploaded_at")
	q.Set("project_id", "eq."+projectID)
	q.Set("file_type", "eq."+string(models.FileTypePhoto))
	q.Add("uploaded_at", "gte."+from.String())
	q.Add("uploaded_at", "lt."+to.AddDays(1).String())
	q.Set("order", "uploaded_at.asc")
	if err := c.get(ctx, "project_documents", q, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
