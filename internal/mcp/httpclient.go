package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/gymlog/internal/models"
	"github.com/claude/gymlog/internal/storage"
)

// HTTPClient implements DataSource by calling the gymlog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server. The server identifies the caller, so
// the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) ListPlans(ctx context.Context, _ int) ([]storage.PlanSummary, error) {
	var plans []storage.PlanSummary
	if err := c.get(ctx, "/api/v1/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (c *HTTPClient) GetPlan(ctx context.Context, planID int64, _ int) (*models.Plan, error) {
	var plan models.Plan
	if err := c.get(ctx, "/api/v1/plans/"+strconv.FormatInt(planID, 10), nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *HTTPClient) QueryWorkoutLogs(ctx context.Context, _ int, start, end time.Time, limit int) ([]models.WorkoutLog, error) {
	params := timeParams(start, end)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var logs []models.WorkoutLog
	if err := c.get(ctx, "/api/v1/workout-logs", params, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *HTTPClient) ExerciseHistory(ctx context.Context, _ int, name string, start, end time.Time) ([]storage.HistoryEntry, error) {
	params := timeParams(start, end)
	params.Set("name", name)
	var history []storage.HistoryEntry
	if err := c.get(ctx, "/api/v1/exercises/history", params, &history); err != nil {
		return nil, err
	}
	return history, nil
}
