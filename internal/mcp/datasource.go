package mcp

import (
	"context"
	"time"

	"github.com/claude/gymlog/internal/models"
	"github.com/claude/gymlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListPlans(ctx context.Context, userID int) ([]storage.PlanSummary, error)
	GetPlan(ctx context.Context, planID int64, userID int) (*models.Plan, error)
	QueryWorkoutLogs(ctx context.Context, userID int, start, end time.Time, limit int) ([]models.WorkoutLog, error)
	ExerciseHistory(ctx context.Context, userID int, name string, start, end time.Time) ([]storage.HistoryEntry, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
