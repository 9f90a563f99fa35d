package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/gymlog/internal/identity"
	"github.com/claude/gymlog/internal/models"
	"github.com/claude/gymlog/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// planLogStore is the subset of *DB the gateway reads and writes through.
type planLogStore interface {
	GetPlan(ctx context.Context, planID int64, userID int) (*models.Plan, error)
	InsertWorkoutLog(ctx context.Context, log *models.WorkoutLog) (bool, error)
}

// Gateway is the session persistence backend: identity from the request
// context, user-scoped plan reads through the plan cache, and log inserts.
type Gateway struct {
	store planLogStore
	cache *PlanCache
}

// NewGateway creates a gateway over store. cache may be nil.
func NewGateway(store planLogStore, cache *PlanCache) *Gateway {
	return &Gateway{store: store, cache: cache}
}

// CurrentUser returns the authenticated user ID carried by ctx.
func (g *Gateway) CurrentUser(ctx context.Context) (int, bool) {
	u, ok := identity.FromContext(ctx)
	return u.ID, ok
}

// GetPlanWithExercises returns the caller's plan with its exercises.
func (g *Gateway) GetPlanWithExercises(ctx context.Context, planID int64) (p *models.Plan, err error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_plan", attribute.Int64("plan.id", planID))
	defer func() { telemetry.EndSpan(span, err) }()

	userID, ok := g.CurrentUser(ctx)
	if !ok {
		return nil, fmt.Errorf("loading plan %d: no authenticated user", planID)
	}
	if p, ok := g.cache.Get(userID, planID); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return p, nil
	}
	gen := g.cache.Generation(userID, planID)
	p, err = g.store.GetPlan(ctx, planID, userID)
	if err != nil {
		return nil, err
	}
	g.cache.Fill(p, gen)
	return p, nil
}

// InsertWorkoutLog stores a finished log. A duplicate ID is an error since a
// session always generates a fresh one.
func (g *Gateway) InsertWorkoutLog(ctx context.Context, log *models.WorkoutLog) (err error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "insert_workout_log",
		attribute.String("log.id", log.ID.String()), attribute.Int("log.sets", log.SetCount()))
	defer func() { telemetry.EndSpan(span, err) }()

	inserted, err := g.store.InsertWorkoutLog(ctx, log)
	if err != nil {
		return err
	}
	if !inserted {
		return fmt.Errorf("workout log %s: %w", log.ID, errDuplicateLog)
	}
	return nil
}

// InvalidatePlan drops a cached plan after it changed.
func (g *Gateway) InvalidatePlan(userID int, planID int64) {
	g.cache.Invalidate(userID, planID)
}

var errDuplicateLog = errors.New("already exists")
