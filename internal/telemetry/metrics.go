// Package telemetry holds the OpenTelemetry instruments and spans of gymlog.
// Without an SDK installed the global providers are no-ops.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "gymlog"

// Metrics holds all gymlog metric instruments. A nil *Metrics records nothing.
type Metrics struct {
	SessionsStarted  metric.Int64Counter
	SessionsFinished metric.Int64Counter
	FinishFailures   metric.Int64Counter
	SetsCompleted    metric.Int64Counter
	SetDuration      metric.Float64Histogram
	WorkoutDuration  metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.SessionsStarted, err = meter.Int64Counter("gymlog.sessions.started",
		metric.WithDescription("Number of workout sessions opened"))
	if err != nil {
		return nil, err
	}

	m.SessionsFinished, err = meter.Int64Counter("gymlog.sessions.finished",
		metric.WithDescription("Number of workout sessions saved"))
	if err != nil {
		return nil, err
	}

	m.FinishFailures, err = meter.Int64Counter("gymlog.sessions.finish_failures",
		metric.WithDescription("Number of rejected finish attempts"))
	if err != nil {
		return nil, err
	}

	m.SetsCompleted, err = meter.Int64Counter("gymlog.sets.completed",
		metric.WithDescription("Number of sets stopped by users"))
	if err != nil {
		return nil, err
	}

	m.SetDuration, err = meter.Float64Histogram("gymlog.set.duration_seconds",
		metric.WithDescription("Set timer value when the set was stopped"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.WorkoutDuration, err = meter.Float64Histogram("gymlog.workout.duration_seconds",
		metric.WithDescription("Wall-clock length of saved workouts"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// SessionStarted counts a newly loaded session.
func (m *Metrics) SessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.SessionsStarted.Add(ctx, 1)
}

// SetCompleted records a stopped set and how long its timer ran.
func (m *Metrics) SetCompleted(ctx context.Context, seconds int) {
	if m == nil {
		return
	}
	m.SetsCompleted.Add(ctx, 1)
	m.SetDuration.Record(ctx, float64(seconds))
}

// SessionFinished records a saved workout.
func (m *Metrics) SessionFinished(ctx context.Context, d time.Duration, sets int) {
	if m == nil {
		return
	}
	m.SessionsFinished.Add(ctx, 1, metric.WithAttributes(attribute.Int("sets", sets)))
	m.WorkoutDuration.Record(ctx, d.Seconds())
}

// FinishFailed counts a rejected finish by reason.
func (m *Metrics) FinishFailed(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.FinishFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
