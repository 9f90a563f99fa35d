package session

import (
	"context"
	"errors"

	"github.com/claude/gymlog/internal/models"
)

// Gateway is the persistence and identity backend a session talks to.
type Gateway interface {
	// CurrentUser returns the authenticated user for ctx, if any.
	CurrentUser(ctx context.Context) (int, bool)
	GetPlanWithExercises(ctx context.Context, planID int64) (*models.Plan, error)
	InsertWorkoutLog(ctx context.Context, log *models.WorkoutLog) error
}

var (
	// ErrLoadFailure means the plan could not be loaded; no session exists.
	ErrLoadFailure = errors.New("workout plan could not be loaded")
	// ErrAuthMissing means finish found no authenticated user.
	ErrAuthMissing = errors.New("no authenticated user")
	// ErrPersistFailure means the gateway rejected the workout log.
	ErrPersistFailure = errors.New("workout log could not be saved")
	// ErrNotStarted means finish was called before the workout was started.
	ErrNotStarted = errors.New("workout start time not set")
	// ErrSetLocked means an edit targeted a set whose inputs are disabled.
	ErrSetLocked = errors.New("set is not editable")
	// ErrInvalidField means an edit named neither weight nor reps.
	ErrInvalidField = errors.New("field must be weight or reps")
	// ErrClosed means the session was finished or torn down.
	ErrClosed = errors.New("session is closed")
)
