package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/gymlog/internal/models"
	"github.com/claude/gymlog/internal/telemetry"
	"github.com/google/uuid"
)

const tickInterval = time.Second

// Options configures a Session. Zero values pick the defaults.
type Options struct {
	Clock   Clock
	Log     *slog.Logger
	Metrics *telemetry.Metrics
	// Owner is the user the session was opened for.
	Owner int
}

// Session is a live workout: a State plus the two clocks that feed it ticks.
// All methods are safe for concurrent use.
type Session struct {
	ID    uuid.UUID
	Owner int

	gw      Gateway
	clock   Clock
	log     *slog.Logger
	metrics *telemetry.Metrics

	mu         sync.Mutex
	state      State
	workout    timer
	set        timer
	closed     bool
	lastActive time.Time

	finishMu sync.Mutex
}

// timer is a cancellable repeating task. gen increases on every start and
// stop so ticks from a cancelled run are recognised and dropped.
type timer struct {
	stop func()
	gen  uint64
}

// Load fetches the plan and returns a session positioned at its first set.
// Any failure wraps ErrLoadFailure and no session is created.
func Load(ctx context.Context, gw Gateway, planID int64, opts Options) (*Session, error) {
	plan, err := gw.GetPlanWithExercises(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailure, err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: plan %d returned nothing", ErrLoadFailure, planID)
	}
	if len(plan.Exercises) == 0 {
		return nil, fmt.Errorf("%w: plan %d has no exercises", ErrLoadFailure, planID)
	}
	for _, ex := range plan.Exercises {
		if ex.Sets < 1 {
			return nil, fmt.Errorf("%w: exercise %q has no sets", ErrLoadFailure, ex.Name)
		}
	}

	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	s := &Session{
		ID:      uuid.New(),
		Owner:   opts.Owner,
		gw:      gw,
		clock:   opts.Clock,
		log:     opts.Log,
		metrics: opts.Metrics,
		state:   NewState(*plan),
	}
	s.lastActive = s.clock.Now()
	s.metrics.SessionStarted(ctx)
	return s, nil
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActive returns the time of the last user event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// ToggleWorkout starts or stops the workout clock.
func (s *Session) ToggleWorkout() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state, ErrClosed
	}
	now := s.clock.Now()
	s.state = Apply(s.state, ToggleWorkout{At: now})
	s.lastActive = now
	s.syncTimers()
	s.log.Info("workout toggled", "session", s.ID, "active", s.state.WorkoutActive)
	return s.state, nil
}

// ToggleSet starts the set at the cursor, or stops it and advances the cursor.
func (s *Session) ToggleSet() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state, ErrClosed
	}
	prev := s.state
	s.state = Apply(s.state, ToggleSet{})
	s.lastActive = s.clock.Now()
	s.syncTimers()
	if prev.SetActive && !s.state.SetActive {
		s.metrics.SetCompleted(context.Background(), prev.SetSeconds)
		s.log.Info("set completed", "session", s.ID,
			"exercise", prev.Cursor.Exercise, "set", prev.Cursor.Set, "seconds", prev.SetSeconds)
	}
	return s.state, nil
}

// Edit replaces one field of the entry at (exercise, set). Only the inputs
// the screen enables may be edited.
func (s *Session) Edit(exercise, set int, field Field, value string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state, ErrClosed
	}
	if field != FieldWeight && field != FieldReps {
		return s.state, ErrInvalidField
	}
	if exercise < 0 || exercise >= len(s.state.Entries) ||
		set < 0 || set >= len(s.state.Entries[exercise]) || !s.state.Editable(exercise, set) {
		return s.state, fmt.Errorf("%w: exercise %d set %d", ErrSetLocked, exercise, set)
	}
	s.state = Apply(s.state, EditField{Exercise: exercise, Set: set, Field: field, Value: value})
	s.lastActive = s.clock.Now()
	return s.state, nil
}

// Finish persists the workout log. It does not touch the session state, so a
// failed finish can simply be retried. On success the session is closed.
func (s *Session) Finish(ctx context.Context) (*models.WorkoutLog, error) {
	s.finishMu.Lock()
	defer s.finishMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	st := s.state
	now := s.clock.Now()
	s.mu.Unlock()

	if !st.CanFinish() {
		return nil, ErrNotStarted
	}
	uid, ok := s.gw.CurrentUser(ctx)
	if !ok {
		s.metrics.FinishFailed(ctx, "auth_missing")
		return nil, ErrAuthMissing
	}

	log := BuildLog(st, uid, now)
	log.ID = uuid.New()
	if err := s.gw.InsertWorkoutLog(ctx, log); err != nil {
		s.metrics.FinishFailed(ctx, "persist")
		return nil, fmt.Errorf("%w: %w", ErrPersistFailure, err)
	}

	s.metrics.SessionFinished(ctx, log.Duration(), log.SetCount())
	s.log.Info("workout finished", "session", s.ID, "log", log.ID, "sets", log.SetCount())
	s.Close()
	return log, nil
}

// Close cancels both clocks. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.workout.cancel()
	s.set.cancel()
}

// syncTimers starts or cancels the repeating tasks so that each one runs
// exactly while its flag is set. Callers hold s.mu.
func (s *Session) syncTimers() {
	s.workout.sync(s.state.WorkoutActive, s.clock, func(gen uint64) { s.tick(&s.workout, gen, WorkoutTick{}) })
	s.set.sync(s.state.SetActive, s.clock, func(gen uint64) { s.tick(&s.set, gen, SetTick{}) })
}

func (s *Session) tick(t *timer, gen uint64, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || t.gen != gen || t.stop == nil {
		return
	}
	s.state = Apply(s.state, ev)
}

func (t *timer) sync(active bool, clock Clock, onTick func(gen uint64)) {
	switch {
	case active && t.stop == nil:
		t.gen++
		gen := t.gen
		t.stop = clock.Every(tickInterval, func() { onTick(gen) })
	case !active && t.stop != nil:
		t.cancel()
	}
}

func (t *timer) cancel() {
	if t.stop == nil {
		return
	}
	t.stop()
	t.stop = nil
	t.gen++
}
