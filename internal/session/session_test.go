package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/gymlog/internal/models"
)

// manualClock fires registered tasks only when the test advances it.
type manualClock struct {
	mu    sync.Mutex
	now   time.Time
	tasks map[int]func()
	all   []func()
	next  int
}

func newManualClock() *manualClock {
	return &manualClock{now: t0, tasks: map[int]func(){}}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Every(_ time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	c.tasks[id] = fn
	c.all = append(c.all, fn)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.tasks, id)
	}
}

// Advance moves time forward one second at a time, firing active tasks.
func (c *manualClock) Advance(seconds int) {
	for range seconds {
		c.mu.Lock()
		c.now = c.now.Add(time.Second)
		fns := make([]func(), 0, len(c.tasks))
		for _, fn := range c.tasks {
			fns = append(fns, fn)
		}
		c.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}

func (c *manualClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

type fakeGateway struct {
	plan      *models.Plan
	planErr   error
	userID    int
	hasUser   bool
	insertErr error
	inserted  []*models.WorkoutLog
	calls     int
}

func (g *fakeGateway) CurrentUser(context.Context) (int, bool) { return g.userID, g.hasUser }

func (g *fakeGateway) GetPlanWithExercises(context.Context, int64) (*models.Plan, error) {
	return g.plan, g.planErr
}

func (g *fakeGateway) InsertWorkoutLog(_ context.Context, log *models.WorkoutLog) error {
	g.calls++
	if g.insertErr != nil {
		return g.insertErr
	}
	g.inserted = append(g.inserted, log)
	return nil
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T, gw *fakeGateway) (*Session, *manualClock) {
	t.Helper()
	clock := newManualClock()
	s, err := Load(context.Background(), gw, 7, Options{Clock: clock, Log: quietLog(), Owner: 1})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(s.Close)
	return s, clock
}

func okGateway() *fakeGateway {
	p := benchSquatPlan()
	return &fakeGateway{plan: &p, userID: 42, hasUser: true}
}

// TestLoadFailure verifies that a missing or unusable plan yields
// ErrLoadFailure and no session.
func TestLoadFailure(t *testing.T) {
	notFound := errors.New("not found")
	empty := models.Plan{ID: 7, Name: "Empty"}
	noSets := models.Plan{ID: 7, Name: "Broken", Exercises: []models.Exercise{{Name: "Dips", Sets: 0}}}

	tests := []struct {
		name string
		gw   *fakeGateway
	}{
		{"gateway error", &fakeGateway{planErr: notFound}},
		{"nil plan", &fakeGateway{}},
		{"no exercises", &fakeGateway{plan: &empty}},
		{"exercise without sets", &fakeGateway{plan: &noSets}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(context.Background(), tt.gw, 7, Options{Log: quietLog()})
			if !errors.Is(err, ErrLoadFailure) {
				t.Fatalf("err = %v, want ErrLoadFailure", err)
			}
			if s != nil {
				t.Error("expected no session")
			}
		})
	}

	_, err := Load(context.Background(), &fakeGateway{planErr: notFound}, 7, Options{})
	if !errors.Is(err, notFound) {
		t.Errorf("cause not preserved: %v", err)
	}
}

// TestWorkoutClockCountsSeconds verifies the workout clock shows 00:47 after
// 47 ticks and holds that value once stopped.
func TestWorkoutClockCountsSeconds(t *testing.T) {
	s, clock := newTestSession(t, okGateway())

	if _, err := s.ToggleWorkout(); err != nil {
		t.Fatal(err)
	}
	clock.Advance(47)
	st, _ := s.ToggleWorkout()
	if got := FormatClock(st.WorkoutSeconds); got != "00:47" {
		t.Fatalf("clock = %s, want 00:47", got)
	}
	if !st.EndedAt.Equal(t0.Add(47 * time.Second)) {
		t.Errorf("ended = %v", st.EndedAt)
	}
	if clock.active() != 0 {
		t.Errorf("active tasks = %d, want 0", clock.active())
	}

	clock.Advance(10)
	if got := s.State().WorkoutSeconds; got != 47 {
		t.Errorf("seconds after stop = %d, want 47", got)
	}
}

// TestStaleTickDiscarded verifies a tick delivered after its timer was
// stopped, or after a restart, never increments a counter.
func TestStaleTickDiscarded(t *testing.T) {
	s, clock := newTestSession(t, okGateway())

	s.ToggleWorkout()
	s.ToggleSet()
	clock.Advance(5)
	s.ToggleSet() // stop; resets to 0
	s.ToggleSet() // start again with a fresh timer

	// Fire every task ever registered, including the cancelled ones.
	for _, fn := range clock.all {
		fn()
	}
	st := s.State()
	if st.SetSeconds != 1 {
		t.Errorf("set seconds = %d, want 1 (only the live timer)", st.SetSeconds)
	}
	if st.WorkoutSeconds != 6 {
		t.Errorf("workout seconds = %d, want 6", st.WorkoutSeconds)
	}
}

// TestCloseCancelsTimers verifies teardown releases both repeating tasks and
// rejects further events.
func TestCloseCancelsTimers(t *testing.T) {
	s, clock := newTestSession(t, okGateway())
	s.ToggleWorkout()
	s.ToggleSet()
	if clock.active() != 2 {
		t.Fatalf("active tasks = %d, want 2", clock.active())
	}

	s.Close()
	s.Close()
	if clock.active() != 0 {
		t.Errorf("active tasks after close = %d, want 0", clock.active())
	}
	for _, fn := range clock.all {
		fn()
	}
	if st := s.State(); st.WorkoutSeconds != 0 || st.SetSeconds != 0 {
		t.Errorf("ticks counted after close: %+v", st)
	}
	if _, err := s.ToggleSet(); !errors.Is(err, ErrClosed) {
		t.Errorf("ToggleSet after close err = %v, want ErrClosed", err)
	}
}

// TestStopWorkoutCancelsSetTimer verifies pausing the workout mid-set stops
// both repeating tasks and leaves the cursor on the unfinished set.
func TestStopWorkoutCancelsSetTimer(t *testing.T) {
	s, clock := newTestSession(t, okGateway())
	s.ToggleWorkout()
	s.ToggleSet()
	clock.Advance(3)

	st, err := s.ToggleWorkout()
	if err != nil {
		t.Fatal(err)
	}
	if clock.active() != 0 {
		t.Errorf("active tasks after pause = %d, want 0", clock.active())
	}
	if st.Phase() != PhaseIdle || st.SetActive || st.SetSeconds != 0 {
		t.Errorf("after pause: phase=%s setActive=%v setSeconds=%d", st.Phase(), st.SetActive, st.SetSeconds)
	}
	if st.Cursor != (Cursor{}) || st.SetsCompleted != 0 {
		t.Errorf("after pause: cursor=%+v completed=%d, want unchanged", st.Cursor, st.SetsCompleted)
	}

	clock.Advance(2)
	if got := s.State(); got.SetSeconds != 0 || got.WorkoutSeconds != 3 {
		t.Errorf("ticks after pause: set=%d workout=%d", got.SetSeconds, got.WorkoutSeconds)
	}

	// Resuming does not restart the abandoned set on its own.
	st, _ = s.ToggleWorkout()
	if st.Phase() != PhaseSetIdle || clock.active() != 1 {
		t.Errorf("after resume: phase=%s active tasks=%d", st.Phase(), clock.active())
	}
}

// TestEditAfterClose verifies a closed session reports ErrClosed before
// validating the field.
func TestEditAfterClose(t *testing.T) {
	s, _ := newTestSession(t, okGateway())
	s.Close()
	if _, err := s.Edit(0, 0, "notes", "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("edit of unknown field after close err = %v, want ErrClosed", err)
	}
	if _, err := s.Edit(0, 0, FieldWeight, "60"); !errors.Is(err, ErrClosed) {
		t.Errorf("edit after close err = %v, want ErrClosed", err)
	}
}

// TestEditGate verifies edits outside the enabled inputs are refused without
// changing the state.
func TestEditGate(t *testing.T) {
	s, _ := newTestSession(t, okGateway())

	if _, err := s.Edit(1, 0, FieldWeight, "80"); !errors.Is(err, ErrSetLocked) {
		t.Errorf("edit of future exercise err = %v, want ErrSetLocked", err)
	}
	if _, err := s.Edit(0, 0, "notes", "x"); !errors.Is(err, ErrInvalidField) {
		t.Errorf("edit of unknown field err = %v, want ErrInvalidField", err)
	}
	st, err := s.Edit(0, 0, FieldWeight, "60")
	if err != nil {
		t.Fatal(err)
	}
	if st.Entries[0][0].Weight != "60" {
		t.Errorf("weight = %q, want 60", st.Entries[0][0].Weight)
	}
}

// TestFinishBeforeStart verifies finish is refused before the workout was
// ever started and the gateway is not called.
func TestFinishBeforeStart(t *testing.T) {
	gw := okGateway()
	s, _ := newTestSession(t, gw)
	before := s.State()

	if _, err := s.Finish(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("err = %v, want ErrNotStarted", err)
	}
	if gw.calls != 0 {
		t.Errorf("gateway calls = %d, want 0", gw.calls)
	}
	after := s.State()
	if after.Cursor != before.Cursor || after.WorkoutActive || !after.StartedAt.IsZero() {
		t.Errorf("state changed: %+v", after)
	}
}

// TestFinishAuthMissing verifies a finish without a user persists nothing
// and can be retried once a user is available.
func TestFinishAuthMissing(t *testing.T) {
	gw := okGateway()
	gw.hasUser = false
	s, _ := newTestSession(t, gw)
	s.ToggleWorkout()

	if _, err := s.Finish(context.Background()); !errors.Is(err, ErrAuthMissing) {
		t.Fatalf("err = %v, want ErrAuthMissing", err)
	}
	if gw.calls != 0 {
		t.Errorf("gateway calls = %d, want 0", gw.calls)
	}

	gw.hasUser = true
	if _, err := s.Finish(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

// TestFinishPersistFailure verifies a rejected insert surfaces
// ErrPersistFailure and leaves the session usable for a retry.
func TestFinishPersistFailure(t *testing.T) {
	gw := okGateway()
	gw.insertErr = errors.New("connection refused")
	s, clock := newTestSession(t, gw)
	s.ToggleWorkout()
	s.Edit(0, 0, FieldWeight, "60")
	before := s.State()

	_, err := s.Finish(context.Background())
	if !errors.Is(err, ErrPersistFailure) {
		t.Fatalf("err = %v, want ErrPersistFailure", err)
	}
	after := s.State()
	if after.Entries[0][0] != before.Entries[0][0] || after.Cursor != before.Cursor || !after.WorkoutActive {
		t.Errorf("state changed after failed finish")
	}
	if clock.active() != 1 {
		t.Errorf("workout timer should still run, active = %d", clock.active())
	}

	gw.insertErr = nil
	log, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(gw.inserted) != 1 || gw.inserted[0] != log {
		t.Errorf("inserted = %d logs", len(gw.inserted))
	}
}

// TestFinishScenario runs the bench/squat workout through the live session
// and checks the persisted log and teardown.
func TestFinishScenario(t *testing.T) {
	gw := okGateway()
	s, clock := newTestSession(t, gw)

	s.ToggleWorkout()
	for _, set := range []struct {
		e, set      int
		weight, rep string
	}{{0, 0, "60", "10"}, {0, 1, "60", "8"}, {1, 0, "80", "5"}} {
		s.ToggleSet()
		clock.Advance(30)
		if _, err := s.Edit(set.e, set.set, FieldWeight, set.weight); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Edit(set.e, set.set, FieldReps, set.rep); err != nil {
			t.Fatal(err)
		}
		if st, _ := s.ToggleSet(); st.SetSeconds != 0 {
			t.Fatalf("set clock not reset: %d", st.SetSeconds)
		}
	}
	if c := s.State().Cursor; c != (Cursor{1, 0}) {
		t.Fatalf("cursor = %+v, want (1,0)", c)
	}

	log, err := s.Finish(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if log.UserID != 42 || log.SetCount() != 3 || log.Source != models.SourceSession {
		t.Errorf("log = %+v", log)
	}
	if !log.StartTime.Equal(t0) || !log.EndTime.Equal(t0.Add(90*time.Second)) {
		t.Errorf("times = %v..%v", log.StartTime, log.EndTime)
	}
	if log.Exercises[1].Sets[0] != (models.LoggedSet{Weight: 80, Reps: 5}) {
		t.Errorf("squat = %+v", log.Exercises[1].Sets[0])
	}
	if clock.active() != 0 {
		t.Errorf("timers left running after finish: %d", clock.active())
	}
	if _, err := s.Finish(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("second finish err = %v, want ErrClosed", err)
	}
}

// TestNewView verifies the rendered view reflects clocks, flags and progress.
func TestNewView(t *testing.T) {
	s, clock := newTestSession(t, okGateway())
	s.ToggleWorkout()
	s.ToggleSet()
	clock.Advance(65)

	v := NewView(s.ID, s.State())
	if v.WorkoutClock != "01:05" || v.SetClock != "01:05" {
		t.Errorf("clocks = %s / %s", v.WorkoutClock, v.SetClock)
	}
	if v.Phase != PhaseSetRunning || !v.CanFinish || v.StartedAt == nil || v.EndedAt != nil {
		t.Errorf("view = %+v", v)
	}
	if v.TotalSets != 3 || len(v.Exercises) != 2 {
		t.Errorf("total=%d exercises=%d", v.TotalSets, len(v.Exercises))
	}
	if !v.Exercises[0].Sets[0].Startable || v.Exercises[0].Sets[1].Editable {
		t.Errorf("enablement = %+v", v.Exercises[0].Sets)
	}
}

// TestSystemClockStop verifies the real ticker stops firing once stopped.
func TestSystemClockStop(t *testing.T) {
	var mu sync.Mutex
	n := 0
	stop := SystemClock{}.Every(5*time.Millisecond, func() {
		mu.Lock()
		n++
		mu.Unlock()
	})
	time.Sleep(30 * time.Millisecond)
	stop()
	stop()
	mu.Lock()
	got := n
	mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if n > got+1 {
		t.Errorf("ticks after stop: before=%d after=%d", got, n)
	}
}
