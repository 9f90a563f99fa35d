package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/claude/gymlog/internal/identity"
	"github.com/claude/gymlog/internal/models"
	"github.com/claude/gymlog/internal/storage"
	"github.com/google/uuid"
)

// memStore is an in-memory Store.
type memStore struct {
	mu        sync.Mutex
	nextPlan  int64
	plans     map[int64]*models.Plan
	logs      map[logKey]*models.WorkoutLog
	profiles  map[int]*models.Profile
	insertErr error
}

// logKey mirrors the workout_logs primary key.
type logKey struct {
	userID int
	id     uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		nextPlan: 1,
		plans:    map[int64]*models.Plan{},
		logs:     map[logKey]*models.WorkoutLog{},
		profiles: map[int]*models.Profile{},
	}
}

func clonePlan(p *models.Plan) *models.Plan {
	cp := *p
	cp.Exercises = append([]models.Exercise(nil), p.Exercises...)
	return &cp
}

func (m *memStore) GetOrCreateUser(_ context.Context, login, displayName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.profiles {
		if p.Login == login {
			return id, nil
		}
	}
	id := len(m.profiles) + 100
	m.profiles[id] = &models.Profile{UserID: id, Login: login, DisplayName: displayName}
	return id, nil
}

func (m *memStore) GetProfile(_ context.Context, userID int) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %d: %w", userID, storage.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdateProfile(_ context.Context, userID int, first, last string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = &models.Profile{UserID: userID}
		m.profiles[userID] = p
	}
	p.FirstName, p.LastName = first, last
	cp := *p
	return &cp, nil
}

func (m *memStore) DeleteUser(_ context.Context, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, userID)
	for id, p := range m.plans {
		if p.UserID == userID {
			delete(m.plans, id)
		}
	}
	return nil
}

func (m *memStore) ListPlans(_ context.Context, userID int) ([]storage.PlanSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []storage.PlanSummary{}
	for _, p := range m.plans {
		if p.UserID == userID {
			out = append(out, storage.PlanSummary{ID: p.ID, Name: p.Name,
				ExerciseCount: len(p.Exercises), TotalSets: p.TotalSets()})
		}
	}
	return out, nil
}

func (m *memStore) GetPlan(_ context.Context, planID int64, userID int) (*models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok || p.UserID != userID {
		return nil, fmt.Errorf("plan %d: %w", planID, storage.ErrNotFound)
	}
	return clonePlan(p), nil
}

func (m *memStore) CreatePlan(_ context.Context, userID int, plan *models.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan.ID = m.nextPlan
	m.nextPlan++
	plan.UserID = userID
	for i := range plan.Exercises {
		plan.Exercises[i].ID = int64(i + 1)
	}
	m.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (m *memStore) UpdatePlan(_ context.Context, userID int, plan *models.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[plan.ID]
	if !ok || p.UserID != userID {
		return fmt.Errorf("plan %d: %w", plan.ID, storage.ErrNotFound)
	}
	plan.UserID = userID
	m.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (m *memStore) DeletePlan(_ context.Context, planID int64, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok || p.UserID != userID {
		return fmt.Errorf("plan %d: %w", planID, storage.ErrNotFound)
	}
	delete(m.plans, planID)
	return nil
}

func (m *memStore) CopyPlan(ctx context.Context, planID int64, userID int) (*models.Plan, error) {
	src, err := m.GetPlan(ctx, planID, userID)
	if err != nil {
		return nil, err
	}
	src.Name = storage.CopyName(src.Name)
	if err := m.CreatePlan(ctx, userID, src); err != nil {
		return nil, err
	}
	return src, nil
}

func (m *memStore) ListExercises(_ context.Context, userID int) ([]models.Exercise, error) {
	return nil, nil
}

func (m *memStore) InsertWorkoutLog(_ context.Context, log *models.WorkoutLog) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return false, m.insertErr
	}
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	k := logKey{log.UserID, log.ID}
	if _, ok := m.logs[k]; ok {
		return false, nil
	}
	m.logs[k] = log
	return true, nil
}

func (m *memStore) QueryWorkoutLogs(_ context.Context, userID int, start, end time.Time, limit int) ([]models.WorkoutLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.WorkoutLog{}
	for _, l := range m.logs {
		if l.UserID == userID && !l.StartTime.Before(start) && l.StartTime.Before(end) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memStore) ExerciseHistory(context.Context, int, string, time.Time, time.Time) ([]storage.HistoryEntry, error) {
	return []storage.HistoryEntry{}, nil
}

func (m *memStore) logCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

// stepClock fires every registered task once per Advance step.
type stepClock struct {
	mu    sync.Mutex
	now   time.Time
	next  int
	tasks map[int]func()
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC), tasks: map[int]func(){}}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Every(_ time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	c.tasks[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.tasks, id)
	}
}

func (c *stepClock) Advance(seconds int) {
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

// headerIdentity attributes requests to the user ID in X-Test-User, or
// leaves them anonymous when the header is absent.
func headerIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("X-Test-User"); v != "" {
			id, _ := strconv.Atoi(v)
			r = r.WithContext(identity.WithUser(r.Context(), identity.User{ID: id, Login: "user" + v}))
		}
		next.ServeHTTP(w, r)
	})
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
