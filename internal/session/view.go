package session

import (
	"time"

	"github.com/claude/gymlog/internal/models"
	"github.com/google/uuid"
)

// View is the render-ready form of a session, as served to clients.
type View struct {
	ID             uuid.UUID      `json:"id"`
	PlanID         int64          `json:"plan_id"`
	PlanName       string         `json:"plan_name"`
	Phase          Phase          `json:"phase"`
	Cursor         Cursor         `json:"cursor"`
	Terminal       bool           `json:"terminal"`
	WorkoutSeconds int            `json:"workout_seconds"`
	WorkoutClock   string         `json:"workout_clock"`
	SetSeconds     int            `json:"set_seconds"`
	SetClock       string         `json:"set_clock"`
	Progress       float64        `json:"progress"`
	SetsCompleted  int            `json:"sets_completed"`
	TotalSets      int            `json:"total_sets"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	EndedAt        *time.Time     `json:"ended_at,omitempty"`
	CanFinish      bool           `json:"can_finish"`
	Exercises      []ExerciseView `json:"exercises"`
}

// ExerciseView is one exercise card of the session screen.
type ExerciseView struct {
	ID   int64                `json:"id"`
	Name string               `json:"name"`
	Type models.EquipmentType `json:"type"`
	Sets []SetView            `json:"sets"`
}

// SetView is one set row with its input enablement.
type SetView struct {
	Index     int    `json:"index"`
	Weight    string `json:"weight"`
	Reps      string `json:"reps"`
	Editable  bool   `json:"editable"`
	Startable bool   `json:"startable"`
}

// NewView renders st for the session with the given id.
func NewView(id uuid.UUID, st State) View {
	v := View{
		ID:             id,
		PlanID:         st.Plan.ID,
		PlanName:       st.Plan.Name,
		Phase:          st.Phase(),
		Cursor:         st.Cursor,
		Terminal:       st.Terminal(),
		WorkoutSeconds: st.WorkoutSeconds,
		WorkoutClock:   FormatClock(st.WorkoutSeconds),
		SetSeconds:     st.SetSeconds,
		SetClock:       FormatClock(st.SetSeconds),
		Progress:       Progress(st.Plan, st.Cursor),
		SetsCompleted:  st.SetsCompleted,
		TotalSets:      st.Plan.TotalSets(),
		CanFinish:      st.CanFinish(),
		Exercises:      make([]ExerciseView, len(st.Plan.Exercises)),
	}
	if !st.StartedAt.IsZero() {
		t := st.StartedAt
		v.StartedAt = &t
	}
	if !st.EndedAt.IsZero() {
		t := st.EndedAt
		v.EndedAt = &t
	}
	for i, ex := range st.Plan.Exercises {
		ev := ExerciseView{ID: ex.ID, Name: ex.Name, Type: ex.Type, Sets: make([]SetView, len(st.Entries[i]))}
		for j, e := range st.Entries[i] {
			ev.Sets[j] = SetView{
				Index:     j,
				Weight:    e.Weight,
				Reps:      e.Reps,
				Editable:  st.Editable(i, j),
				Startable: st.Startable(i, j),
			}
		}
		v.Exercises[i] = ev
	}
	return v
}
