// Package session runs one workout against a loaded plan: it sequences
// exercises and sets, drives the workout and set clocks, buffers the typed
// weight/reps values and assembles the final workout log.
package session

import (
	"fmt"
	"time"

	"github.com/claude/gymlog/internal/models"
)

// Cursor is the (exercise, set) position currently being logged.
type Cursor struct {
	Exercise int `json:"exercise"`
	Set      int `json:"set"`
}

// Phase is the externally visible state of a session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSetIdle    Phase = "set_idle"
	PhaseSetRunning Phase = "set_running"
)

// Field names an editable column of a SetEntry.
type Field string

const (
	FieldWeight Field = "weight"
	FieldReps   Field = "reps"
)

// State is the complete, copyable state of a session. It is only ever
// changed through Apply.
type State struct {
	Plan           models.Plan
	Entries        [][]models.SetEntry
	Cursor         Cursor
	WorkoutActive  bool
	SetActive      bool
	WorkoutSeconds int
	SetSeconds     int
	SetsCompleted  int
	StartedAt      time.Time
	EndedAt        time.Time
}

// NewState returns the initial state for plan: cursor at (0,0), clocks
// stopped and one empty entry per prescribed set.
func NewState(plan models.Plan) State {
	entries := make([][]models.SetEntry, len(plan.Exercises))
	for i, ex := range plan.Exercises {
		entries[i] = make([]models.SetEntry, ex.Sets)
	}
	return State{Plan: plan, Entries: entries}
}

// Event is an input to Apply.
type Event interface{ event() }

// ToggleWorkout starts or stops the workout clock at the given wall-clock time.
type ToggleWorkout struct{ At time.Time }

// ToggleSet starts the set at the cursor, or stops it and advances the cursor.
type ToggleSet struct{}

// EditField replaces one field of one entry.
type EditField struct {
	Exercise int
	Set      int
	Field    Field
	Value    string
}

// WorkoutTick is one second of the workout clock.
type WorkoutTick struct{}

// SetTick is one second of the set clock.
type SetTick struct{}

func (ToggleWorkout) event() {}
func (ToggleSet) event()     {}
func (EditField) event()     {}
func (WorkoutTick) event()   {}
func (SetTick) event()       {}

// Apply returns the state that results from ev. s is not modified.
func Apply(s State, ev Event) State {
	switch ev := ev.(type) {
	case ToggleWorkout:
		if s.WorkoutActive {
			// A set cannot outlive the workout. The cursor stays put so the
			// abandoned set is redone after a resume.
			s.WorkoutActive = false
			s.SetActive = false
			s.SetSeconds = 0
			s.EndedAt = ev.At
			return s
		}
		if s.StartedAt.IsZero() {
			s.StartedAt = ev.At
		}
		s.EndedAt = time.Time{}
		s.WorkoutActive = true
	case ToggleSet:
		if s.SetActive {
			s.SetActive = false
			s.SetSeconds = 0
			if s.SetsCompleted < s.Plan.TotalSets() {
				s.SetsCompleted++
			}
			s.Cursor = s.advance()
			return s
		}
		if s.WorkoutActive {
			s.SetActive = true
			s.SetSeconds = 0
		}
	case EditField:
		if ev.Exercise < 0 || ev.Exercise >= len(s.Entries) ||
			ev.Set < 0 || ev.Set >= len(s.Entries[ev.Exercise]) {
			return s
		}
		if ev.Field != FieldWeight && ev.Field != FieldReps {
			return s
		}
		s.Entries = cloneEntries(s.Entries)
		e := &s.Entries[ev.Exercise][ev.Set]
		if ev.Field == FieldWeight {
			e.Weight = ev.Value
		} else {
			e.Reps = ev.Value
		}
	case WorkoutTick:
		if s.WorkoutActive {
			s.WorkoutSeconds++
		}
	case SetTick:
		if s.SetActive {
			s.SetSeconds++
		}
	}
	return s
}

// advance computes the cursor after a completed set. It never wraps: the last
// set of the last exercise is terminal.
func (s State) advance() Cursor {
	c := s.Cursor
	if c.Exercise >= len(s.Plan.Exercises) {
		return c
	}
	if c.Set+1 < s.Plan.Exercises[c.Exercise].Sets {
		return Cursor{Exercise: c.Exercise, Set: c.Set + 1}
	}
	if c.Exercise+1 < len(s.Plan.Exercises) {
		return Cursor{Exercise: c.Exercise + 1}
	}
	return c
}

func cloneEntries(in [][]models.SetEntry) [][]models.SetEntry {
	out := make([][]models.SetEntry, len(in))
	for i, sets := range in {
		out[i] = append([]models.SetEntry(nil), sets...)
	}
	return out
}

// Phase reports where the session is in its lifecycle.
func (s State) Phase() Phase {
	switch {
	case s.SetActive:
		return PhaseSetRunning
	case s.WorkoutActive:
		return PhaseSetIdle
	default:
		return PhaseIdle
	}
}

// Terminal reports whether the cursor sits on the last set of the last exercise.
func (s State) Terminal() bool {
	n := len(s.Plan.Exercises)
	return n > 0 && s.Cursor.Exercise == n-1 && s.Cursor.Set == s.Plan.Exercises[n-1].Sets-1
}

// Startable reports whether the set timer button belongs to (e, set).
func (s State) Startable(e, set int) bool {
	return s.Cursor.Exercise == e && s.Cursor.Set == set
}

// Editable reports whether the inputs of (e, set) accept edits: the current
// exercise, up to and including the cursor set.
func (s State) Editable(e, set int) bool {
	return s.Cursor.Exercise == e && set >= 0 && set <= s.Cursor.Set
}

// CanFinish reports whether the workout has been started at least once.
func (s State) CanFinish() bool {
	return !s.StartedAt.IsZero()
}

// Progress is the display percentage of the plan covered by the cursor.
//
// The formula scales every exercise by the first exercise's set count, so it
// is only exact for plans with a uniform set count.
func Progress(plan models.Plan, c Cursor) float64 {
	if len(plan.Exercises) == 0 {
		return 0
	}
	perExercise := plan.Exercises[0].Sets
	denom := len(plan.Exercises) * perExercise
	if denom == 0 {
		return 0
	}
	return float64(c.Exercise*perExercise+c.Set) / float64(denom) * 100
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// BuildLog assembles the workout log from every entry of every exercise,
// visited or not. end is the time to use when the workout was never stopped.
func BuildLog(s State, userID int, end time.Time) *models.WorkoutLog {
	if !s.EndedAt.IsZero() && !s.WorkoutActive {
		end = s.EndedAt
	}
	planID := s.Plan.ID
	log := &models.WorkoutLog{
		UserID:    userID,
		PlanID:    &planID,
		StartTime: s.StartedAt,
		EndTime:   end,
		Source:    models.SourceSession,
		Exercises: make([]models.LoggedExercise, len(s.Plan.Exercises)),
	}
	for i, ex := range s.Plan.Exercises {
		id := ex.ID
		sets := make([]models.LoggedSet, len(s.Entries[i]))
		for j, e := range s.Entries[i] {
			sets[j] = e.Coerce()
		}
		log.Exercises[i] = models.LoggedExercise{ExerciseID: &id, Name: ex.Name, Type: ex.Type, Sets: sets}
	}
	return log
}
