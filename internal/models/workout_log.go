package models

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Log sources.
const (
	SourceSession = "session"
	SourceAlpha   = "alpha"
)

// SetEntry is the raw text a user typed for one set.
type SetEntry struct {
	Weight string `json:"weight"`
	Reps   string `json:"reps"`
}

// LoggedSet is a SetEntry coerced to numbers.
type LoggedSet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// LoggedExercise holds the sets recorded for one exercise of a workout.
type LoggedExercise struct {
	ExerciseID *int64        `json:"exercise_id,omitempty"`
	Name       string        `json:"name"`
	Type       EquipmentType `json:"type,omitempty"`
	Sets       []LoggedSet   `json:"sets"`
}

// WorkoutLog is the finalized record of one workout session.
type WorkoutLog struct {
	ID        uuid.UUID        `json:"id"`
	UserID    int              `json:"user_id"`
	PlanID    *int64           `json:"plan_id,omitempty"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Exercises []LoggedExercise `json:"exercises"`
	Source    string           `json:"source"`
	CreatedAt time.Time        `json:"created_at"`
}

// SetCount returns the number of sets recorded across all exercises.
func (l *WorkoutLog) SetCount() int {
	n := 0
	for _, ex := range l.Exercises {
		n += len(ex.Sets)
	}
	return n
}

// Duration returns the wall-clock length of the workout.
func (l *WorkoutLog) Duration() time.Duration {
	return l.EndTime.Sub(l.StartTime)
}

// Validate checks a log submitted from outside a live session.
func (l *WorkoutLog) Validate() error {
	if l.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	if l.EndTime.Before(l.StartTime) {
		return fmt.Errorf("end_time must not be before start_time")
	}
	switch l.Source {
	case "", SourceSession, SourceAlpha:
	default:
		return fmt.Errorf("unknown source %q", l.Source)
	}
	for i, ex := range l.Exercises {
		if ex.Name == "" {
			return fmt.Errorf("exercise %d: name is required", i+1)
		}
	}
	return nil
}

var (
	floatPrefixRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	intPrefixRe   = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseWeight coerces user-entered weight text to a number. It honors a leading
// numeric prefix ("60kg" -> 60) and a decimal comma ("62,5" -> 62.5).
// Anything unparseable is 0.
func ParseWeight(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	m := floatPrefixRe.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseReps coerces user-entered reps text to an integer, truncating any
// fractional part ("8.7" -> 8). Anything unparseable is 0.
func ParseReps(s string) int {
	m := intPrefixRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Coerce converts a raw entry into a LoggedSet.
func (e SetEntry) Coerce() LoggedSet {
	return LoggedSet{Weight: ParseWeight(e.Weight), Reps: ParseReps(e.Reps)}
}
