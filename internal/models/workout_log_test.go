package models

import (
	"testing"
	"time"
)

// TestParseWeight verifies the lenient numeric coercion applied to weight text.
// Unparseable input must become 0 so an untouched set logs as {0, 0}.
func TestParseWeight(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"60", 60},
		{" 62.5 ", 62.5},
		{"62,5", 62.5},
		{"60kg", 60},
		{"abc", 0},
		{".5", 0.5},
		{"-10", -10},
		{"1e400", 0},
	}
	for _, tt := range tests {
		if got := ParseWeight(tt.in); got != tt.want {
			t.Errorf("ParseWeight(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestParseReps verifies reps are truncated to an integer prefix.
func TestParseReps(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"10", 10},
		{"8.7", 8},
		{"12 reps", 12},
		{"x", 0},
	}
	for _, tt := range tests {
		if got := ParseReps(tt.in); got != tt.want {
			t.Errorf("ParseReps(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// TestSetEntryCoerce verifies an empty entry coerces to the zero set.
func TestSetEntryCoerce(t *testing.T) {
	if got := (SetEntry{}).Coerce(); got != (LoggedSet{}) {
		t.Errorf("empty entry = %+v, want zero", got)
	}
	if got := (SetEntry{Weight: "80", Reps: "5"}).Coerce(); got != (LoggedSet{Weight: 80, Reps: 5}) {
		t.Errorf("entry = %+v, want {80 5}", got)
	}
}

// TestWorkoutLogSetCount verifies sets are counted across exercises.
func TestWorkoutLogSetCount(t *testing.T) {
	l := WorkoutLog{Exercises: []LoggedExercise{
		{Name: "Bench Press", Sets: []LoggedSet{{}, {}}},
		{Name: "Squat", Sets: []LoggedSet{{}}},
	}}
	if got := l.SetCount(); got != 3 {
		t.Errorf("SetCount() = %d, want 3", got)
	}
}

// TestWorkoutLogValidate verifies externally submitted logs are checked.
func TestWorkoutLogValidate(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		log     WorkoutLog
		wantErr bool
	}{
		{"ok", WorkoutLog{StartTime: start, EndTime: start.Add(time.Hour), Source: SourceAlpha,
			Exercises: []LoggedExercise{{Name: "Squat"}}}, false},
		{"zero length", WorkoutLog{StartTime: start, EndTime: start}, false},
		{"missing start", WorkoutLog{EndTime: start}, true},
		{"end before start", WorkoutLog{StartTime: start, EndTime: start.Add(-time.Minute)}, true},
		{"unknown source", WorkoutLog{StartTime: start, EndTime: start, Source: "garmin"}, true},
		{"unnamed exercise", WorkoutLog{StartTime: start, EndTime: start, Exercises: []LoggedExercise{{}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.log.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
