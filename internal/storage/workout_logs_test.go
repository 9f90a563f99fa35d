package storage

import (
	"strings"
	"testing"

	"github.com/claude/gymlog/internal/models"
)

// TestSummarizeSets verifies top weight and volume over a set list.
func TestSummarizeSets(t *testing.T) {
	tests := []struct {
		name       string
		sets       []models.LoggedSet
		wantMax    float64
		wantVolume float64
	}{
		{"empty", nil, 0, 0},
		{"single", []models.LoggedSet{{Weight: 60, Reps: 8}}, 60, 480},
		{"mixed", []models.LoggedSet{{Weight: 60, Reps: 8}, {Weight: 62.5, Reps: 6}, {Weight: 0, Reps: 10}}, 62.5, 855},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMax, gotVol := summarizeSets(tt.sets)
			if gotMax != tt.wantMax || gotVol != tt.wantVolume {
				t.Errorf("summarizeSets = %v, %v; want %v, %v", gotMax, gotVol, tt.wantMax, tt.wantVolume)
			}
		})
	}
}

// TestEscapeLike verifies LIKE wildcards in user text are matched literally.
func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"bench":     "bench",
		"50%":       `50\%`,
		"a_b":       `a\_b`,
		`back\side`: `back\\side`,
	}
	for in, want := range tests {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestCopyName verifies the name given to duplicated plans.
func TestCopyName(t *testing.T) {
	if got := CopyName("Push Day"); got != "Copy of Push Day" {
		t.Errorf("CopyName = %q", got)
	}
}

// TestInsertWorkoutLogConflictPerUser verifies the duplicate check is scoped
// to the owner, so two users may store logs with the same ID.
func TestInsertWorkoutLogConflictPerUser(t *testing.T) {
	if !strings.Contains(insertWorkoutLogSQL, "ON CONFLICT (user_id, id) DO NOTHING") {
		t.Errorf("insert conflict target is not per user:\n%s", insertWorkoutLogSQL)
	}
}
