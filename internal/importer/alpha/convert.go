package alpha

import (
	"fmt"

	"github.com/claude/gymlog/internal/models"
	"github.com/google/uuid"
)

// logNamespace seeds deterministic log IDs so re-importing a session is a no-op.
var logNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("gymlog.importer.alpha"))

// LogID returns the stable workout log ID for a session.
func LogID(s Session) uuid.UUID {
	return uuid.NewSHA1(logNamespace, []byte(s.Name+"|"+s.Date.Format("2006-01-02T15:04")))
}

// ToWorkoutLog converts a session's working sets into a workout log. Warmups are
// dropped. Equipment the app does not know leaves the exercise type empty.
// Bodyweight-plus sets record only the added load.
func ToWorkoutLog(s Session) (*models.WorkoutLog, error) {
	d, err := ParseDuration(s.Duration)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", s.Name, err)
	}

	log := &models.WorkoutLog{
		ID:        LogID(s),
		StartTime: s.Date,
		EndTime:   s.Date.Add(d),
		Source:    models.SourceAlpha,
		Exercises: make([]models.LoggedExercise, 0, len(s.Exercises)),
	}
	for _, ex := range s.Exercises {
		typ, _ := models.ParseEquipmentType(ex.Equipment)
		working := ex.WorkingSets()
		le := models.LoggedExercise{
			Name: ex.Name,
			Type: typ,
			Sets: make([]models.LoggedSet, 0, len(working)),
		}
		for _, set := range working {
			le.Sets = append(le.Sets, models.LoggedSet{Weight: set.WeightKg, Reps: set.Reps})
		}
		log.Exercises = append(log.Exercises, le)
	}
	return log, nil
}
