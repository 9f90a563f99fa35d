package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/claude/gymlog/internal/models"
	"github.com/google/uuid"
)

// insertWorkoutLogSQL skips a log the same user already stored under that ID.
// IDs are only unique per user.
const insertWorkoutLogSQL = `INSERT INTO workout_logs (id, user_id, plan_id, start_time, end_time, exercises, source)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id, id) DO NOTHING`

// InsertWorkoutLog stores a finalized log. Returns true if inserted, false if
// the user already has a log with the same ID.
func (db *DB) InsertWorkoutLog(ctx context.Context, log *models.WorkoutLog) (bool, error) {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.Source == "" {
		log.Source = models.SourceSession
	}
	exercises, err := json.Marshal(log.Exercises)
	if err != nil {
		return false, fmt.Errorf("encoding log exercises: %w", err)
	}
	tag, err := db.Pool.Exec(ctx, insertWorkoutLogSQL,
		log.ID, log.UserID, log.PlanID, log.StartTime, log.EndTime, exercises, log.Source)
	if err != nil {
		return false, fmt.Errorf("inserting workout log: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QueryWorkoutLogs returns the user's logs started within [start, end), newest first.
func (db *DB) QueryWorkoutLogs(ctx context.Context, userID int, start, end time.Time, limit int) ([]models.WorkoutLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, plan_id, start_time, end_time, exercises, source, created_at
		 FROM workout_logs
		 WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
		 ORDER BY start_time DESC
		 LIMIT $4`, userID, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("querying workout logs: %w", err)
	}
	defer rows.Close()

	result := []models.WorkoutLog{}
	for rows.Next() {
		var l models.WorkoutLog
		var raw []byte
		if err := rows.Scan(&l.ID, &l.UserID, &l.PlanID, &l.StartTime, &l.EndTime, &raw, &l.Source, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout log: %w", err)
		}
		if err := json.Unmarshal(raw, &l.Exercises); err != nil {
			return nil, fmt.Errorf("decoding workout log %s: %w", l.ID, err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// HistoryEntry is one logged exercise occurrence with its sets.
type HistoryEntry struct {
	LogID     uuid.UUID          `json:"log_id"`
	StartTime time.Time          `json:"start_time"`
	Name      string             `json:"name"`
	Type      string             `json:"type,omitempty"`
	Sets      []models.LoggedSet `json:"sets"`
	MaxWeight float64            `json:"max_weight"`
	Volume    float64            `json:"volume"`
}

// ExerciseHistory returns every logged occurrence of exercises whose name
// contains the given text (case-insensitive), newest first.
func (db *DB) ExerciseHistory(ctx context.Context, userID int, name string, start, end time.Time) ([]HistoryEntry, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(name)) + "%"
	rows, err := db.Pool.Query(ctx,
		`SELECT l.id, l.start_time, ex->>'name', COALESCE(ex->>'type', ''), ex->'sets'
		 FROM workout_logs l, jsonb_array_elements(l.exercises) AS ex
		 WHERE l.user_id = $1 AND l.start_time >= $2 AND l.start_time < $3
		   AND ex->>'name' ILIKE $4
		 ORDER BY l.start_time DESC`, userID, start, end, pattern)
	if err != nil {
		return nil, fmt.Errorf("querying exercise history: %w", err)
	}
	defer rows.Close()

	result := []HistoryEntry{}
	for rows.Next() {
		var h HistoryEntry
		var raw []byte
		if err := rows.Scan(&h.LogID, &h.StartTime, &h.Name, &h.Type, &raw); err != nil {
			return nil, fmt.Errorf("scanning exercise history: %w", err)
		}
		if err := json.Unmarshal(raw, &h.Sets); err != nil {
			return nil, fmt.Errorf("decoding sets of log %s: %w", h.LogID, err)
		}
		h.MaxWeight, h.Volume = summarizeSets(h.Sets)
		result = append(result, h)
	}
	return result, rows.Err()
}

func summarizeSets(sets []models.LoggedSet) (maxWeight, volume float64) {
	for _, s := range sets {
		if s.Weight > maxWeight {
			maxWeight = s.Weight
		}
		volume += s.Weight * float64(s.Reps)
	}
	return maxWeight, volume
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
