package storage

import (
	"context"
	"fmt"

	"github.com/claude/gymlog/internal/models"
)

// findOrCreateExercise returns the ID of the user's exercise with this name
// and type, creating it if needed. The single upsert statement keeps two
// concurrent plan saves from creating duplicate rows.
func findOrCreateExercise(ctx context.Context, q querier, userID int, name string, typ models.EquipmentType) (int64, error) {
	var id int64
	err := q.QueryRow(ctx,
		`INSERT INTO exercises (user_id, name, type) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, name, type) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		userID, name, string(typ)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting exercise %q: %w", name, err)
	}
	return id, nil
}

// FindOrCreateExercise is findOrCreateExercise on the connection pool.
func (db *DB) FindOrCreateExercise(ctx context.Context, userID int, name string, typ models.EquipmentType) (int64, error) {
	return findOrCreateExercise(ctx, db.Pool, userID, name, typ)
}

// ListExercises returns all exercises a user has created, by name.
func (db *DB) ListExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, type FROM exercises WHERE user_id = $1 ORDER BY name, type`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var ex models.Exercise
		var typ string
		if err := rows.Scan(&ex.ID, &ex.Name, &typ); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		ex.Type = models.EquipmentType(typ)
		result = append(result, ex)
	}
	return result, rows.Err()
}
