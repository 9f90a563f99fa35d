package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/gymlog/internal/models"
	"github.com/jackc/pgx/v5"
)

// PlanSummary is a plan row without its exercises, for listings.
type PlanSummary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ExerciseCount int    `json:"exercise_count"`
	TotalSets     int    `json:"total_sets"`
}

// ListPlans returns the user's plans, newest first.
func (db *DB) ListPlans(ctx context.Context, userID int) ([]PlanSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT p.id, p.name, COUNT(pe.position), COALESCE(SUM(pe.sets), 0)
		 FROM workout_plans p
		 LEFT JOIN workout_plan_exercises pe ON pe.workout_plan_id = p.id
		 WHERE p.user_id = $1
		 GROUP BY p.id
		 ORDER BY p.created_at DESC, p.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	result := []PlanSummary{}
	for rows.Next() {
		var s PlanSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.ExerciseCount, &s.TotalSets); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetPlan returns a plan with its exercises in position order. Plans owned by
// another user are reported as ErrNotFound.
func (db *DB) GetPlan(ctx context.Context, planID int64, userID int) (*models.Plan, error) {
	return getPlan(ctx, db.Pool, planID, userID)
}

func getPlan(ctx context.Context, q querier, planID int64, userID int) (*models.Plan, error) {
	var p models.Plan
	err := q.QueryRow(ctx,
		`SELECT id, user_id, name, created_at FROM workout_plans WHERE id = $1 AND user_id = $2`,
		planID, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "querying plan %d", planID)
	}

	rows, err := q.Query(ctx,
		`SELECT e.id, e.name, e.type, pe.sets
		 FROM workout_plan_exercises pe
		 JOIN exercises e ON e.id = pe.exercise_id
		 WHERE pe.workout_plan_id = $1
		 ORDER BY pe.position`, planID)
	if err != nil {
		return nil, fmt.Errorf("querying plan %d exercises: %w", planID, err)
	}
	defer rows.Close()

	p.Exercises = []models.Exercise{}
	for rows.Next() {
		var ex models.Exercise
		var typ string
		if err := rows.Scan(&ex.ID, &ex.Name, &typ, &ex.Sets); err != nil {
			return nil, fmt.Errorf("scanning plan exercise: %w", err)
		}
		ex.Type = models.EquipmentType(typ)
		p.Exercises = append(p.Exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan exercises: %w", err)
	}
	return &p, nil
}

// CreatePlan stores a new plan for userID, creating any exercises it names
// that the user does not have yet. The plan's ID and exercise IDs are filled in.
func (db *DB) CreatePlan(ctx context.Context, userID int, plan *models.Plan) error {
	plan.Name = strings.TrimSpace(plan.Name)
	if err := plan.Validate(); err != nil {
		return err
	}
	return db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO workout_plans (user_id, name) VALUES ($1, $2) RETURNING id, created_at`,
			userID, plan.Name).Scan(&plan.ID, &plan.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting plan: %w", err)
		}
		plan.UserID = userID
		return writePlanExercises(ctx, tx, userID, plan)
	})
}

// UpdatePlan replaces the name and exercise list of an existing plan.
func (db *DB) UpdatePlan(ctx context.Context, userID int, plan *models.Plan) error {
	plan.Name = strings.TrimSpace(plan.Name)
	if err := plan.Validate(); err != nil {
		return err
	}
	return db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE workout_plans SET name = $3 WHERE id = $1 AND user_id = $2 RETURNING created_at`,
			plan.ID, userID, plan.Name).Scan(&plan.CreatedAt)
		if err != nil {
			return notFoundWrap(err, "updating plan %d", plan.ID)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM workout_plan_exercises WHERE workout_plan_id = $1`, plan.ID); err != nil {
			return fmt.Errorf("clearing plan %d exercises: %w", plan.ID, err)
		}
		plan.UserID = userID
		return writePlanExercises(ctx, tx, userID, plan)
	})
}

func writePlanExercises(ctx context.Context, tx pgx.Tx, userID int, plan *models.Plan) error {
	for i := range plan.Exercises {
		ex := &plan.Exercises[i]
		ex.Name = strings.TrimSpace(ex.Name)
		id, err := findOrCreateExercise(ctx, tx, userID, ex.Name, ex.Type)
		if err != nil {
			return err
		}
		ex.ID = id
		if _, err := tx.Exec(ctx,
			`INSERT INTO workout_plan_exercises (workout_plan_id, position, exercise_id, sets)
			 VALUES ($1, $2, $3, $4)`,
			plan.ID, i, ex.ID, ex.Sets); err != nil {
			return fmt.Errorf("inserting plan exercise %d: %w", i, err)
		}
	}
	return nil
}

// DeletePlan removes a plan. Logs recorded against it keep their data.
func (db *DB) DeletePlan(ctx context.Context, planID int64, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workout_plans WHERE id = $1 AND user_id = $2`, planID, userID)
	if err != nil {
		return fmt.Errorf("deleting plan %d: %w", planID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting plan %d: %w", planID, ErrNotFound)
	}
	return nil
}

// CopyPlan duplicates a plan as "Copy of <name>" and returns the new plan.
func (db *DB) CopyPlan(ctx context.Context, planID int64, userID int) (*models.Plan, error) {
	var out *models.Plan
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		src, err := getPlan(ctx, tx, planID, userID)
		if err != nil {
			return err
		}
		cp := &models.Plan{UserID: userID, Name: CopyName(src.Name), Exercises: src.Exercises}
		err = tx.QueryRow(ctx,
			`INSERT INTO workout_plans (user_id, name) VALUES ($1, $2) RETURNING id, created_at`,
			userID, cp.Name).Scan(&cp.ID, &cp.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting plan copy: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO workout_plan_exercises (workout_plan_id, position, exercise_id, sets)
			 SELECT $2, position, exercise_id, sets
			 FROM workout_plan_exercises WHERE workout_plan_id = $1`,
			planID, cp.ID); err != nil {
			return fmt.Errorf("copying plan exercises: %w", err)
		}
		out = cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CopyName is the name given to a duplicated plan.
func CopyName(name string) string {
	return "Copy of " + name
}
