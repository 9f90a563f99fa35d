package storage

import (
	"context"
	"fmt"

	"github.com/claude/gymlog/internal/models"
)

// GetOrCreateUser finds or creates a user by Tailscale login name.
// Returns the user ID. Updates last_seen and display_name on each call.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user %s: %w", login, err)
	}
	return id, nil
}

// GetProfile returns the profile of a user.
func (db *DB) GetProfile(ctx context.Context, userID int) (*models.Profile, error) {
	var p models.Profile
	err := db.Pool.QueryRow(ctx,
		`SELECT id, login, display_name, first_name, last_name, updated_at
		 FROM users WHERE id = $1`, userID).
		Scan(&p.UserID, &p.Login, &p.DisplayName, &p.FirstName, &p.LastName, &p.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "querying profile %d", userID)
	}
	return &p, nil
}

// UpdateProfile sets the first and last name of a user.
func (db *DB) UpdateProfile(ctx context.Context, userID int, firstName, lastName string) (*models.Profile, error) {
	var p models.Profile
	err := db.Pool.QueryRow(ctx,
		`UPDATE users SET first_name = $2, last_name = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, login, display_name, first_name, last_name, updated_at`,
		userID, firstName, lastName).
		Scan(&p.UserID, &p.Login, &p.DisplayName, &p.FirstName, &p.LastName, &p.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "updating profile %d", userID)
	}
	return &p, nil
}

// DeleteUser removes a user and, by cascade, all their plans, exercises and logs.
func (db *DB) DeleteUser(ctx context.Context, userID int) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting user %d: %w", userID, ErrNotFound)
	}
	return nil
}
