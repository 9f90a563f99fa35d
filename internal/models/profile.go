package models

import "time"

// Profile is the editable account information of a user.
type Profile struct {
	UserID      int       `json:"user_id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}
