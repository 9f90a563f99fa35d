// Package identity carries the authenticated user through request contexts.
package identity

import "context"

type contextKey int

const userKey contextKey = iota

// User is the resolved caller of a request.
type User struct {
	ID          int    `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// DevUser is the identity used when no network identity provider is configured.
var DevUser = User{ID: 1, Login: "local", DisplayName: "Local Dev User"}

// WithUser returns a context carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// FromContext returns the user stored by WithUser, if any.
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	if !ok || u.ID == 0 {
		return User{}, false
	}
	return u, true
}

// UserID returns the ID of the user in ctx, or 0.
func UserID(ctx context.Context) int {
	u, _ := FromContext(ctx)
	return u.ID
}
