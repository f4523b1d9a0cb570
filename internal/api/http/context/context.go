// Package context carries the authenticated user ID on request contexts.
package context

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// userIDKey is the context key under which the authenticated user ID is
// stored.
const userIDKey contextKey = "user_id"

// Manager implements model.ContextManager for HTTP request contexts.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetUserIDToContext returns a child context carrying the user ID.
func (m *Manager) SetUserIDToContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext retrieves the user ID set by the authentication
// middleware, reporting whether one was present.
func (m *Manager) GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}
