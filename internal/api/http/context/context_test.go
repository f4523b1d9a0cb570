package context

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestManager_Roundtrip(t *testing.T) {
	m := NewManager()
	id := uuid.New()

	ctx := m.SetUserIDToContext(context.Background(), id)

	got, ok := m.GetUserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestManager_MissingUserID(t *testing.T) {
	m := NewManager()

	_, ok := m.GetUserIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestManager_NilUserID(t *testing.T) {
	m := NewManager()

	ctx := m.SetUserIDToContext(context.Background(), uuid.Nil)
	_, ok := m.GetUserIDFromContext(ctx)
	assert.False(t, ok)
}
