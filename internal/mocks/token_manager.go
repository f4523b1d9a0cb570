package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/minicrm/server/internal/model"
)

// TokenManager is a mock implementation of model.TokenManager.
type TokenManager struct {
	mock.Mock
}

func (m *TokenManager) Generate(user model.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) Parse(token string) (model.TokenClaims, error) {
	args := m.Called(token)
	return args.Get(0).(model.TokenClaims), args.Error(1)
}
