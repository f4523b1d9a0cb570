// Package mocks provides testify mocks for model interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/minicrm/server/internal/model"
)

// UserStore is a mock implementation of model.UserStore.
type UserStore struct {
	mock.Mock
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	ret := m.Called(ctx, email)
	if rf, ok := ret.Get(0).(func(context.Context, string) (model.User, error)); ok {
		return rf(ctx, email)
	}
	return ret.Get(0).(model.User), ret.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	ret := m.Called(ctx, id)
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) (model.User, error)); ok {
		return rf(ctx, id)
	}
	return ret.Get(0).(model.User), ret.Error(1)
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	ret := m.Called(ctx, user)
	if rf, ok := ret.Get(0).(func(context.Context, model.User) (model.User, error)); ok {
		return rf(ctx, user)
	}
	return ret.Get(0).(model.User), ret.Error(1)
}

func (m *UserStore) Update(ctx context.Context, user model.User) (model.User, error) {
	ret := m.Called(ctx, user)
	if rf, ok := ret.Get(0).(func(context.Context, model.User) (model.User, error)); ok {
		return rf(ctx, user)
	}
	return ret.Get(0).(model.User), ret.Error(1)
}
