package service

import (
	"TimeCapsule/internal/model"
	"TimeCapsule/internal/repo"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Minimal mock
type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	args := m.Called(ctx, login)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.UserRepository = (*mockUserRepo)(nil)

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		m := new(mockUserRepo)
		m.On("GetUserByLogin", mock.Anything, "john").Return((*model.User)(nil), nil).Once()
		m.On("CreateUser", mock.Anything, mock.Anything).Return(&model.User{ID: 42, Login: "john", Email: "j@example.com"}, nil).Once()

		u, err := NewUserService(m).Register(ctx, "john", "j@example.com", "UTC", "pass123")
		require.NoError(t, err)
		assert.Equal(t, int64(42), u.ID)
		m.AssertExpectations(t)
	})

	t.Run("login taken", func(t *testing.T) {
		m := new(mockUserRepo)
		m.On("GetUserByLogin", mock.Anything, "john").Return(&model.User{ID: 1, Login: "john"}, nil).Once()

		_, err := NewUserService(m).Register(ctx, "john", "j@example.com", "UTC", "pass123")
		assert.ErrorIs(t, err, ErrLoginTaken)
	})

	t.Run("empty fields", func(t *testing.T) {
		m := new(mockUserRepo)
		_, err := NewUserService(m).Register(ctx, "", "", "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()

	// регистрируем через настоящий bcrypt, чтобы проверить пару хеш/пароль
	m := new(mockUserRepo)
	var stored *model.User
	m.On("GetUserByLogin", mock.Anything, "john").Return((*model.User)(nil), nil).Once()
	m.On("CreateUser", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*model.User)
		stored.ID = 7
	}).Return(&model.User{}, nil).Once()
	svc := NewUserService(m)
	_, err := svc.Register(ctx, "john", "j@example.com", "UTC", "secret-pass")
	require.NoError(t, err)
	require.NotNil(t, stored)

	m.On("GetUserByLogin", mock.Anything, "john").Return(stored, nil)

	u, err := svc.Authenticate(ctx, "john", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)

	_, err = svc.Authenticate(ctx, "john", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	m2 := new(mockUserRepo)
	m2.On("GetUserByLogin", mock.Anything, "ghost").Return((*model.User)(nil), nil)
	_, err = NewUserService(m2).Authenticate(ctx, "ghost", "pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
