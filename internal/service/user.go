package service

import (
	"TimeCapsule/internal/model"
	"TimeCapsule/internal/repo"
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrLoginTaken — логин или email уже заняты.
	ErrLoginTaken = errors.New("login or email already taken")
	// ErrInvalidCredentials — пара логин/пароль не подошла.
	ErrInvalidCredentials = errors.New("invalid login or password")
)

// UserService инкапсулирует регистрацию и аутентификацию.
type UserService struct {
	repo repo.UserRepository
}

func NewUserService(r repo.UserRepository) *UserService {
	return &UserService{repo: r}
}

// Register создаёт пользователя с bcrypt-хешем пароля.
func (s *UserService) Register(ctx context.Context, login, email, timezone, password string) (*model.User, error) {
	if login == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: login, email and password are required", ErrInvalidCredentials)
	}

	existing, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrLoginTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Login:        login,
		Email:        email,
		Timezone:     timezone,
		PasswordHash: hash,
	}
	return s.repo.CreateUser(ctx, u)
}

// Authenticate возвращает пользователя, если пароль совпал.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
