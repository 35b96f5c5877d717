// Package auth содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daniellaterapia/visit-tracker/internal/lib/jwt"
	"github.com/daniellaterapia/visit-tracker/internal/lib/password"
	"github.com/daniellaterapia/visit-tracker/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
// Текст одинаков для несуществующего пользователя и неверного пароля,
// чтобы не раскрывать, какие адреса зарегистрированы.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken возвращается при попытке регистрации на занятый email.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository описывает контракт для работы с таблицей пользователей.
// Таблица — один документ users.json; обновление выполняется целиком
// (read-modify-write), см. шлюз персистентности.
type UserRepository interface {
	// LoadUsers возвращает отображение email -> User.
	LoadUsers(ctx context.Context) (map[string]models.User, error)

	// SaveUsers сохраняет таблицу пользователей целиком.
	SaveUsers(ctx context.Context, users map[string]models.User) error
}

// Service отвечает за регистрацию, авторизацию и валидацию JWT.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля.
// Запись таблицы пользователей синхронная: учётная запись не должна
// существовать только в локальном кеше.
func (s *Service) Register(ctx context.Context, name, email, rawPassword string) (string, error) {
	const op = "auth.Register"
	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if _, exists := users[email]; exists {
		return "", ErrEmailTaken
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		UID:          uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	users[email] = user
	if err := s.users.SaveUsers(ctx, users); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return user.UID, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (token string, user *models.User, err error) {
	const op = "auth.Login"
	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	found, exists := users[email]
	if !exists {
		return "", nil, ErrInvalidCredentials
	}
	if err := password.CompareHash(found.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(found.Email, found.Name, found.UID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, &found, nil
}

// ValidateToken проверяет JWT и возвращает данные пользователя из claims.
func (s *Service) ValidateToken(_ context.Context, token string) (*models.User, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &models.User{
		UID:   claims.UserUID,
		Name:  claims.Name,
		Email: claims.Email,
	}, nil
}
