package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

// AuthService handles account registration and credential verification.
type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, usernameOrEmail, password string) (string, *domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type authService struct {
	users      repository.UserRepository
	tokens     TokenService
	bcryptCost int
}

func NewAuthService(users repository.UserRepository, tokens TokenService, bcryptCost int) AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

func (s *authService) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)

	if len(username) < 3 {
		return nil, fmt.Errorf("%w: username must be at least 3 characters", domain.ErrValidation)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *authService) Login(ctx context.Context, usernameOrEmail, password string) (string, *domain.User, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	// signup hashes the trimmed password, so the same trim must happen here
	password = strings.TrimSpace(password)
	if usernameOrEmail == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, usernameOrEmail)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.users.GetByEmail(ctx, strings.ToLower(usernameOrEmail))
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", nil, err
	}

	return token, sanitizeUser(user), nil
}

func (s *authService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// sanitizeUser strips the password hash before the user leaves the service.
func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
