package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/qsd/pkg/qsd"
	"golang.org/x/crypto/bcrypt"
)

// CreateUserRequest contains parameters for creating a user
type CreateUserRequest struct {
	Username string
	Email    string
	Password string
	Roles    []string
}

// Service authenticates and manages users.
type Service struct {
	users qsd.UserRepository
	cost  int
}

// NewService creates a user service over repo. cost <= 0 selects bcrypt.DefaultCost.
func NewService(repo qsd.UserRepository, cost int) *Service {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{users: repo, cost: cost}
}

// CreateUser stores a new user with a hashed password.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*qsd.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, &qsd.ValidationError{Field: "username", Message: "is required"}
	}
	if req.Password == "" {
		return nil, &qsd.ValidationError{Field: "password", Message: "is required"}
	}

	hash, err := HashPassword(req.Password, s.cost)
	if err != nil {
		return nil, err
	}

	user := &qsd.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        req.Email,
		PasswordHash: hash,
		Roles:        req.Roles,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return user, nil
}

// GetOrCreateUser returns the existing user named req.Username, or creates it.
func (s *Service) GetOrCreateUser(ctx context.Context, req CreateUserRequest) (*qsd.User, bool, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, qsd.ErrUserNotFound) {
		return nil, false, err
	}
	user, err = s.CreateUser(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Authenticate checks username and password. Unknown users and wrong
// passwords both return qsd.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*qsd.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, qsd.ErrUserNotFound) {
			return nil, qsd.ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, qsd.ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns the user with the given id
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*qsd.User, error) {
	return s.users.GetUser(ctx, id)
}

// GetUserByUsername returns the user with the given username
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*qsd.User, error) {
	return s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
}

// ListUsers returns every user ordered by username
func (s *Service) ListUsers(ctx context.Context) ([]*qsd.User, error) {
	return s.users.ListUsers(ctx)
}

// SetPassword replaces the user's password hash.
func (s *Service) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return err
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.UpdateUser(ctx, user)
}

// AddRole grants role to the user if missing.
func (s *Service) AddRole(ctx context.Context, id uuid.UUID, role string) error {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.HasRole(role) {
		return nil
	}
	user.Roles = append(user.Roles, role)
	return s.users.UpdateUser(ctx, user)
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
