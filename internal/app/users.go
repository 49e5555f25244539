/**
 * @description
 * Account management and authentication: registration with bcrypt hashing,
 * credential verification and JWT issuance for the protected routes.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/remindyoursubs/backend/internal/domain"
	"github.com/remindyoursubs/backend/internal/store"
)

// ErrInvalidCredentials is returned on login when the email is unknown or the
// password does not match. Both cases share one error so responses cannot be
// used to probe for registered emails.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserRepository defines the database operations the user service needs.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// UserService handles accounts and login.
type UserService struct {
	repo        UserRepository
	logger      *slog.Logger
	tokenSecret []byte
	tokenTTL    time.Duration
	now         func() time.Time
}

// NewUserService creates a new user service. Issued tokens are signed with
// tokenSecret and expire after tokenTTL.
func NewUserService(repo UserRepository, logger *slog.Logger, tokenSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		repo:        repo,
		logger:      logger,
		tokenSecret: []byte(tokenSecret),
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, req *domain.UserRequest) (*domain.UserResponse, error) {
	if err := req.Validate(true); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, &domain.User{
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		Name:               req.Name,
		PasswordHash:       string(hash),
		ReminderDaysBefore: req.ReminderDaysBefore,
		ResendAPIKey:       req.ResendAPIKey,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	resp := domain.NewUserResponse(user)
	return &resp, nil
}

// Login verifies the credentials and issues a signed JWT.
func (s *UserService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	return &domain.LoginResponse{Token: token, User: domain.NewUserResponse(user)}, nil
}

func (s *UserService) issueToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.tokenSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Get returns one user profile.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.UserResponse, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := domain.NewUserResponse(user)
	return &resp, nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]domain.UserResponse, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, domain.NewUserResponse(&users[i]))
	}
	return out, nil
}

// Update overwrites a user's profile fields. An empty password keeps the
// current hash.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *domain.UserRequest) (*domain.UserResponse, error) {
	if err := req.Validate(false); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user.Name = req.Name
	user.ReminderDaysBefore = req.ReminderDaysBefore
	user.ResendAPIKey = req.ResendAPIKey
	if req.Password != "" {
		if len(req.Password) < 8 {
			return nil, &domain.ValidationError{Field: "password", Message: "must be at least 8 characters"}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	updated, err := s.repo.UpdateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	resp := domain.NewUserResponse(updated)
	return &resp, nil
}

// Delete removes a user account.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteUser(ctx, id)
}
