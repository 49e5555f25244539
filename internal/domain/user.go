/**
 * @description
 * User domain model and the auth/profile DTOs. Passwords are stored as bcrypt
 * hashes and never leave the store layer in responses.
 */
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account that owns subscriptions, payment methods and
// notifications.
type User struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	PasswordHash       string    `json:"-"`
	ReminderDaysBefore int       `json:"reminder_days_before"`
	ResendAPIKey       *string   `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UserRequest is the payload for registering or updating a user.
type UserRequest struct {
	Email              string  `json:"email"`
	Name               string  `json:"name"`
	Password           string  `json:"password,omitempty"`
	ReminderDaysBefore int     `json:"reminder_days_before"`
	ResendAPIKey       *string `json:"resend_api_key,omitempty"`
}

// Validate rejects malformed requests. Password presence is only enforced on
// registration; updates may omit it to keep the current one.
func (r *UserRequest) Validate(requirePassword bool) error {
	if strings.TrimSpace(r.Email) == "" || !strings.Contains(r.Email, "@") {
		return invalid("email", "a valid email is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", "name is required")
	}
	if requirePassword && len(r.Password) < 8 {
		return invalid("password", "must be at least 8 characters")
	}
	if r.ReminderDaysBefore < 0 {
		return invalid("reminder_days_before", "must not be negative")
	}
	return nil
}

// UserResponse is the API representation of a user.
type UserResponse struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	ReminderDaysBefore int       `json:"reminder_days_before"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewUserResponse converts a user to its API representation.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		ReminderDaysBefore: u.ReminderDaysBefore,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

// LoginRequest is the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued JWT and the authenticated user.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
