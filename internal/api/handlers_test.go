/**
 * @description
 * This file contains tests for the HTTP handlers, focused on the login
 * endpoint's interaction with the rate limiter.
 */
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/remindyoursubs/backend/internal/app"
	"github.com/remindyoursubs/backend/internal/domain"
	"github.com/remindyoursubs/backend/internal/store"
)

type stubLoginUserRepo struct {
	user *domain.User
}

func (r *stubLoginUserRepo) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	return user, nil
}

func (r *stubLoginUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, store.ErrUserNotFound
}

func (r *stubLoginUserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if r.user != nil && r.user.Email == email {
		return r.user, nil
	}
	return nil, store.ErrUserNotFound
}

func (r *stubLoginUserRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	return nil, nil
}

func (r *stubLoginUserRepo) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	return user, nil
}

func (r *stubLoginUserRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return nil
}

func TestLoginProceedsWhenRateLimiterUnavailable(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword returned error: %v", err)
	}
	repo := &stubLoginUserRepo{user: &domain.User{
		ID:           uuid.New(),
		Email:        "ada@example.com",
		Name:         "Ada",
		PasswordHash: string(hash),
	}}

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	users := app.NewUserService(repo, logger, "test-secret", time.Hour)

	// A client pointed at a closed port makes every limiter call error.
	unreachable := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { unreachable.Close() })
	limiter := app.NewRedisLoginRateLimiter(unreachable, "")

	handler := NewHandler(users, nil, nil, nil, limiter, 5, time.Minute, logger)

	body := `{"email":"ada@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 when limiter is down, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token in the login response")
	}

	if !strings.Contains(logBuf.String(), "rate limiter unavailable") {
		t.Errorf("expected a limiter warning in the log, got: %s", logBuf.String())
	}
}
