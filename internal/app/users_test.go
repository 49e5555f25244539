package app

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/remindyoursubs/backend/internal/domain"
	"github.com/remindyoursubs/backend/internal/store"
)

type stubUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *stubUserRepo) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, store.ErrEmailTaken
		}
	}
	out := *user
	out.ID = uuid.New()
	out.CreatedAt = time.Now()
	out.UpdatedAt = out.CreatedAt
	r.users[out.ID] = &out
	copied := out
	return &copied, nil
}

func (r *stubUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *stubUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (r *stubUserRepo) ListUsers(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) UpdateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return nil, store.ErrUserNotFound
	}
	out := *user
	out.UpdatedAt = time.Now()
	r.users[out.ID] = &out
	copied := out
	return &copied, nil
}

func (r *stubUserRepo) DeleteUser(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

const testTokenSecret = "test-secret-do-not-use"

func newTestUserService(repo *stubUserRepo) *UserService {
	return NewUserService(repo, testLogger(), testTokenSecret, time.Hour)
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestUserService(repo)

	resp, err := svc.Register(context.Background(), &domain.UserRequest{
		Email:    "Jane@Example.com",
		Name:     "Jane",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if resp.Email != "jane@example.com" {
		t.Errorf("expected normalized email, got %q", resp.Email)
	}

	stored := repo.users[resp.ID]
	if stored.PasswordHash == "correct horse" || stored.PasswordHash == "" {
		t.Error("expected stored password to be a hash")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestUserService(repo)
	req := &domain.UserRequest{Email: "jane@example.com", Name: "Jane", Password: "correct horse"}

	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, err := svc.Register(context.Background(), req); err != store.ErrEmailTaken {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestUserService(repo)

	tests := []struct {
		name string
		req  domain.UserRequest
	}{
		{"bad email", domain.UserRequest{Email: "not-an-email", Name: "Jane", Password: "correct horse"}},
		{"missing name", domain.UserRequest{Email: "jane@example.com", Password: "correct horse"}},
		{"short password", domain.UserRequest{Email: "jane@example.com", Name: "Jane", Password: "short"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), &tc.req); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoginIssuesToken(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestUserService(repo)

	registered, err := svc.Register(context.Background(), &domain.UserRequest{
		Email:    "jane@example.com",
		Name:     "Jane",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "jane@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (any, error) {
		return []byte(testTokenSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token failed to parse: %v", err)
	}
	if claims.Subject != registered.ID.String() {
		t.Errorf("token subject %q does not match user %q", claims.Subject, registered.ID)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestUserService(repo)

	svc.Register(context.Background(), &domain.UserRequest{
		Email:    "jane@example.com",
		Name:     "Jane",
		Password: "correct horse",
	})

	tests := []struct {
		name string
		req  domain.LoginRequest
	}{
		{"wrong password", domain.LoginRequest{Email: "jane@example.com", Password: "wrong horse"}},
		{"unknown email", domain.LoginRequest{Email: "nobody@example.com", Password: "correct horse"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(context.Background(), &tc.req); err != ErrInvalidCredentials {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestUpdateKeepsPasswordWhenOmitted(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestUserService(repo)

	registered, _ := svc.Register(context.Background(), &domain.UserRequest{
		Email:    "jane@example.com",
		Name:     "Jane",
		Password: "correct horse",
	})
	before := repo.users[registered.ID].PasswordHash

	_, err := svc.Update(context.Background(), registered.ID, &domain.UserRequest{
		Email:              "jane@example.com",
		Name:               "Jane D",
		ReminderDaysBefore: 3,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	after := repo.users[registered.ID]
	if after.PasswordHash != before {
		t.Error("expected password hash to be unchanged")
	}
	if after.Name != "Jane D" || after.ReminderDaysBefore != 3 {
		t.Errorf("unexpected updated user: %+v", after)
	}
}
