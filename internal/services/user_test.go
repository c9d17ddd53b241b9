package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/topicless/hub/internal/models"
)

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(true)
		},
	}
	svc := NewUserService(db)
	_, err := svc.Create(context.Background(), models.CreateUserParams{Email: "pat@example.com", DisplayName: "pat"})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestUserService_Create_NullPasswordForProviderUsers(t *testing.T) {
	userID := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "SELECT EXISTS") {
				return rowFromValues(false)
			}
			if args[1] != (*string)(nil) {
				t.Fatalf("expected nil password hash, got %v", args[1])
			}
			return rowFromValues(userID, "pat@example.com", nil, "pat", nil, false, 0, nil, time.Now(), time.Now())
		},
	}
	svc := NewUserService(db)
	user, err := svc.Create(context.Background(), models.CreateUserParams{Email: "pat@example.com", DisplayName: "pat"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatalf("expected empty password hash, got %q", user.PasswordHash)
	}
	if user.ID != userID {
		t.Fatalf("expected %s, got %s", userID, user.ID)
	}
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowWithError(pgx.ErrNoRows)
		},
	}
	svc := NewUserService(db)
	if _, err := svc.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_RecordActivity_PassesDay(t *testing.T) {
	var gotDate string
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "streak_count = CASE") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			gotDate = args[1].(string)
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	svc := NewUserService(db)
	day := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	if err := svc.RecordActivity(context.Background(), uuid.New(), day); err != nil {
		t.Fatalf("record activity: %v", err)
	}
	if gotDate != "2026-01-02" {
		t.Fatalf("expected 2026-01-02, got %q", gotDate)
	}
}

func TestUserService_UpdateDisplayName_NotFound(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{}, nil
		},
	}
	svc := NewUserService(db)
	if err := svc.UpdateDisplayName(context.Background(), uuid.New(), "new name"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
