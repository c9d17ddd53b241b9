package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	values   map[string]string
	expires  map[string]time.Duration
	getErr   error
	setErr   error
	expErr   error
	deleted  []string
	expCalls int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, expires: map[string]time.Duration{}}
}

func (r *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.values[key] = value.(string)
	r.expires[key] = expiration
	return nil
}

func (r *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	if r.getErr != nil {
		return "", r.getErr
	}
	value, ok := r.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (r *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	r.expCalls++
	if r.expErr != nil {
		return r.expErr
	}
	r.expires[key] = expiration
	return nil
}

func (r *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(r.values, key)
		r.deleted = append(r.deleted, key)
	}
	return nil
}

func TestAuthService_PasswordRoundTrip(t *testing.T) {
	svc := NewAuthService(&fakeDB{}, newFakeRedis())
	hash, err := svc.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2hunter2" {
		t.Fatal("hash must not equal the password")
	}
	if !svc.VerifyPassword(hash, "hunter2hunter2") {
		t.Fatal("expected password to verify")
	}
	if svc.VerifyPassword(hash, "wrong") {
		t.Fatal("wrong password must not verify")
	}
}

func TestAuthService_SessionLifecycle(t *testing.T) {
	r := newFakeRedis()
	svc := NewAuthService(&fakeDB{}, r)
	userID := uuid.New()

	token, err := svc.CreateSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(token))
	}
	if r.expires[sessionKeyPrefix+token] != sessionTTL {
		t.Fatalf("expected ttl %v, got %v", sessionTTL, r.expires[sessionKeyPrefix+token])
	}

	got, err := svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got != userID {
		t.Fatalf("expected %s, got %s", userID, got)
	}
	if r.expCalls != 1 {
		t.Fatal("validate must slide the expiry")
	}

	if err := svc.DeleteSession(context.Background(), token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.ValidateSession(context.Background(), token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestAuthService_ValidateSession_Missing(t *testing.T) {
	svc := NewAuthService(&fakeDB{}, newFakeRedis())
	if _, err := svc.ValidateSession(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.ValidateSession(context.Background(), ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for empty token, got %v", err)
	}
}

func TestAuthService_ValidateSession_BadStoredValue(t *testing.T) {
	r := newFakeRedis()
	r.values[sessionKeyPrefix+"tok"] = "not-a-uuid"
	svc := NewAuthService(&fakeDB{}, r)
	if _, err := svc.ValidateSession(context.Background(), "tok"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthService_SessionKeysArePrefixed(t *testing.T) {
	r := newFakeRedis()
	svc := NewAuthService(&fakeDB{}, r)
	token, err := svc.CreateSession(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for key := range r.values {
		if !strings.HasPrefix(key, sessionKeyPrefix) {
			t.Fatalf("expected prefixed key, got %q", key)
		}
	}
	if err := svc.DeleteSession(context.Background(), token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(r.deleted) != 1 || !strings.HasPrefix(r.deleted[0], sessionKeyPrefix) {
		t.Fatalf("expected prefixed delete, got %v", r.deleted)
	}
}
