package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/topicless/hub/internal/models"
	"github.com/topicless/hub/internal/services"
)

type fakeAuth struct {
	userID uuid.UUID
	err    error
}

func (f *fakeAuth) HashPassword(password string) (string, error) { return "", nil }
func (f *fakeAuth) VerifyPassword(hash, password string) bool    { return false }

func (f *fakeAuth) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	return "", nil
}

func (f *fakeAuth) ValidateSession(ctx context.Context, token string) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	return f.userID, nil
}

func (f *fakeAuth) DeleteSession(ctx context.Context, token string) error { return nil }

type fakeUsers struct {
	user     *models.User
	err      error
	activity int
}

func (f *fakeUsers) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	return nil, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, services.ErrUserNotFound
}

func (f *fakeUsers) UpdateDisplayName(ctx context.Context, userID uuid.UUID, displayName string) error {
	return nil
}

func (f *fakeUsers) RecordActivity(ctx context.Context, userID uuid.UUID, day time.Time) error {
	f.activity++
	return nil
}

func TestAuthenticate_AttachesUser(t *testing.T) {
	user := &models.User{ID: uuid.New(), DisplayName: "pat"}
	users := &fakeUsers{user: user}
	a := NewAuthenticator(&fakeAuth{userID: user.ID}, users)

	var got *models.User
	handler := a.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != user.ID {
		t.Fatalf("expected user in context, got %v", got)
	}
	if users.activity != 1 {
		t.Fatalf("expected one activity touch, got %d", users.activity)
	}
}

func TestAuthenticate_NoCookiePassesThrough(t *testing.T) {
	a := NewAuthenticator(&fakeAuth{}, &fakeUsers{})

	var got *models.User
	handler := a.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != nil {
		t.Fatalf("expected no user, got %v", got)
	}
}

func TestAuthenticate_BadSessionPassesThrough(t *testing.T) {
	a := NewAuthenticator(&fakeAuth{err: services.ErrSessionNotFound}, &fakeUsers{})

	called := false
	handler := a.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if UserFromContext(r.Context()) != nil {
			t.Fatal("expected no user for bad session")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestRequireSession(t *testing.T) {
	handler := RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: uuid.New()}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: uuid.New()}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: uuid.New(), IsAdmin: true}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for admin, got %d", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := GetClientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected 10.0.0.1, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := GetClientIP(req); got != "203.0.113.9" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}
}
