package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/topicless/hub/internal/logging"
	"github.com/topicless/hub/internal/models"
	"github.com/topicless/hub/internal/services"
)

type contextKey string

const userContextKey contextKey = "user"

// SessionCookieName is where the opaque session token lives.
const SessionCookieName = "hub_session"

// Authenticator resolves the session cookie to a user and stashes them in
// the request context. Downstream handlers decide whether a user is
// required.
type Authenticator struct {
	auth  services.AuthServiceInterface
	users services.UserServiceInterface
}

func NewAuthenticator(auth services.AuthServiceInterface, users services.UserServiceInterface) *Authenticator {
	return &Authenticator{auth: auth, users: users}
}

// Authenticate is best-effort: unauthenticated requests pass through with
// no user in context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := a.auth.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.users.GetByID(r.Context(), userID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		// Touch the streak on any authenticated request.
		if err := a.users.RecordActivity(r.Context(), user.ID, time.Now().UTC()); err != nil {
			logging.Warn("recording activity", map[string]interface{}{"error": err.Error()})
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireSession rejects requests that carry no authenticated user.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			writeLimitError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from non-admin users.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			writeLimitError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !user.IsAdmin {
			writeLimitError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser returns a context carrying the user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}
