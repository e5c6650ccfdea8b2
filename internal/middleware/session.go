package middleware

import (
	"context"
	"net/http"

	"github.com/mailprefs/internal/model"
)

const SessionCookieName = "session"

type contextKey string

const (
	contextKeySessionID contextKey = "sessionID"
	contextKeyUser      contextKey = "user"
)

// SessionReader retrieves the user ID for a session token.
type SessionReader interface {
	GetUserID(ctx context.Context, sessionID string) (string, error)
}

// userByIDer retrieves a user by ID.
type userByIDer interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Session middleware validates the session cookie and puts the session ID
// and the active user into the request context. Anything else is redirected
// to /login.
func Session(sessions SessionReader, users userByIDer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			userID, err := sessions.GetUserID(r.Context(), cookie.Value)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil || user.Status != model.StatusActive {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := WithSession(r.Context(), cookie.Value, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSession returns ctx carrying the session ID and user.
func WithSession(ctx context.Context, sessionID string, user *model.User) context.Context {
	ctx = context.WithValue(ctx, contextKeySessionID, sessionID)
	return context.WithValue(ctx, contextKeyUser, user)
}

// SessionIDFromContext returns the current session's ID.
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(contextKeySessionID).(string)
	return v
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *model.User {
	v, _ := ctx.Value(contextKeyUser).(*model.User)
	return v
}

// RoleFromContext returns the authenticated user's role from the context.
func RoleFromContext(ctx context.Context) model.Role {
	if u := UserFromContext(ctx); u != nil {
		return u.Role
	}
	return ""
}

// IsSuperAdmin reports whether the authenticated user has the super_admin role.
func IsSuperAdmin(ctx context.Context) bool {
	return RoleFromContext(ctx) == model.RoleSuperAdmin
}
