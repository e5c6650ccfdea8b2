package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/mailprefs/internal/auth"
	appmw "github.com/mailprefs/internal/middleware"
	"github.com/mailprefs/internal/model"
	"github.com/mailprefs/internal/store"
)

type userGetterByUsername interface {
	GetByUsername(ctx context.Context, username string) (*model.User, string, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

type sessionCreatorDeleter interface {
	Create(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

type widgetDropper interface {
	Drop(key string)
}

type loginPageData struct {
	Username string
	Error    string
}

// AuthHandler handles login and logout.
type AuthHandler struct {
	BaseHandler
	users         userGetterByUsername
	sessions      sessionCreatorDeleter
	widgets       widgetDropper
	templates     *template.Template
	secureCookies bool
}

func NewAuthHandler(logger *slog.Logger, users userGetterByUsername, sessions sessionCreatorDeleter, widgets widgetDropper, tmpl *template.Template, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		users:         users,
		sessions:      sessions,
		widgets:       widgets,
		templates:     tmpl,
		secureCookies: secureCookies,
	}
}

// LoginPage renders the login form.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, http.StatusOK, loginPageData{})
}

// Login authenticates a user and issues a session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, hash, err := h.users.GetByUsername(r.Context(), username)
	if err != nil || !auth.Verify(hash, password) {
		h.renderLogin(w, http.StatusUnauthorized, loginPageData{Username: username, Error: "Invalid username or password."})
		return
	}

	if user.Status != model.StatusActive {
		h.renderLogin(w, http.StatusForbidden, loginPageData{Username: username, Error: "Account is inactive."})
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.serverErrorPage(w, r, err)
		return
	}

	if err := h.users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		h.Logger.Warn("auth: failed to record last login", "user_id", user.ID, "err", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     appmw.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(store.SessionTTL),
	})
	http.Redirect(w, r, "/preferences", http.StatusSeeOther)
}

// Logout ends the current session and discards its panel state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := appmw.SessionIDFromContext(r.Context()); sessionID != "" {
		if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
			h.Logger.Warn("auth: failed to delete session", "err", err)
		}
		h.widgets.Drop(sessionID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:    appmw.SessionCookieName,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, status int, data loginPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "login.html", data); err != nil {
		h.Logger.Error("auth: template error", "err", err)
	}
}
